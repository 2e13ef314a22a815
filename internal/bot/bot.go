// Package bot provides the Discord bot initialization and handler
// registration.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/config"
	"github.com/x-yzt/psychotropic/internal/handler"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
	"github.com/x-yzt/psychotropic/internal/service"
)

// Bot wraps the Discord session with application dependencies.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config
	dm      *dmUsers

	gameHandler  *handler.GameHandler
	scoreHandler *handler.ScoreHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config      *config.Config
	Session     *discordgo.Session
	GameService *service.Service
	Scoreboard  *scoreboard.Scoreboard
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	b := &Bot{
		session: deps.Session,
		cfg:     deps.Config,
		dm:      newDMUsers(),
	}

	b.gameHandler = handler.NewGameHandler(deps.GameService)
	b.scoreHandler = handler.NewScoreHandler(deps.Scoreboard)

	b.registerHandlers()

	return b, nil
}

// registerHandlers registers all gateway event handlers.
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handleMessage)
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("user", r.User.Username).Msg("Connected to Discord gateway")
}

// handleInteraction routes slash commands and message components.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.admits(i.GuildID, interactionUserID(i)) {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.gameHandler.HandleComponent(s, i)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// handleCommand routes the game command group by subcommand name.
func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "game" || len(data.Options) == 0 {
		return
	}

	log.Debug().
		Str("channel_id", i.ChannelID).
		Str("user_id", interactionUserID(i)).
		Str("subcommand", data.Options[0].Name).
		Msg("Received command")

	switch data.Options[0].Name {
	case "structure":
		b.gameHandler.HandleStructure(s, i)
	case "reagents":
		b.gameHandler.HandleReagents(s, i)
	case "end":
		b.gameHandler.HandleEnd(s, i)
	case "scores":
		b.scoreHandler.HandleScoreboard(s, i)
	case "profile":
		b.scoreHandler.HandleProfile(s, i)
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || !b.admits(m.GuildID, m.Author.ID) {
		return
	}
	b.gameHandler.HandleMessage(s, m)
}

// Run connects to the gateway, publishes the command tree and blocks
// until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}
	log.Info().Msg("Starting bot...")

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return err
	}

	<-ctx.Done()

	log.Info().Msg("Stopping bot...")
	return b.session.Close()
}

// registerCommands overwrites the global application command tree.
func (b *Bot) registerCommands() error {
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commands())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// Session returns the underlying Discord session.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// commands describes the game command group published to Discord.
func commands() []*discordgo.ApplicationCommand {
	minPage := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "game",
			Description: "Manage and play games.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "structure",
					Description: "Start a new Structure Game. The first player to name the pictured substance wins.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reagents",
					Description: "Start a new Reagents Game. The first player who guess the substance in the chat wins.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "End a running game. You must own it or have permission to manage messages in this channel.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "scores",
					Description: "Show a given page of the scoreboard.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "page",
							Description: "Page number to display.",
							MinValue:    &minPage,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "profile",
					Description: "Show a player's profile and game statistics.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Player to inspect, defaults to you.",
						},
					},
				},
			},
		},
	}
}
