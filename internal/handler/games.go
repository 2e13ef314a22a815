package handler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/reagents"
	"github.com/x-yzt/psychotropic/internal/game/structure"
	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/service"
)

// GameHandler handles round commands, chat guesses and the round's
// button interactions.
type GameHandler struct {
	svc *service.Service
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(svc *service.Service) *GameHandler {
	return &GameHandler{svc: svc}
}

// interactionUser returns the interaction author, wherever Discord
// put it.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// interactionPlayer extracts the acting player from an interaction.
func interactionPlayer(i *discordgo.InteractionCreate) model.Player {
	u := interactionUser(i)
	if u == nil {
		return model.Player{}
	}
	return model.Player{ID: u.ID, Name: u.Username}
}

// canManage reports whether the interaction author may manage messages
// in the channel.
func canManage(i *discordgo.InteractionCreate) bool {
	return i.Member != nil &&
		i.Member.Permissions&discordgo.PermissionManageMessages != 0
}

// respond answers an interaction, logging delivery failures.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Error().Err(err).Str("channel", i.ChannelID).Msg("Failed to respond to interaction")
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

// respondStartError maps admission failures to user-facing embeds.
func respondStartError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, game.ErrGameRunning):
		respondEmbed(s, i, errorEmbed(
			"Another game is running in this channel!",
			"Please end the current game before starting another one.",
		))
	case errors.Is(err, structure.ErrNotReady):
		respondEmbed(s, i, errorEmbed(
			"The Structure Game is warming up",
			"Please retry in a few moments!",
		))
	default:
		log.Error().Err(err).Str("channel", i.ChannelID).Msg("Failed to start round")
		respondEmbed(s, i, errorEmbed("", ""))
	}
}

// HandleStructure starts a reveal round from the /structure command or
// its replay button.
func (h *GameHandler) HandleStructure(s *discordgo.Session, i *discordgo.InteractionCreate) {
	player := interactionPlayer(i)

	sess, err := h.svc.StartStructure(i.ChannelID, player)
	if err != nil {
		respondStartError(s, i, err)
		return
	}
	g := sess.Game().(*structure.Game)

	embed := defaultEmbed(
		fmt.Sprintf("🚀 %s started a new game!", player.Name),
		"What substance is this?",
	)
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	if f, err := os.Open(g.Schematic().Path); err != nil {
		log.Warn().Err(err).Str("substance", g.Solution()).Msg("Missing schematic file")
	} else {
		defer f.Close()
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://schematic.png"}
		data.Files = []*discordgo.File{{
			Name:        "schematic.png",
			ContentType: "image/png",
			Reader:      f,
		}}
	}

	respond(s, i, data)
}

// HandleReagents starts a deduction round from the /reagents command
// or its replay button.
func (h *GameHandler) HandleReagents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	player := interactionPlayer(i)

	sess, err := h.svc.StartReagents(i.ChannelID, player)
	if err != nil {
		respondStartError(s, i, err)
		return
	}
	g := sess.Game().(*reagents.Game)

	embed := defaultEmbed(
		fmt.Sprintf("🚀 %s found a strange chemical in its pockets...", player.Name),
		"Can you find what this is?",
	)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Wow, shady stuff..."}

	respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: reagentComponents(g),
	})
}

// HandleEnd terminates the channel's round from the /end command.
func (h *GameHandler) HandleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	player := interactionPlayer(i)

	report, err := h.svc.End(i.ChannelID, player, canManage(i))
	switch {
	case errors.Is(err, game.ErrNoSession):
		respondEmbed(s, i, errorEmbed("There is no game running in this channel!", ""))
		return
	case errors.Is(err, game.ErrNotAllowed):
		respondEmbed(s, i, errorEmbed(
			"You are not allowed to end this game!",
			"You need to own this game or have permission to manage messages in this channel.",
		))
		return
	case err != nil:
		log.Error().Err(err).Str("channel", i.ChannelID).Msg("Failed to end round")
		respondEmbed(s, i, errorEmbed("", ""))
		return
	}

	respond(s, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{endEmbed(report)},
		Components: endComponents(report),
	})
}

// HandleMessage treats every chat message as a guess against the
// channel's round, if one is live.
func (h *GameHandler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	player := model.Player{ID: m.Author.ID, Name: m.Author.Username}
	res := h.svc.HandleGuess(m.ChannelID, player, m.Content)
	if res == nil {
		return
	}

	switch {
	case res.Report != nil:
		_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{endEmbed(res.Report)},
			Components: endComponents(res.Report),
		})
		if err != nil {
			log.Error().Err(err).Str("channel", m.ChannelID).Msg("Failed to send win message")
		}
	case res.Comparison != nil:
		_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{comparisonEmbed(res.Comparison)},
		})
		if err != nil {
			log.Error().Err(err).Str("channel", m.ChannelID).Msg("Failed to send comparison")
		}
	}
}

// HandleComponent routes button presses by custom id prefix.
func (h *GameHandler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(id, "replay:"):
		switch strings.TrimPrefix(id, "replay:") {
		case model.VariantStructure:
			h.HandleStructure(s, i)
		case model.VariantReagents:
			h.HandleReagents(s, i)
		}
	case id == "reagent":
		if values := i.MessageComponentData().Values; len(values) > 0 {
			h.handleReagentTest(s, i, values[0])
		}
	}
}

func (h *GameHandler) handleReagentTest(s *discordgo.Session, i *discordgo.InteractionCreate, reagentID string) {
	clue, sess, err := h.svc.TestReagent(i.ChannelID, reagentID)
	switch {
	case errors.Is(err, game.ErrNoSession), errors.Is(err, service.ErrNotDeduction):
		// Stale buttons from an ended round.
		respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("There is no game running in this channel!", "")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
		return
	case errors.Is(err, reagents.ErrAlreadyTested):
		respond(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{errorEmbed("This reagent was already used!", "")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
		return
	case errors.Is(err, reagents.ErrUnknownReagent):
		respondEmbed(s, i, errorEmbed(
			"Reaction error 💣",
			"Sadly I can't perform this test on this mysterious substance.",
		))
		return
	case err != nil:
		log.Error().Err(err).Str("channel", i.ChannelID).Msg("Failed to test reagent")
		respondEmbed(s, i, errorEmbed("", ""))
		return
	}

	embed := defaultEmbed(fmt.Sprintf("⚗️ %s test results", clue.Reagent), "")
	embed.Color = embedColor(clue.Result.Colors)
	embed.Fields = []*discordgo.MessageEmbedField{{
		Name:  "🔎 Observed results",
		Value: fmt.Sprintf("**%s**", clue.Result.Description),
	}}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Mhh..."}

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if g, ok := sess.Game().(*reagents.Game); ok {
		data.Components = reagentComponents(g)
	}
	respond(s, i, data)
}

// reagentComponents builds the reagent picker. Discord rejects empty
// selects, so an exhausted clue set yields no components at all.
func reagentComponents(g *reagents.Game) []discordgo.MessageComponent {
	untested := g.Untested()
	if len(untested) == 0 {
		return nil
	}

	options := make([]discordgo.SelectMenuOption, 0, len(untested))
	for _, clue := range untested {
		options = append(options, discordgo.SelectMenuOption{
			Label: fmt.Sprintf("%s test", clue.Reagent),
			Value: clue.ReagentID,
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    "reagent",
					Placeholder: "Use a reagent...",
					Options:     options,
				},
			},
		},
	}
}

// comparisonEmbed renders how a guessed substance reads against the
// round's clues.
func comparisonEmbed(cmp *reagents.Comparison) *discordgo.MessageEmbed {
	embed := defaultEmbed(
		fmt.Sprintf("🔬 It is not %s!", cmp.Substance.Name),
		"But let's see how it compares to the mystery substance.",
	)

	if len(cmp.Consistent) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "✅ Consistent results",
			Value: clueList(cmp.Consistent),
		})
	}
	if len(cmp.Inconsistent) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "❌ Inconsistent results",
			Value: clueList(cmp.Inconsistent),
		})
	}
	return embed
}

func clueList(clues []reagents.Clue) string {
	names := make([]string, 0, len(clues))
	for _, c := range clues {
		names = append(names, c.Reagent)
	}
	return strings.Join(names, ", ")
}
