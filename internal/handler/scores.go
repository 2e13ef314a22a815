package handler

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
)

// ScoreHandler handles the scoreboard and profile commands.
type ScoreHandler struct {
	scores *scoreboard.Scoreboard
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scores *scoreboard.Scoreboard) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// commandOptions unwraps subcommand nesting so handlers read their own
// options directly.
func commandOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Options
	}
	return opts
}

// HandleScoreboard shows one page of players ranked by balance.
func (h *ScoreHandler) HandleScoreboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	page := 1
	for _, opt := range commandOptions(i) {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}
	if page < 1 {
		page = 1
	}

	entries, totalPages := h.scores.Page(page)

	var embed *discordgo.MessageEmbed
	if len(entries) == 0 {
		embed = errorEmbed("Empty page", "")
	} else {
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf(
				"**%s** - <@%s> - `%.0f 🪙`",
				rankMarker(e.Rank), e.PlayerID, e.Profile.Balance,
			))
		}
		embed = defaultEmbed("🏆 Scoreboard", strings.Join(lines, "\n"))
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "📄 Page number",
		Value: fmt.Sprintf("**%d** / **%d**", page, totalPages),
	})

	respondEmbed(s, i, embed)
}

// HandleProfile shows a player's balance, level and game stats. An
// optional user option inspects someone else's profile.
func (h *ScoreHandler) HandleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	for _, opt := range commandOptions(i) {
		if opt.Name == "user" {
			if u := opt.UserValue(s); u != nil {
				user = u
			}
		}
	}
	if user == nil {
		respondEmbed(s, i, errorEmbed("", ""))
		return
	}

	profile := h.scores.Profile(user.ID)
	level := model.LevelFor(profile.Balance)

	embed := defaultEmbed(
		fmt.Sprintf("%s %s", level.Emoji, user.Username),
		fmt.Sprintf("**%s** alchemist", level.Name),
	)
	embed.Color = level.Color
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  "🪙 Balance",
			Value: fmt.Sprintf("**%g coins**", profile.Balance),
		},
		{
			Name:  "📈 Next level",
			Value: progressField(profile.Balance),
		},
		{
			Name:  "🏆 Wins",
			Value: winsField(profile),
		},
		{
			Name:  "🧪 Substances found",
			Value: fmt.Sprintf("**%d**", len(profile.Found)),
		},
	}

	respondEmbed(s, i, embed)
}

func progressField(balance float64) string {
	next, ok := model.NextLevelFor(balance)
	if !ok {
		return "Top of the ladder, well done!"
	}
	return fmt.Sprintf(
		"%s %s **%s** at %g 🪙",
		progressBar(model.ProgressFor(balance)), next.Emoji, next.Name, next.Threshold,
	)
}

func winsField(profile *model.Profile) string {
	lines := make([]string, 0, len(model.GameVariants()))
	for _, variant := range model.GameVariants() {
		lines = append(lines, fmt.Sprintf(
			"%s: **%d**", variantLabel(variant), profile.Wins[variant],
		))
	}
	return strings.Join(lines, "\n")
}

func variantLabel(variant string) string {
	switch variant {
	case model.VariantStructure:
		return "Structure game"
	case model.VariantReagents:
		return "Reagents game"
	}
	return variant
}
