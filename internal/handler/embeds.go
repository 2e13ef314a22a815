// Package handler provides Discord command, component and message
// handlers.
package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/service"
)

const (
	defaultColor = 0x567EFF
	errorColor   = 0xE74C3C
)

// defaultEmbed builds the bot's standard rich embed.
func defaultEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       defaultColor,
	}
}

// errorEmbed builds the bot's standard failure embed.
func errorEmbed(msg, info string) *discordgo.MessageEmbed {
	if msg == "" {
		msg = "Something went wrong"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Error: %s :(", msg),
		Description: info,
		Color:       errorColor,
	}
}

// endEmbed renders a finished round.
func endEmbed(report *service.EndReport) *discordgo.MessageEmbed {
	answer := fmt.Sprintf("The answer was **%s**.", report.Solution)

	switch report.Reason {
	case game.EndedWon:
		embed := defaultEmbed(
			fmt.Sprintf("✅ Correct answer, %s!", report.Winner.Name),
			fmt.Sprintf("Well played! %s", answer),
		)
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:  "⏱️ Elapsed time",
				Value: fmt.Sprintf("You answered in %.2f seconds.", report.Elapsed.Seconds()),
			},
			{
				Name:  "🪙 Reward",
				Value: fmt.Sprintf("You won **%g coins**.", report.Reward),
			},
		}
		if report.Tries == 1 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "🥇 First try bonus!",
				Value: "Yay!",
			})
		}
		return embed

	case game.EndedManual:
		name := "someone"
		if report.EndedBy != nil {
			name = report.EndedBy.Name
		}
		return defaultEmbed(fmt.Sprintf("🛑 %s ended the game.", name), answer)

	default:
		return defaultEmbed("😔 No one found the solution.", answer)
	}
}

// endComponents builds the replay and learn-more buttons shown under
// end-of-round messages.
func endComponents(report *service.EndReport) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Play again",
			Style:    discordgo.PrimaryButton,
			CustomID: "replay:" + report.Variant,
			Emoji:    &discordgo.ComponentEmoji{Name: "🏓"},
		},
	}
	if report.PageURL != "" {
		buttons = append(buttons, discordgo.Button{
			Label: "What's that?",
			Style: discordgo.LinkButton,
			URL:   report.PageURL,
			Emoji: &discordgo.ComponentEmoji{Name: "🌐"},
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: buttons},
	}
}

// rankMarker returns the medal for podium ranks, the plain number
// otherwise.
func rankMarker(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return strconv.Itoa(rank)
	}
}

// progressBar renders a ten-cell bar for a [0, 1] ratio.
func progressBar(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * 10)

	var b strings.Builder
	for i := 0; i < 10; i++ {
		if i < filled {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

// embedColor picks an embed accent from reaction colors, falling back
// to the bot's default.
func embedColor(colors []string) int {
	for _, c := range colors {
		v, err := strconv.ParseInt(strings.TrimPrefix(c, "#"), 16, 32)
		if err == nil {
			return int(v)
		}
	}
	return defaultColor
}
