package handler

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/service"
)

// Notifier delivers engine-initiated messages to Discord channels. It
// is the chat side of the engine's announcer contract: clue reveals
// and timeouts originate from timers, not from inbound interactions.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a Notifier over an open Discord session.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// ClueRevealed posts an easier clue to the round's channel.
func (n *Notifier) ClueRevealed(ctx context.Context, channelID, clue string) {
	embed := defaultEmbed(
		"💡 Here's a bit of help:",
		fmt.Sprintf("```%s```", clue),
	)

	_, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("Failed to send clue")
	}
}

// RoundTimedOut announces an unsolved round.
func (n *Notifier) RoundTimedOut(ctx context.Context, report *service.EndReport) {
	_, err := n.session.ChannelMessageSendComplex(report.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{endEmbed(report)},
		Components: endComponents(report),
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("channel", report.ChannelID).Msg("Failed to send timeout message")
	}
}
