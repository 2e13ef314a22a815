package service

import (
	"time"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/reagents"
	"github.com/x-yzt/psychotropic/internal/model"
)

// EndReport describes a finished round for rendering.
type EndReport struct {
	SessionID string
	ChannelID string
	Variant   string
	Solution  string
	Reason    game.EndReason
	Winner    *model.Player
	EndedBy   *model.Player
	Reward    float64
	Tries     int
	Elapsed   time.Duration

	// Profile is the winner's updated profile, set on won rounds.
	Profile *model.Profile
	// PageURL links to the solution's encyclopedia page, when found.
	PageURL string
}

// GuessResult describes the engine's reaction to a chat message.
// A nil result means no session was listening on the channel.
type GuessResult struct {
	Session *game.Session
	Correct bool

	// Report is set when this guess ended the round. A correct guess
	// that lost the race against a timeout carries no report and must
	// stay silent.
	Report *EndReport

	// Comparison is optional feedback on a wrong deduction-game guess
	// naming a different known substance.
	Comparison *reagents.Comparison
}
