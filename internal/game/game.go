// Package game implements the concurrent session engine shared by all
// game variants: the channel-keyed session registry, session lifecycle
// and task handles, and guess normalization.
package game

import "errors"

// Engine errors surfaced to players.
var (
	ErrGameRunning = errors.New("another game is already running in this channel")
	ErrNoSession   = errors.New("no game is running in this channel")
	ErrNotAllowed  = errors.New("only the game owner or a moderator can end this game")
)

// EndReason describes how a session terminated.
type EndReason string

const (
	EndedWon     EndReason = "won"
	EndedTimeout EndReason = "timeout"
	EndedManual  EndReason = "manual"
)

// Game is the capability set every variant implements. Implementations
// must be safe for concurrent use: guesses arrive from many players at
// once while timers run in the background.
type Game interface {
	// Variant returns the tag used for scoreboard win counters.
	Variant() string

	// Solution returns the substance players are trying to name.
	Solution() string

	// SubmitGuess records an attempt and reports whether the guess
	// names the solution. The attempt counts even when wrong.
	SubmitGuess(guess string) bool

	// Tries returns the number of attempts submitted so far.
	Tries() int

	// Reward returns the amount a correct answer is worth given the
	// attempts made so far.
	Reward() float64
}
