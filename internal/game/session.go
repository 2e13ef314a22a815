package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/pkg/tasks"
)

// Session is one in-progress game bound to a single channel. It owns
// its background task handles; the variant state machine it wraps
// carries its own synchronization.
type Session struct {
	ID        string
	Channel   string
	Owner     model.Player
	StartedAt time.Time

	game  Game
	tasks *tasks.Supervisor
}

// NewSession wraps a variant state machine into a session for the given
// channel. Background tasks spawned on the session are additionally
// bound to ctx, so process shutdown cancels them.
func NewSession(ctx context.Context, channelID string, owner model.Player, g Game) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Channel:   channelID,
		Owner:     owner,
		StartedAt: time.Now(),
		game:      g,
		tasks:     tasks.NewSupervisor(ctx),
	}
}

// Game returns the variant state machine driving this session.
func (s *Session) Game() Game {
	return s.game
}

// Variant returns the session's variant tag.
func (s *Session) Variant() string {
	return s.game.Variant()
}

// Solution returns the substance players are trying to name.
func (s *Session) Solution() string {
	return s.game.Solution()
}

// SubmitGuess forwards a guess to the variant state machine.
func (s *Session) SubmitGuess(guess string) bool {
	return s.game.SubmitGuess(guess)
}

// Elapsed returns how long the session has been running.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.StartedAt)
}

// Spawn schedules background work cancelled when the session ends.
func (s *Session) Spawn(fn func(ctx context.Context)) {
	s.tasks.Spawn(fn)
}

// CancelTasks cancels all outstanding background work. Idempotent.
func (s *Session) CancelTasks() {
	s.tasks.CancelAll()
}

// ActiveTasks returns the number of background tasks still running.
func (s *Session) ActiveTasks() int {
	return s.tasks.Active()
}

// CanBeEndedBy reports whether a player may end this session: the owner
// always can, anyone else needs channel management rights.
func (s *Session) CanBeEndedBy(playerID string, canManage bool) bool {
	return canManage || s.Owner.ID == playerID
}
