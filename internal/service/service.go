// Package service provides the game engine business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/reagents"
	"github.com/x-yzt/psychotropic/internal/game/structure"
	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/provider/pnwiki"
	"github.com/x-yzt/psychotropic/internal/provider/protest"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
)

const (
	DefaultClueInterval    = 10 * time.Second
	DefaultReagentsTimeout = 10 * time.Minute
	DefaultLinkTimeout     = 2 * time.Second
)

// ErrNotDeduction rejects reagent tests against other game variants.
var ErrNotDeduction = errors.New("no deduction game is running in this channel")

// Announcer delivers engine-initiated messages to the chat layer.
// Inbound commands and guesses are answered by their handlers; the
// announcer covers what timers say on their own.
type Announcer interface {
	ClueRevealed(ctx context.Context, channelID, clue string)
	RoundTimedOut(ctx context.Context, report *EndReport)
}

// SchematicPicker serves random structure drawings for reveal rounds.
type SchematicPicker interface {
	Pick() (structure.Schematic, error)
}

// SubstancePager resolves a substance's encyclopedia page.
type SubstancePager interface {
	SubstancePage(ctx context.Context, name string) (pnwiki.Substance, error)
}

// Config tunes round pacing.
type Config struct {
	ClueInterval    time.Duration
	ReagentsTimeout time.Duration
	LinkTimeout     time.Duration
	Reagents        *reagents.Config
}

// Service runs the mini-game sessions: admission through the registry,
// variant timers, guess routing, and reward bookkeeping.
type Service struct {
	registry *game.Registry
	scores   *scoreboard.Scoreboard
	pool     SchematicPicker
	db       *protest.Database
	wiki     SubstancePager
	announce Announcer

	clueInterval    time.Duration
	reagentsTimeout time.Duration
	linkTimeout     time.Duration
	reagentsCfg     *reagents.Config
}

// New creates a Service instance. The wiki pager may be nil, in which
// case end-of-round reports simply carry no page link.
func New(
	registry *game.Registry,
	scores *scoreboard.Scoreboard,
	pool SchematicPicker,
	db *protest.Database,
	wiki SubstancePager,
	announce Announcer,
	cfg *Config,
) *Service {
	s := &Service{
		registry:        registry,
		scores:          scores,
		pool:            pool,
		db:              db,
		wiki:            wiki,
		announce:        announce,
		clueInterval:    DefaultClueInterval,
		reagentsTimeout: DefaultReagentsTimeout,
		linkTimeout:     DefaultLinkTimeout,
	}
	if cfg != nil {
		if cfg.ClueInterval > 0 {
			s.clueInterval = cfg.ClueInterval
		}
		if cfg.ReagentsTimeout > 0 {
			s.reagentsTimeout = cfg.ReagentsTimeout
		}
		if cfg.LinkTimeout > 0 {
			s.linkTimeout = cfg.LinkTimeout
		}
		s.reagentsCfg = cfg.Reagents
	}
	return s
}

// StartStructure opens a reveal-game round in the channel. It fails
// with structure.ErrNotReady while the schematic pool is warming up
// and game.ErrGameRunning when the channel already hosts a round.
func (s *Service) StartStructure(channelID string, owner model.Player) (*game.Session, error) {
	schematic, err := s.pool.Pick()
	if err != nil {
		return nil, err
	}

	g := structure.New(schematic)
	sess := s.admit(channelID, owner, g)
	if sess == nil {
		return nil, game.ErrGameRunning
	}

	sess.Spawn(func(ctx context.Context) {
		s.runClueLoop(ctx, sess, g)
	})

	log.Info().
		Str("channel", channelID).
		Str("variant", g.Variant()).
		Str("session", sess.ID).
		Msg("Round started")
	return sess, nil
}

// StartReagents opens a deduction-game round in the channel.
func (s *Service) StartReagents(channelID string, owner model.Player) (*game.Session, error) {
	g, err := reagents.New(s.db, s.reagentsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build deduction round: %w", err)
	}

	sess := s.admit(channelID, owner, g)
	if sess == nil {
		return nil, game.ErrGameRunning
	}

	sess.Spawn(func(ctx context.Context) {
		timer := time.NewTimer(s.reagentsTimeout)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			s.timeout(sess)
		}
	})

	log.Info().
		Str("channel", channelID).
		Str("variant", g.Variant()).
		Str("session", sess.ID).
		Msg("Round started")
	return sess, nil
}

// admit registers a fresh session for the channel, or nil when the
// channel is occupied. Sessions outlive the interaction that started
// them, so they parent to the background context and end only through
// finish or Shutdown.
func (s *Service) admit(channelID string, owner model.Player, g game.Game) *game.Session {
	sess := game.NewSession(context.Background(), channelID, owner, g)
	if !s.registry.Register(channelID, sess) {
		sess.CancelTasks()
		return nil
	}
	return sess
}

func (s *Service) runClueLoop(ctx context.Context, sess *game.Session, g *structure.Game) {
	ticker := time.NewTicker(s.clueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clue, exhausted := g.RevealMore()
			if exhausted {
				// The next reveal would spell the name out; the
				// round ends instead and the report carries it.
				s.timeout(sess)
				return
			}
			s.announce.ClueRevealed(ctx, sess.Channel, clue)
		}
	}
}

// timeout ends the round from a timer task. The announcement runs on a
// fresh context: finish cancels the task context this runs under.
func (s *Service) timeout(sess *game.Session) {
	report, ok := s.finish(sess, game.EndedTimeout, nil)
	if !ok {
		return
	}
	s.announce.RoundTimedOut(context.Background(), report)
}

// HandleGuess routes a chat message to the channel's session, if any.
// It returns nil when no round is listening.
func (s *Service) HandleGuess(channelID string, author model.Player, text string) *GuessResult {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return nil
	}

	res := &GuessResult{Session: sess}
	if !sess.SubmitGuess(text) {
		if g, ok := sess.Game().(*reagents.Game); ok {
			if cmp, ok := g.Compare(text); ok {
				res.Comparison = cmp
			}
		}
		return res
	}

	res.Correct = true
	winner := author
	if report, ok := s.finish(sess, game.EndedWon, &winner); ok {
		res.Report = report
	}
	return res
}

// TestReagent reveals one precomputed clue of the channel's deduction
// round.
func (s *Service) TestReagent(channelID, reagentID string) (reagents.Clue, *game.Session, error) {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return reagents.Clue{}, nil, game.ErrNoSession
	}

	g, ok := sess.Game().(*reagents.Game)
	if !ok {
		return reagents.Clue{}, nil, ErrNotDeduction
	}

	clue, err := g.TestReagent(reagentID)
	if err != nil {
		return reagents.Clue{}, sess, err
	}
	return clue, sess, nil
}

// End terminates the channel's round on request. Only the session
// owner or a caller with channel management permission may end it.
func (s *Service) End(channelID string, requester model.Player, canManage bool) (*EndReport, error) {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return nil, game.ErrNoSession
	}
	if !sess.CanBeEndedBy(requester.ID, canManage) {
		return nil, game.ErrNotAllowed
	}

	report, ok := s.finish(sess, game.EndedManual, nil)
	if !ok {
		return nil, game.ErrNoSession
	}
	report.EndedBy = &requester
	return report, nil
}

// finish commits the end of a round. The registry removal is the
// race gate: of all concurrent enders (timeout, correct guess, manual
// end), exactly one gets true here, and only that one cancels tasks,
// mutates the scoreboard and reports.
func (s *Service) finish(sess *game.Session, reason game.EndReason, winner *model.Player) (*EndReport, bool) {
	if !s.registry.Unregister(sess.Channel, sess) {
		return nil, false
	}
	sess.CancelTasks()

	report := &EndReport{
		SessionID: sess.ID,
		ChannelID: sess.Channel,
		Variant:   sess.Variant(),
		Solution:  sess.Solution(),
		Reason:    reason,
		Winner:    winner,
		Tries:     sess.Game().Tries(),
		Elapsed:   sess.Elapsed(),
	}
	if reason == game.EndedWon && winner != nil {
		report.Reward = sess.Game().Reward()
		report.Profile = s.scores.AwardWin(winner.ID, report.Variant, report.Solution, report.Reward)
	}
	report.PageURL = s.lookupPage(report.Solution)

	log.Info().
		Str("channel", sess.Channel).
		Str("variant", report.Variant).
		Str("reason", string(reason)).
		Int("tries", report.Tries).
		Msg("Round ended")
	return report, true
}

// lookupPage resolves the learn-more link. The session context is
// already cancelled by the time this runs, so the lookup gets its own
// short budget; failure only costs the link.
func (s *Service) lookupPage(name string) string {
	if s.wiki == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.linkTimeout)
	defer cancel()

	page, err := s.wiki.SubstancePage(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("substance", name).Msg("No substance page found")
		return ""
	}
	return page.URL
}

// Shutdown ends every live session without scoreboard effects.
func (s *Service) Shutdown() {
	for _, sess := range s.registry.Sessions() {
		if s.registry.Unregister(sess.Channel, sess) {
			sess.CancelTasks()
		}
	}
	log.Info().Msg("All sessions ended")
}
