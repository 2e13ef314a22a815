// Package reagents implements the deduction guessing game built on
// chemical spot-test results.
package reagents

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/provider/protest"
)

const (
	// DefaultMaxClues keeps the clue set within the chat platform's
	// attachment limit.
	DefaultMaxClues = 9

	DefaultMinResults  = 6
	DefaultMinColorful = 2

	baseReward = 25
)

var (
	ErrNoTarget       = errors.New("no substance qualifies as a deduction target")
	ErrUnknownReagent = errors.New("reagent is not part of this round")
	ErrAlreadyTested  = errors.New("reagent was already tested")
)

// Config tunes target selection and the clue cap.
type Config struct {
	MaxClues    int
	MinResults  int
	MinColorful int
}

// Clue is one precomputed spot-test outcome for the round's target.
type Clue struct {
	ReagentID string
	Reagent   string
	Result    protest.Result
}

// Comparison relates a wrongly guessed substance to the round's clues.
type Comparison struct {
	Substance    protest.Substance
	Consistent   []Clue
	Inconsistent []Clue
}

// Game is the deduction-game state machine: a hidden target substance
// and a bounded set of spot-test clues players reveal one by one.
type Game struct {
	mu     sync.Mutex
	db     *protest.Database
	target protest.Substance
	clues  []Clue
	tested []string // reagent ids, in test order
	tries  int
}

// New picks a well-known target substance and precomputes its clue
// set, color-producing clues first, ties broken randomly.
func New(db *protest.Database, cfg *Config) (*Game, error) {
	maxClues := DefaultMaxClues
	minResults := DefaultMinResults
	minColorful := DefaultMinColorful
	if cfg != nil {
		if cfg.MaxClues > 0 {
			maxClues = cfg.MaxClues
		}
		if cfg.MinResults > 0 {
			minResults = cfg.MinResults
		}
		if cfg.MinColorful > 0 {
			minColorful = cfg.MinColorful
		}
	}
	if maxClues > DefaultMaxClues {
		maxClues = DefaultMaxClues
	}

	candidates := db.WellKnown(minResults, minColorful)
	if len(candidates) == 0 {
		return nil, ErrNoTarget
	}
	target := candidates[rand.Intn(len(candidates))]

	return &Game{
		db:     db,
		target: target,
		clues:  pickClues(db, target, maxClues),
	}, nil
}

func pickClues(db *protest.Database, target protest.Substance, max int) []Clue {
	clues := make([]Clue, 0, max)
	for reagentID, res := range db.Results(target.ID) {
		reagent, ok := db.Reagent(reagentID)
		if !ok {
			continue
		}
		clues = append(clues, Clue{
			ReagentID: reagentID,
			Reagent:   reagent.Name,
			Result:    res,
		})
	}

	// Shuffle first so the stable sort breaks color ties randomly.
	rand.Shuffle(len(clues), func(i, j int) {
		clues[i], clues[j] = clues[j], clues[i]
	})
	sort.SliceStable(clues, func(i, j int) bool {
		return clues[i].Result.Colorful() && !clues[j].Result.Colorful()
	})

	if len(clues) > max {
		clues = clues[:max]
	}
	return clues
}

// Variant returns the deduction-game tag.
func (g *Game) Variant() string {
	return model.VariantReagents
}

// Solution returns the target substance name.
func (g *Game) Solution() string {
	return g.target.Name
}

// Target returns the target substance.
func (g *Game) Target() protest.Substance {
	return g.target
}

// Clues returns the round's precomputed clue set.
func (g *Game) Clues() []Clue {
	out := make([]Clue, len(g.clues))
	copy(out, g.clues)
	return out
}

// SubmitGuess records an attempt against the target name.
func (g *Game) SubmitGuess(guess string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tries++
	return game.Matches(guess, g.target.Name)
}

// Tries returns the number of attempts submitted.
func (g *Game) Tries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tries
}

// Reward returns the payout, doubled on a first-try solve.
func (g *Game) Reward() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	reward := float64(baseReward)
	if g.tries <= 1 {
		reward *= 2
	}
	return reward
}

// TestReagent reveals the clue for the given reagent and marks it
// tested. Reagents outside the clue set or already tested are
// rejected; testing never ends the round.
func (g *Game) TestReagent(reagentID string) (Clue, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	clue, ok := g.clueFor(reagentID)
	if !ok {
		return Clue{}, ErrUnknownReagent
	}
	for _, id := range g.tested {
		if id == reagentID {
			return Clue{}, ErrAlreadyTested
		}
	}

	g.tested = append(g.tested, reagentID)
	return clue, nil
}

func (g *Game) clueFor(reagentID string) (Clue, bool) {
	for _, c := range g.clues {
		if c.ReagentID == reagentID {
			return c, true
		}
	}
	return Clue{}, false
}

// Tested returns the revealed clues in test order.
func (g *Game) Tested() []Clue {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Clue, 0, len(g.tested))
	for _, id := range g.tested {
		if c, ok := g.clueFor(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// Untested returns the clues not yet revealed, in clue order.
func (g *Game) Untested() []Clue {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Clue, 0, len(g.clues))
	for _, c := range g.clues {
		if !g.isTested(c.ReagentID) {
			out = append(out, c)
		}
	}
	return out
}

func (g *Game) isTested(reagentID string) bool {
	for _, id := range g.tested {
		if id == reagentID {
			return true
		}
	}
	return false
}

// Remaining returns how many clues are left to test.
func (g *Game) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clues) - len(g.tested)
}

// Compare relates a wrong guess to the round's clue set. It resolves
// the guess against known substance names and aliases; a guess naming
// no known substance, or the target itself, yields no comparison. A
// clue is consistent when the guessed substance's result for that
// reagent reads the same.
func (g *Game) Compare(guess string) (*Comparison, bool) {
	guessed, ok := g.resolve(guess)
	if !ok || guessed.ID == g.target.ID {
		return nil, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cmp := &Comparison{Substance: guessed}
	for _, clue := range g.clues {
		res, ok := g.db.Result(guessed.ID, clue.ReagentID)
		if ok && res.Description == clue.Result.Description {
			cmp.Consistent = append(cmp.Consistent, clue)
		} else {
			cmp.Inconsistent = append(cmp.Inconsistent, clue)
		}
	}
	return cmp, true
}

func (g *Game) resolve(guess string) (protest.Substance, bool) {
	for _, s := range g.db.Substances() {
		if game.Matches(guess, s.Name) {
			return s, true
		}
		for _, alias := range s.Aliases {
			if game.Matches(guess, alias) {
				return s, true
			}
		}
	}
	return protest.Substance{}, false
}
