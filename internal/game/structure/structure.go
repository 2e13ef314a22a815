// Package structure implements the letter-reveal guessing game played
// over chemical structure drawings.
package structure

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/model"
)

// Placeholder marks a hidden character in clue strings.
const Placeholder = '_'

// Game is the reveal-game state machine. The solution's guessable
// characters start hidden and are uncovered in a precomputed shuffled
// order until someone names the substance or the positions run out.
type Game struct {
	mu        sync.Mutex
	solution  string
	runes     []rune
	schematic Schematic
	order     []int // shuffled guessable rune positions
	revealed  int   // prefix of order already uncovered
	tries     int
}

// New builds a round over the given schematic. Separator characters
// are shown verbatim from the start; everything else begins hidden.
func New(s Schematic) *Game {
	runes := []rune(s.Name)
	order := make([]int, 0, len(runes))
	for i, r := range runes {
		if !strings.ContainsRune(game.Separators, r) {
			order = append(order, i)
		}
	}
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return &Game{
		solution:  s.Name,
		runes:     runes,
		schematic: s,
		order:     order,
	}
}

// Variant returns the reveal-game tag.
func (g *Game) Variant() string {
	return model.VariantStructure
}

// Solution returns the substance being guessed.
func (g *Game) Solution() string {
	return g.solution
}

// Schematic returns the structure drawing shown at round start.
func (g *Game) Schematic() Schematic {
	return g.schematic
}

// SubmitGuess records an attempt; wrong guesses still count towards
// the reward tier.
func (g *Game) SubmitGuess(guess string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tries++
	return game.Matches(guess, g.solution)
}

// Tries returns the number of attempts submitted.
func (g *Game) Tries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tries
}

// Reward returns the full count of guessable characters on a first-try
// solve, half of it otherwise.
func (g *Game) Reward() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	reward := float64(len(g.order))
	if g.tries > 1 {
		reward /= 2
	}
	return reward
}

// RevealMore uncovers roughly a quarter of the originally hidden
// positions, at least one, and returns the updated clue. It reports
// exhaustion once nothing is left to uncover; further calls change
// nothing and stay exhausted.
func (g *Game) RevealMore() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.revealed >= len(g.order) {
		return g.clue(), true
	}

	step := len(g.order) / 4
	if step < 1 {
		step = 1
	}
	g.revealed += step
	if g.revealed > len(g.order) {
		g.revealed = len(g.order)
	}

	return g.clue(), g.revealed >= len(g.order)
}

// Clue returns the current clue string: hidden positions as
// placeholders, separators and uncovered characters verbatim.
func (g *Game) Clue() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clue()
}

func (g *Game) clue() string {
	hidden := make(map[int]struct{}, len(g.order)-g.revealed)
	for _, pos := range g.order[g.revealed:] {
		hidden[pos] = struct{}{}
	}

	var b strings.Builder
	b.Grow(len(g.runes))
	for i, r := range g.runes {
		if _, ok := hidden[i]; ok {
			b.WriteRune(Placeholder)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HiddenCount returns how many positions are still hidden.
func (g *Game) HiddenCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order) - g.revealed
}

// GuessableCount returns how many positions started hidden.
func (g *Game) GuessableCount() int {
	return len(g.order)
}
