// Package model defines the data models shared across the game bot.
package model

import (
	"encoding/json"
	"sort"
)

// Game variant names, used as scoreboard keys and replay tags.
const (
	VariantStructure = "structure"
	VariantReagents  = "reagents"
)

// GameVariants returns the closed set of playable variants.
func GameVariants() []string {
	return []string{VariantStructure, VariantReagents}
}

// Player identifies a chat user at the engine boundary.
// ID is the canonical string form of the platform user id.
type Player struct {
	ID   string
	Name string
}

// StringSet is a set of strings that serializes as a JSON array.
// Element order is not significant and is sorted on output.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts a value into the set.
func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether the set contains a value.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the set's elements in sorted order.
func (s StringSet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// MarshalJSON encodes the set as a sorted array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes the set from an array, collapsing duplicates.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	set := make(StringSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	*s = set
	return nil
}

// Profile is a player's persisted game record.
type Profile struct {
	Balance float64        `json:"balance"`
	Wins    map[string]int `json:"wins_by_variant"`
	Found   StringSet      `json:"found_substances"`
}

// NewProfile creates an empty profile with a zero balance.
func NewProfile() *Profile {
	return &Profile{
		Wins:  make(map[string]int),
		Found: make(StringSet),
	}
}

// RecordWin credits a round win to the profile.
func (p *Profile) RecordWin(variant, substance string, reward float64) {
	p.Balance += reward
	if p.Wins == nil {
		p.Wins = make(map[string]int)
	}
	p.Wins[variant]++
	if p.Found == nil {
		p.Found = make(StringSet)
	}
	p.Found.Add(substance)
}

// TotalWins returns the win count summed over all variants.
func (p *Profile) TotalWins() int {
	total := 0
	for _, n := range p.Wins {
		total += n
	}
	return total
}

// Level returns the player's current level.
func (p *Profile) Level() Level {
	return LevelFor(p.Balance)
}

// NextLevel returns the level above the current one, if any.
func (p *Profile) NextLevel() (Level, bool) {
	return NextLevelFor(p.Balance)
}

// Progress returns the player's progress towards the next level in [0, 1].
func (p *Profile) Progress() float64 {
	return ProgressFor(p.Balance)
}

// Clone returns a deep copy safe to hand out across goroutines.
func (p *Profile) Clone() *Profile {
	clone := &Profile{
		Balance: p.Balance,
		Wins:    make(map[string]int, len(p.Wins)),
		Found:   make(StringSet, len(p.Found)),
	}
	for variant, n := range p.Wins {
		clone.Wins[variant] = n
	}
	for substance := range p.Found {
		clone.Found.Add(substance)
	}
	return clone
}
