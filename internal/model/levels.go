package model

// Level is a named rank reached at a balance threshold.
type Level struct {
	Threshold float64
	Name      string
	Emoji     string
	Color     int
}

// levels is ordered by ascending threshold; the first entry is the floor
// every new profile starts at.
var levels = []Level{
	{Threshold: 0, Name: "Beginner", Emoji: "🧪", Color: 0x99AAB5},
	{Threshold: 20, Name: "Apprentice", Emoji: "⚗️", Color: 0x2ECC71},
	{Threshold: 100, Name: "Chemist", Emoji: "🔬", Color: 0x3498DB},
	{Threshold: 500, Name: "Expert", Emoji: "🧬", Color: 0xE67E22},
	{Threshold: 1000, Name: "Master", Emoji: "👑", Color: 0xF1C40F},
}

// Levels returns the level ladder in ascending order.
func Levels() []Level {
	ladder := make([]Level, len(levels))
	copy(ladder, levels)
	return ladder
}

// LevelFor returns the highest level whose threshold does not exceed balance.
func LevelFor(balance float64) Level {
	current := levels[0]
	for _, l := range levels {
		if balance < l.Threshold {
			break
		}
		current = l
	}
	return current
}

// NextLevelFor returns the level directly above the current one.
// The second return value is false at the top of the ladder.
func NextLevelFor(balance float64) (Level, bool) {
	for _, l := range levels {
		if balance < l.Threshold {
			return l, true
		}
	}
	return Level{}, false
}

// ProgressFor returns how far a balance has moved from its current level
// threshold to the next one, in [0, 1]. At the top level it is always 1.
func ProgressFor(balance float64) float64 {
	current := LevelFor(balance)
	next, ok := NextLevelFor(balance)
	if !ok {
		return 1
	}
	progress := (balance - current.Threshold) / (next.Threshold - current.Threshold)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
