package model

import (
	"testing"

	"pgregory.net/rapid"
)

// TestLevelMonotonicProperty verifies that increasing a balance never
// lowers the resulting level.
func TestLevelMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		balance := rapid.Float64Range(0, 100_000).Draw(t, "balance")
		gain := rapid.Float64Range(0, 10_000).Draw(t, "gain")

		before := LevelFor(balance)
		after := LevelFor(balance + gain)

		if after.Threshold < before.Threshold {
			t.Fatalf("level dropped from %s (%v) to %s (%v) after gaining %v",
				before.Name, before.Threshold, after.Name, after.Threshold, gain)
		}
	})
}

// TestProgressBoundsProperty verifies that progress stays within [0, 1]
// and that the reported level threshold never exceeds the balance.
func TestProgressBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		balance := rapid.Float64Range(0, 100_000).Draw(t, "balance")

		progress := ProgressFor(balance)
		if progress < 0 || progress > 1 {
			t.Fatalf("ProgressFor(%v) = %v, out of [0, 1]", balance, progress)
		}

		level := LevelFor(balance)
		if level.Threshold > balance {
			t.Fatalf("LevelFor(%v) returned %s with threshold %v above the balance",
				balance, level.Name, level.Threshold)
		}
	})
}

// TestRecordWinProperty verifies that wins only ever grow a profile.
func TestRecordWinProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewProfile()
		wins := rapid.IntRange(1, 50).Draw(t, "wins")

		total := 0.0
		for i := 0; i < wins; i++ {
			reward := rapid.Float64Range(0.5, 100).Draw(t, "reward")
			variant := rapid.SampledFrom(GameVariants()).Draw(t, "variant")
			p.RecordWin(variant, "Aspirin", reward)
			total += reward
		}

		if p.Balance != total {
			t.Fatalf("balance = %v, want %v", p.Balance, total)
		}
		if p.TotalWins() != wins {
			t.Fatalf("total wins = %d, want %d", p.TotalWins(), wins)
		}
		if !p.Found.Has("Aspirin") {
			t.Fatal("found substances should contain the recorded win")
		}
	})
}
