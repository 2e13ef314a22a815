package scoreboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/model"
)

const (
	DefaultPageLen       = 15
	DefaultFlushInterval = 60 * time.Second
)

// Config tunes ranking pages and the persistence period.
type Config struct {
	PageLen       int
	FlushInterval time.Duration
}

// Entry is one ranked scoreboard line.
type Entry struct {
	Rank     int
	PlayerID string
	Profile  *model.Profile
}

// Scoreboard is the in-memory profile table shared by all live
// sessions. Profiles are created lazily on first read and persisted
// wholesale by the flush loop.
type Scoreboard struct {
	store         *FileStore
	pageLen       int
	flushInterval time.Duration

	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

// New builds an empty scoreboard over the given store.
func New(store *FileStore, cfg *Config) *Scoreboard {
	b := &Scoreboard{
		store:         store,
		pageLen:       DefaultPageLen,
		flushInterval: DefaultFlushInterval,
		profiles:      make(map[string]*model.Profile),
	}
	if cfg != nil {
		if cfg.PageLen > 0 {
			b.pageLen = cfg.PageLen
		}
		if cfg.FlushInterval > 0 {
			b.flushInterval = cfg.FlushInterval
		}
	}
	return b
}

// Load replaces the in-memory table with the persisted one.
func (b *Scoreboard) Load() error {
	profiles, err := b.store.Load()
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.profiles = profiles
	b.mu.Unlock()
	return nil
}

// Profile returns a copy of the player's profile, creating a default
// one on first sight.
func (b *Scoreboard) Profile(playerID string) *model.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile(playerID).Clone()
}

func (b *Scoreboard) profile(playerID string) *model.Profile {
	p, ok := b.profiles[playerID]
	if !ok {
		p = model.NewProfile()
		b.profiles[playerID] = p
	}
	return p
}

// AwardWin credits a round win to the player and returns the updated
// profile copy.
func (b *Scoreboard) AwardWin(playerID, variant, substance string, reward float64) *model.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.profile(playerID)
	p.RecordWin(variant, substance, reward)
	return p.Clone()
}

// Len returns the number of known profiles.
func (b *Scoreboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.profiles)
}

// PageLen returns the ranking page size.
func (b *Scoreboard) PageLen() int {
	return b.pageLen
}

// Page returns one page of the ranking, richest first, along with the
// total page count. Pages are 1-based; out-of-range pages are empty.
func (b *Scoreboard) Page(page int) ([]Entry, int) {
	b.mu.RLock()
	ids := make([]string, 0, len(b.profiles))
	for id := range b.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := b.profiles[ids[i]], b.profiles[ids[j]]
		if pi.Balance != pj.Balance {
			return pi.Balance > pj.Balance
		}
		return ids[i] < ids[j]
	})

	totalPages := (len(ids) + b.pageLen - 1) / b.pageLen

	if page < 1 {
		page = 1
	}
	start := (page - 1) * b.pageLen
	if start >= len(ids) {
		b.mu.RUnlock()
		return nil, totalPages
	}
	end := start + b.pageLen
	if end > len(ids) {
		end = len(ids)
	}

	entries := make([]Entry, 0, end-start)
	for i, id := range ids[start:end] {
		entries = append(entries, Entry{
			Rank:     start + i + 1,
			PlayerID: id,
			Profile:  b.profiles[id].Clone(),
		})
	}
	b.mu.RUnlock()
	return entries, totalPages
}

// Flush persists the full table.
func (b *Scoreboard) Flush() error {
	b.mu.RLock()
	snapshot := make(map[string]*model.Profile, len(b.profiles))
	for id, p := range b.profiles {
		snapshot[id] = p.Clone()
	}
	b.mu.RUnlock()

	return b.store.Save(snapshot)
}

// Run flushes on a fixed period until the context ends, then flushes
// one final time so shutdown never loses awarded rewards.
func (b *Scoreboard) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return b.Flush()
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				log.Error().Err(err).Msg("Failed to flush scoreboard")
			}
		}
	}
}
