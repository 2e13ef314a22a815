package structure

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNotReady is returned by Pick until Populate has run.
var ErrNotReady = errors.New("schematic pool is not ready yet")

// Provider supplies the substance catalogue and structure drawings.
type Provider interface {
	ListSubstances(ctx context.Context) ([]string, error)
	SchematicImage(ctx context.Context, name string) ([]byte, error)
}

// Schematic is one pooled substance with its cached drawing.
type Schematic struct {
	Name string
	Path string
}

// Pool holds the substances the reveal game picks from. It starts
// empty and unready; Populate fills the on-disk image cache and flips
// it to ready, so rounds requested during warm-up fail fast instead of
// blocking on network calls.
type Pool struct {
	dir      string
	provider Provider
	fetch    bool

	mu      sync.RWMutex
	entries []Schematic
	ready   bool
}

// NewPool builds an unready pool over the given cache directory. When
// fetch is false Populate only scans the directory, which keeps
// startup offline-friendly once the cache exists.
func NewPool(dir string, provider Provider, fetch bool) *Pool {
	return &Pool{dir: dir, provider: provider, fetch: fetch}
}

// Populate downloads missing drawings into the cache directory, then
// indexes whatever the directory holds. Substances whose drawing
// cannot be fetched are skipped rather than failing the whole pool.
func (p *Pool) Populate(ctx context.Context) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("creating schematic cache dir: %w", err)
	}

	if p.fetch {
		if err := p.download(ctx); err != nil {
			return err
		}
	}

	entries, err := p.scan()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.entries = entries
	p.ready = len(entries) > 0
	p.mu.Unlock()

	if len(entries) == 0 {
		log.Warn().Str("dir", p.dir).Msg("Schematic cache is empty, pool stays unready")
		return nil
	}
	log.Info().Int("substances", len(entries)).Msg("Schematic pool ready")
	return nil
}

func (p *Pool) download(ctx context.Context) error {
	names, err := p.provider.ListSubstances(ctx)
	if err != nil {
		return fmt.Errorf("listing substances: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(p.dir, name+".png")
		if _, err := os.Stat(path); err == nil {
			continue
		}

		img, err := p.provider.SchematicImage(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("substance", name).Msg("Skipping schematic")
			continue
		}
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return fmt.Errorf("caching schematic for %s: %w", name, err)
		}
	}
	return nil
}

func (p *Pool) scan() ([]Schematic, error) {
	paths, err := filepath.Glob(filepath.Join(p.dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("scanning schematic cache: %w", err)
	}

	entries := make([]Schematic, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".png")
		if name == "" {
			continue
		}
		entries = append(entries, Schematic{Name: name, Path: path})
	}
	return entries, nil
}

// Pick returns a random pooled schematic, or ErrNotReady while the
// pool is still warming up.
func (p *Pool) Pick() (Schematic, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.ready {
		return Schematic{}, ErrNotReady
	}
	return p.entries[rand.Intn(len(p.entries))], nil
}

// Ready reports whether Pick can serve rounds.
func (p *Pool) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Size returns the number of pooled substances.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
