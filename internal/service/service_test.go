package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/reagents"
	"github.com/x-yzt/psychotropic/internal/game/structure"
	"github.com/x-yzt/psychotropic/internal/model"
	"github.com/x-yzt/psychotropic/internal/provider/pnwiki"
	"github.com/x-yzt/psychotropic/internal/provider/protest"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
)

const testDataset = `{
	"reagents": [
		{"id": "r1", "name": "Marquis"},
		{"id": "r2", "name": "Mecke"},
		{"id": "r3", "name": "Mandelin"},
		{"id": "r4", "name": "Liebermann"},
		{"id": "r5", "name": "Froehde"},
		{"id": "r6", "name": "Simons"}
	],
	"substances": [
		{"id": "alpha", "name": "Alphaine", "aliases": ["alph"]},
		{"id": "beta", "name": "Betadol", "aliases": ["bee"]}
	],
	"results": {
		"alpha": {
			"r1": {"description": "Purple to black", "colors": ["#5B2C6F"]},
			"r2": {"description": "Deep blue", "colors": ["#1A5276"]},
			"r3": {"description": "Green then brown", "colors": ["#196F3D"]},
			"r4": {"description": "No reaction", "colors": []},
			"r5": {"description": "Slow fizzing", "colors": []},
			"r6": {"description": "Cloudy white", "colors": []}
		},
		"beta": {
			"r1": {"description": "Purple to black", "colors": ["#5B2C6F"]},
			"r2": {"description": "Bright orange", "colors": ["#E67E22"]}
		}
	}
}`

type fakeAnnouncer struct {
	mu       sync.Mutex
	clues    []string
	timeouts []*EndReport
}

func (a *fakeAnnouncer) ClueRevealed(_ context.Context, _, clue string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clues = append(a.clues, clue)
}

func (a *fakeAnnouncer) RoundTimedOut(_ context.Context, report *EndReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeouts = append(a.timeouts, report)
}

func (a *fakeAnnouncer) clueCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clues)
}

func (a *fakeAnnouncer) timeoutReports() []*EndReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*EndReport, len(a.timeouts))
	copy(out, a.timeouts)
	return out
}

type fakePicker struct {
	schematic structure.Schematic
	err       error
}

func (p *fakePicker) Pick() (structure.Schematic, error) {
	return p.schematic, p.err
}

type fakePager struct {
	url string
	err error
}

func (p fakePager) SubstancePage(_ context.Context, name string) (pnwiki.Substance, error) {
	if p.err != nil {
		return pnwiki.Substance{}, p.err
	}
	return pnwiki.Substance{Name: name, URL: p.url}, nil
}

type fixture struct {
	svc      *Service
	registry *game.Registry
	scores   *scoreboard.Scoreboard
	announce *fakeAnnouncer
}

func newFixture(t *testing.T, secret string, cfg *Config) *fixture {
	t.Helper()

	db, err := protest.Parse([]byte(testDataset))
	require.NoError(t, err)

	scores := scoreboard.New(scoreboard.NewFileStore(t.TempDir()), nil)
	require.NoError(t, scores.Load())

	registry := game.NewRegistry()
	announce := &fakeAnnouncer{}
	picker := &fakePicker{schematic: structure.Schematic{Name: secret}}

	return &fixture{
		svc:      New(registry, scores, picker, db, fakePager{url: "https://wiki.test/p"}, announce, cfg),
		registry: registry,
		scores:   scores,
		announce: announce,
	}
}

var (
	alice = model.Player{ID: "1", Name: "alice"}
	bob   = model.Player{ID: "2", Name: "bob"}
)

func TestRevealRoundLifecycle(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	sess, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)
	require.NotNil(t, f.registry.Get("C"))

	res := f.svc.HandleGuess("C", bob, "aceta")
	require.NotNil(t, res)
	assert.False(t, res.Correct)
	assert.Nil(t, res.Report)
	assert.Equal(t, 1, sess.Game().Tries())
	assert.Same(t, sess, f.registry.Get("C"))

	res = f.svc.HandleGuess("C", bob, "Aspirin!")
	require.NotNil(t, res)
	assert.True(t, res.Correct)
	require.NotNil(t, res.Report)

	// Second attempt halves the seven-letter reward.
	assert.Equal(t, game.EndedWon, res.Report.Reason)
	assert.Equal(t, 3.5, res.Report.Reward)
	assert.Equal(t, "Aspirin", res.Report.Solution)
	assert.Equal(t, bob.ID, res.Report.Winner.ID)
	assert.Equal(t, "https://wiki.test/p", res.Report.PageURL)

	require.NotNil(t, res.Report.Profile)
	assert.Equal(t, 3.5, res.Report.Profile.Balance)
	assert.Equal(t, 1, res.Report.Profile.Wins[model.VariantStructure])
	assert.True(t, res.Report.Profile.Found.Has("Aspirin"))

	assert.Nil(t, f.registry.Get("C"))
	assert.Zero(t, f.registry.Count())
}

func TestFirstTryRewardIsFull(t *testing.T) {
	f := newFixture(t, "Metoprolol", nil)

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	res := f.svc.HandleGuess("C", alice, "metoprolol")
	require.NotNil(t, res)
	require.NotNil(t, res.Report)
	assert.Equal(t, 10.0, res.Report.Reward)
}

func TestSecondStartIsRejected(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	sess, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	_, err = f.svc.StartStructure("C", bob)
	assert.ErrorIs(t, err, game.ErrGameRunning)
	_, err = f.svc.StartReagents("C", bob)
	assert.ErrorIs(t, err, game.ErrGameRunning)

	// The original session is untouched by rejected starts.
	assert.Same(t, sess, f.registry.Get("C"))
	assert.Equal(t, 1, f.registry.Count())
}

func TestStartStructureWhilePoolWarmsUp(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)
	f.svc.pool = &fakePicker{err: structure.ErrNotReady}

	_, err := f.svc.StartStructure("C", alice)
	assert.ErrorIs(t, err, structure.ErrNotReady)
	assert.Zero(t, f.registry.Count())
}

func TestDeductionRoundTimesOut(t *testing.T) {
	f := newFixture(t, "Aspirin", &Config{ReagentsTimeout: 30 * time.Millisecond})

	sess, err := f.svc.StartReagents("C", alice)
	require.NoError(t, err)
	require.Equal(t, "Alphaine", sess.Solution())

	require.Eventually(t, func() bool {
		return len(f.announce.timeoutReports()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	report := f.announce.timeoutReports()[0]
	assert.Equal(t, game.EndedTimeout, report.Reason)
	assert.Equal(t, "Alphaine", report.Solution)
	assert.Nil(t, report.Winner)
	assert.Zero(t, report.Reward)
	assert.Nil(t, f.registry.Get("C"))

	// A correct guess arriving after the timeout is a no-op.
	res := f.svc.HandleGuess("C", bob, "alphaine")
	assert.Nil(t, res)
	assert.Zero(t, f.scores.Profile(bob.ID).Balance)
}

func TestRevealRoundExhaustsIntoTimeout(t *testing.T) {
	f := newFixture(t, "Metoprolol", &Config{ClueInterval: 15 * time.Millisecond})

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.announce.timeoutReports()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	// Ten guessable letters reveal two at a time: four clue messages,
	// then the exhausting fifth tick ends the round instead.
	assert.Equal(t, 4, f.announce.clueCount())

	report := f.announce.timeoutReports()[0]
	assert.Equal(t, game.EndedTimeout, report.Reason)
	assert.Equal(t, "Metoprolol", report.Solution)
	assert.Nil(t, f.registry.Get("C"))
}

func TestConcurrentCorrectGuessesAwardOnce(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	const guessers = 16
	var wg sync.WaitGroup
	reports := make(chan *EndReport, guessers)
	for i := 0; i < guessers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := f.svc.HandleGuess("C", bob, "aspirin"); res != nil && res.Report != nil {
				reports <- res.Report
			}
		}()
	}
	wg.Wait()
	close(reports)

	var won []*EndReport
	for r := range reports {
		won = append(won, r)
	}
	require.Len(t, won, 1, "exactly one guesser may commit the win")
	assert.Equal(t, won[0].Reward, f.scores.Profile(bob.ID).Balance)
}

func TestDeductionCompareFeedback(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	sess, err := f.svc.StartReagents("C", alice)
	require.NoError(t, err)

	res := f.svc.HandleGuess("C", bob, "is it betadol?")
	require.NotNil(t, res)
	assert.False(t, res.Correct)
	require.NotNil(t, res.Comparison)
	assert.Equal(t, "beta", res.Comparison.Substance.ID)
	assert.Same(t, sess, f.registry.Get("C"), "feedback never ends the round")

	res = f.svc.HandleGuess("C", bob, "complete gibberish")
	require.NotNil(t, res)
	assert.Nil(t, res.Comparison)
}

func TestTestReagentRouting(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	_, _, err := f.svc.TestReagent("C", "r1")
	assert.ErrorIs(t, err, game.ErrNoSession)

	_, err = f.svc.StartReagents("C", alice)
	require.NoError(t, err)

	clue, _, err := f.svc.TestReagent("C", "r1")
	require.NoError(t, err)
	assert.Equal(t, "Marquis", clue.Reagent)

	_, _, err = f.svc.TestReagent("C", "r1")
	assert.ErrorIs(t, err, reagents.ErrAlreadyTested)

	_, _, err = f.svc.TestReagent("C", "bogus")
	assert.ErrorIs(t, err, reagents.ErrUnknownReagent)
}

func TestTestReagentOnRevealRound(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	_, _, err = f.svc.TestReagent("C", "r1")
	assert.ErrorIs(t, err, ErrNotDeduction)
}

func TestEndPermissions(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	_, err := f.svc.End("C", alice, false)
	assert.ErrorIs(t, err, game.ErrNoSession)

	_, err = f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	_, err = f.svc.End("C", bob, false)
	assert.ErrorIs(t, err, game.ErrNotAllowed)
	require.NotNil(t, f.registry.Get("C"))

	report, err := f.svc.End("C", alice, false)
	require.NoError(t, err)
	assert.Equal(t, game.EndedManual, report.Reason)
	require.NotNil(t, report.EndedBy)
	assert.Equal(t, alice.ID, report.EndedBy.ID)
	assert.Nil(t, report.Winner)
	assert.Nil(t, f.registry.Get("C"))

	_, err = f.svc.End("C", alice, false)
	assert.ErrorIs(t, err, game.ErrNoSession)
}

func TestEndWithChannelPermission(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	report, err := f.svc.End("C", bob, true)
	require.NoError(t, err)
	assert.Equal(t, game.EndedManual, report.Reason)
}

func TestLinkLookupFailureDegrades(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)
	f.svc.wiki = fakePager{err: errors.New("wiki is down")}

	_, err := f.svc.StartStructure("C", alice)
	require.NoError(t, err)

	res := f.svc.HandleGuess("C", alice, "aspirin")
	require.NotNil(t, res)
	require.NotNil(t, res.Report, "the round must end even without a link")
	assert.Empty(t, res.Report.PageURL)
}

func TestShutdownSweepsSessionsSilently(t *testing.T) {
	f := newFixture(t, "Aspirin", nil)

	s1, err := f.svc.StartStructure("C1", alice)
	require.NoError(t, err)
	s2, err := f.svc.StartReagents("C2", bob)
	require.NoError(t, err)

	f.svc.Shutdown()

	assert.Zero(t, f.registry.Count())
	assert.Empty(t, f.announce.timeoutReports())
	assert.Zero(t, f.scores.Profile(alice.ID).Balance)

	require.Eventually(t, func() bool {
		return s1.ActiveTasks() == 0 && s2.ActiveTasks() == 0
	}, 5*time.Second, 5*time.Millisecond)
}
