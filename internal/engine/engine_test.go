package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yannouuuu/hotaru/internal/domain"
	"github.com/yannouuuu/hotaru/internal/kv"
	"github.com/yannouuuu/hotaru/internal/metrics"
	"github.com/yannouuuu/hotaru/internal/store"
)

// tuesdayW10 falls in ISO week 2025-W10 (2025-03-03 .. 2025-03-09).
var tuesdayW10 = time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)

type publishedArchive struct {
	TenantID  string
	ChannelID string
	Entry     domain.ArchiveEntry
}

type mockPublisher struct {
	mu       sync.Mutex
	archives []publishedArchive
	panels   int
	err      error
}

func (m *mockPublisher) PublishArchive(_ context.Context, tenantID, channelID string, entry domain.ArchiveEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives = append(m.archives, publishedArchive{tenantID, channelID, entry})
	return m.err
}

func (m *mockPublisher) RefreshPanel(_ context.Context, _ string, _ domain.PanelRef, _ string, _ []domain.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels++
	return m.err
}

func (m *mockPublisher) archiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.archives)
}

type testEngine struct {
	engine    *Engine
	clock     *clockwork.FakeClock
	store     *store.Store
	publisher *mockPublisher
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	fakeClock := clockwork.NewFakeClockAt(tuesdayW10)
	st := store.New(kv.NewMemory(), "hotaru", fakeClock)
	publisher := &mockPublisher{}
	m := metrics.New(prometheus.NewRegistry())
	return &testEngine{
		engine:    New(st, fakeClock, publisher, m),
		clock:     fakeClock,
		store:     st,
		publisher: publisher,
	}
}

func (te *testEngine) addCandidate(t *testing.T, tenantID, name string) *domain.Candidate {
	t.Helper()
	candidate, err := te.engine.AddCandidate(context.Background(), tenantID, AddCandidateRequest{Name: name, CreatedBy: "tester"})
	require.NoError(t, err)
	return candidate
}

func TestAddCandidate(t *testing.T) {
	te := newTestEngine(t)

	candidate := te.addCandidate(t, "guild-1", "Alan Turing")
	assert.Equal(t, "alan-turing", candidate.ID)
	assert.Equal(t, "Alan Turing", candidate.Name)
	assert.True(t, candidate.Active)
	assert.Equal(t, tuesdayW10, candidate.CreatedAt)
}

func TestAddCandidate_InvalidName(t *testing.T) {
	te := newTestEngine(t)

	for _, name := range []string{"", "  ", "!", "a"} {
		_, err := te.engine.AddCandidate(context.Background(), "guild-1", AddCandidateRequest{Name: name})
		assert.ErrorIs(t, err, domain.ErrInvalidCandidateID, "name %q", name)
	}
}

func TestAddCandidate_DuplicateActiveRejected(t *testing.T) {
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Alan Turing")

	_, err := te.engine.AddCandidate(context.Background(), "guild-1", AddCandidateRequest{Name: "alan TURING"})
	assert.ErrorIs(t, err, domain.ErrCandidateExists)
}

func TestAddCandidate_RecreateAfterDeactivationKeepsStats(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Alan Turing")

	require.NoError(t, te.store.Update(ctx, "guild-1", func(s *domain.TenantState) error {
		s.Candidates["alan-turing"].TotalPoints = 17
		return nil
	}))

	_, err := te.engine.DeactivateCandidate(ctx, "guild-1", "alan-turing")
	require.NoError(t, err)

	recreated, err := te.engine.AddCandidate(ctx, "guild-1", AddCandidateRequest{Name: "Alan Turing", Bio: "mathematician"})
	require.NoError(t, err)
	assert.True(t, recreated.Active)
	assert.Equal(t, 17, recreated.TotalPoints)
	assert.Equal(t, "mathematician", recreated.Bio)
}

func TestDeactivateCandidate_NotFound(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.engine.DeactivateCandidate(context.Background(), "guild-1", "ghost")
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	te.addCandidate(t, "guild-1", "Alan Turing")
	_, err = te.engine.DeactivateCandidate(context.Background(), "guild-1", "alan-turing")
	require.NoError(t, err)

	// Already inactive counts as not found.
	_, err = te.engine.DeactivateCandidate(context.Background(), "guild-1", "alan-turing")
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
}

func TestSubmitVote_WeightsAccumulate(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")
	te.addCandidate(t, "guild-1", "Bob")
	te.addCandidate(t, "guild-1", "Cid")

	_, _, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)
	_, _, err = te.engine.SubmitVote(ctx, "guild-1", "voter-2", []string{"ada", "bob"})
	require.NoError(t, err)
	periodKey, totals, err := te.engine.SubmitVote(ctx, "guild-1", "voter-3", []string{"ada", "bob", "cid"})
	require.NoError(t, err)

	assert.Equal(t, "2025-W10", periodKey)
	assert.Equal(t, map[string]int{"ada": 9, "bob": 4, "cid": 1}, totals)
}

func TestSubmitVote_SecondVoteSamePeriodRejected(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")
	te.addCandidate(t, "guild-1", "Bob")

	_, totals, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)

	_, _, err = te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"bob"})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	// Totals unchanged after the rejected attempt.
	_, standings, err := te.engine.CurrentStandings(ctx, "guild-1")
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "ada", standings[0].CandidateID)
	assert.Equal(t, totals["ada"], standings[0].Points)
}

func TestSubmitVote_UnknownOrInactivePickIsAtomic(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")

	_, _, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada", "ghost"})
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	// No partial state: ada got nothing, the voter can still vote.
	_, totals, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ada": 3}, totals)
}

func TestSubmitVote_DeduplicatesPicksKeepingFirst(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")
	te.addCandidate(t, "guild-1", "Bob")

	_, totals, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada", "ada", "bob"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ada": 3, "bob": 2}, totals)
}

func TestSubmitVote_EmptyBallot(t *testing.T) {
	te := newTestEngine(t)

	_, _, err := te.engine.SubmitVote(context.Background(), "guild-1", "voter-1", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyBallot)

	_, _, err = te.engine.SubmitVote(context.Background(), "guild-1", "voter-1", []string{"", ""})
	assert.ErrorIs(t, err, domain.ErrEmptyBallot)
}

func TestSubmitVote_NewPeriodAllowsVotingAgain(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")

	_, _, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)

	te.clock.Advance(7 * 24 * time.Hour)

	periodKey, totals, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)
	assert.Equal(t, "2025-W11", periodKey)
	// Fresh ledger: only this period's points.
	assert.Equal(t, map[string]int{"ada": 3}, totals)
}

func TestSubmitVote_UpdatesVoterStats(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")

	_, _, err := te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)
	te.clock.Advance(7 * 24 * time.Hour)
	_, _, err = te.engine.SubmitVote(ctx, "guild-1", "voter-1", []string{"ada"})
	require.NoError(t, err)

	voters, err := te.engine.TopVoters(ctx, "guild-1", 5)
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, 2, voters[0].TotalVotes)
	assert.Equal(t, te.clock.Now(), voters[0].LastVoteAt)
}

func TestTenantsAreIsolated(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)
	te.addCandidate(t, "guild-1", "Ada")

	_, _, err := te.engine.SubmitVote(ctx, "guild-2", "voter-1", []string{"ada"})
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
}
