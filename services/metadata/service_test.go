package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinefuse/models"
)

// stubSource is a scriptable in-memory Source for orchestrator tests.
type stubSource struct {
	name      string
	priority  int
	available bool

	records       map[string]*models.MovieRecord
	searchResults []models.BasicMovieInfo
	fetchErr      error
	searchErr     error

	mu         sync.Mutex
	probeCalls int32
	fetchIDs   []string
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Priority() int { return s.priority }

func (s *stubSource) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	s.mu.Lock()
	s.fetchIDs = append(s.fetchIDs, id)
	s.mu.Unlock()

	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (s *stubSource) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResults, nil
}

func (s *stubSource) CheckAvailability(ctx context.Context) bool {
	atomic.AddInt32(&s.probeCalls, 1)
	return s.available
}

func (s *stubSource) fetchedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetchIDs...)
}

// stubPrimary adds the upcoming-releases capability on top of stubSource so
// the orchestrator treats it as the primary catalog.
type stubPrimary struct {
	stubSource
	upcoming []models.BasicMovieInfo
}

func (s *stubPrimary) Upcoming(ctx context.Context) ([]models.BasicMovieInfo, error) {
	return s.upcoming, nil
}

// stubXref is a stubSource that advertises a cross-reference key.
type stubXref struct {
	stubSource
	xrefKey string
}

func (s *stubXref) PreferredID(rec *models.MovieRecord) string {
	return rec.ExternalIDs[s.xrefKey]
}

func TestFetchFallsThroughInPriorityOrder(t *testing.T) {
	first := &stubSource{name: "first", priority: 1, available: true}
	second := &stubSource{name: "second", priority: 2, available: true, fetchErr: errors.New("boom")}
	third := &stubSource{name: "third", priority: 3, available: true,
		records: map[string]*models.MovieRecord{
			"42": {ID: "42", Title: "Blade Runner", Source: "third"},
		}}

	// Register out of order; the service must sort by priority.
	svc := NewServiceWithSources(time.Second, third, first, second)

	rec := svc.MovieMetadata(context.Background(), "42", FetchOptions{})

	require.NotNil(t, rec)
	assert.Equal(t, "Blade Runner", rec.Title)
	assert.Equal(t, "third", rec.Source, "result is returned unmerged")
	assert.Equal(t, []string{"42"}, first.fetchedIDs(), "higher priority tried first")
	assert.Equal(t, []string{"42"}, second.fetchedIDs(), "error does not stop the chain")
}

func TestFetchUnknownIDReturnsAbsent(t *testing.T) {
	a := &stubSource{name: "a", priority: 1, available: true, fetchErr: errors.New("down")}
	b := &stubSource{name: "b", priority: 2, available: true}

	svc := NewServiceWithSources(time.Second, a, b)

	rec := svc.MovieMetadata(context.Background(), "no-such-movie", FetchOptions{})
	assert.Nil(t, rec, "exhausted sources surface as absent, never as an error")
}

func TestFetchSanitizesWinningRecord(t *testing.T) {
	sparse := &stubSource{name: "sparse", priority: 1, available: true,
		records: map[string]*models.MovieRecord{
			"1": {ID: "1", Title: "Dune", Source: "sparse"},
		}}

	svc := NewServiceWithSources(time.Second, sparse)

	rec := svc.MovieMetadata(context.Background(), "1", FetchOptions{})

	require.NotNil(t, rec)
	assert.NotNil(t, rec.Genres, "collections must leave the service as empty slices, never nil")
	assert.NotNil(t, rec.Cast)
	assert.NotNil(t, rec.Videos)
	assert.NotNil(t, rec.ExternalIDs)
}

func TestPriorityTieBreaksOnRegistrationOrder(t *testing.T) {
	a := &stubSource{name: "a", priority: 5, available: true,
		records: map[string]*models.MovieRecord{"1": {ID: "1", Title: "From A", Source: "a"}}}
	b := &stubSource{name: "b", priority: 5, available: true,
		records: map[string]*models.MovieRecord{"1": {ID: "1", Title: "From B", Source: "b"}}}

	svc := NewServiceWithSources(time.Second, a, b)

	rec := svc.MovieMetadata(context.Background(), "1", FetchOptions{})
	require.NotNil(t, rec)
	assert.Equal(t, "From A", rec.Title)
}

func TestInitializationForcesPrimaryAndLocal(t *testing.T) {
	// Every probe fails, including the primary's.
	primary := &stubPrimary{stubSource: stubSource{name: "catalog", priority: 10, available: false}}
	extra := &stubSource{name: "extra", priority: 20, available: false}
	local := newLocalSource()

	svc := NewServiceWithSources(time.Second, local, primary, extra)

	results := svc.SearchMovies(context.Background(), "inception")

	require.Len(t, results, 1, "seeded override must be searchable with zero providers up")
	assert.Equal(t, "Inception", results[0].Title)
	assert.Equal(t, "custom-1", results[0].ID)

	status := svc.InitializationStatus()
	assert.Contains(t, status, "ready")
	assert.Contains(t, status, "local")
	assert.Contains(t, status, "catalog")
	assert.NotContains(t, status, "extra")
}

func TestInitializationRunsOnce(t *testing.T) {
	a := &stubSource{name: "a", priority: 1, available: true,
		searchResults: []models.BasicMovieInfo{{ID: "1", Title: "Heat"}}}
	b := &stubSource{name: "b", priority: 2, available: true}

	svc := NewServiceWithSources(time.Second, a, b)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.SearchMovies(context.Background(), "heat")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&a.probeCalls), "probe round must run exactly once")
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.probeCalls))
}

func TestStatusDoesNotTriggerInitialization(t *testing.T) {
	a := &stubSource{name: "a", priority: 1, available: true}
	svc := NewServiceWithSources(time.Second, a)

	assert.Equal(t, "uninitialized", svc.InitializationStatus())
	assert.Zero(t, atomic.LoadInt32(&a.probeCalls))
}

func TestSearchFallsBackToNextNonEmpty(t *testing.T) {
	empty := &stubSource{name: "empty", priority: 1, available: true}
	failing := &stubSource{name: "failing", priority: 2, available: true, searchErr: errors.New("timeout")}
	full := &stubSource{name: "full", priority: 3, available: true,
		searchResults: []models.BasicMovieInfo{{ID: "603", Title: "The Matrix"}}}

	svc := NewServiceWithSources(time.Second, empty, failing, full)

	results := svc.SearchMovies(context.Background(), "matrix")
	require.Len(t, results, 1)
	assert.Equal(t, "The Matrix", results[0].Title)
}

func TestSearchWithUpcomingAugmentsThinResults(t *testing.T) {
	primary := &stubPrimary{
		stubSource: stubSource{
			name:      "catalog",
			priority:  10,
			available: true,
			searchResults: []models.BasicMovieInfo{
				{ID: "438631", Title: "Dune"},
				{ID: "693134", Title: "Dune: Part Two"},
			},
		},
		upcoming: []models.BasicMovieInfo{
			{ID: "900000", Title: "Dune: Part Three"},
			{ID: "693134", Title: "Dune: Part Two"}, // already found
			{ID: "555555", Title: "Completely Unrelated"},
		},
	}

	svc := NewServiceWithSources(time.Second, primary)

	results := svc.SearchMoviesWithUpcoming(context.Background(), "dune")

	require.Len(t, results, 3)
	assert.Equal(t, "Dune: Part Three", results[2].Title,
		"matching upcoming entries are appended after regular results")
}

func TestSearchWithUpcomingSkipsShortQueries(t *testing.T) {
	primary := &stubPrimary{
		stubSource: stubSource{name: "catalog", priority: 10, available: true,
			searchResults: []models.BasicMovieInfo{{ID: "1", Title: "Up"}}},
		upcoming: []models.BasicMovieInfo{{ID: "2", Title: "Upcoming Up Sequel"}},
	}

	svc := NewServiceWithSources(time.Second, primary)

	results := svc.SearchMoviesWithUpcoming(context.Background(), "up")
	assert.Len(t, results, 1, "queries under three characters never consult the upcoming feed")
}

// deadlineTrackingPrimary records whether Upcoming was called with a
// deadline-bounded context.
type deadlineTrackingPrimary struct {
	stubSource
	sawDeadline atomic.Bool
}

func (s *deadlineTrackingPrimary) Upcoming(ctx context.Context) ([]models.BasicMovieInfo, error) {
	_, ok := ctx.Deadline()
	s.sawDeadline.Store(ok)
	return []models.BasicMovieInfo{{ID: "900000", Title: "Dune: Part Three"}}, nil
}

func TestSearchWithUpcomingBoundsTheFeedCall(t *testing.T) {
	primary := &deadlineTrackingPrimary{
		stubSource: stubSource{name: "catalog", priority: 10, available: true},
	}

	svc := NewServiceWithSources(time.Second, primary)

	results := svc.SearchMoviesWithUpcoming(context.Background(), "dune")

	require.Len(t, results, 1)
	assert.True(t, primary.sawDeadline.Load(),
		"the upcoming feed call must carry a per-call deadline like every other outbound call")
}

func TestEnhancementFillsWithoutClobbering(t *testing.T) {
	local := newLocalSource()
	secondary := &stubXref{
		stubSource: stubSource{
			name:      "secondary",
			priority:  20,
			available: true,
			records: map[string]*models.MovieRecord{
				"tt1375666": {
					ID:          "tt1375666",
					Title:       "Inception",
					Cast:        []models.CastMember{},
					Budget:      160000000,
					Tagline:     "Your mind is the scene of the crime.",
					ExternalIDs: map[string]string{"imdb": "tt1375666"},
					Source:      "secondary",
				},
			},
		},
		xrefKey: "imdb",
	}

	svc := NewServiceWithSources(time.Second, local, secondary)

	rec := svc.EnhancedMetadata(context.Background(), "custom-1", FetchOptions{IncludeCast: true})

	require.NotNil(t, rec)
	require.Len(t, rec.Cast, 3, "override cast must survive the merge unchanged")
	assert.Equal(t, "Leonardo DiCaprio", rec.Cast[0].Name)
	assert.Equal(t, int64(160000000), rec.Budget, "missing budget is filled from the secondary source")
	assert.Equal(t, "local, secondary", rec.Source)
	assert.Equal(t, []string{"tt1375666"}, secondary.fetchedIDs(),
		"secondary is re-queried by the cross-reference id, not the original input")

	// Sanitizer ran: no nil collections on the way out.
	assert.NotNil(t, rec.Videos)
	assert.NotNil(t, rec.Keywords)
}

func TestEnhancementAbsentPrimaryStaysAbsent(t *testing.T) {
	a := &stubSource{name: "a", priority: 1, available: true}
	svc := NewServiceWithSources(time.Second, a)

	assert.Nil(t, svc.EnhancedMetadata(context.Background(), "nothing", FetchOptions{}))
}

func TestOverridePassthroughs(t *testing.T) {
	local := newLocalSource()
	svc := NewServiceWithSources(time.Second, local)
	ctx := context.Background()

	stored := svc.UpsertOverride(ctx, models.MovieRecord{Title: "Stalker", ReleaseDate: "1979-05-25"})
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.ID, "an identifier is minted when absent")
	assert.Equal(t, "local", stored.Source)

	rec := svc.MovieMetadata(ctx, stored.ID, FetchOptions{})
	require.NotNil(t, rec)
	assert.Equal(t, "Stalker", rec.Title)

	assert.True(t, svc.RemoveOverride(ctx, stored.ID))
	assert.False(t, svc.RemoveOverride(ctx, stored.ID), "second removal reports no entry")
}
