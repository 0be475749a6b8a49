package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"cinefuse/config"
	"cinefuse/models"
)

// upcomingSearchThreshold is the result count below which a search is
// augmented with the primary catalog's upcoming releases.
const upcomingSearchThreshold = 5

// minUpcomingQueryLen guards the upcoming augmentation against one- and
// two-character queries that would match half the feed.
const minUpcomingQueryLen = 3

type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateReady
)

// Service routes metadata lookups across all registered sources in priority
// order, falling back on failure and merging secondary data during
// enhancement. No provider error ever escapes a public method: the worst
// observable outcome is an absent record or an empty result list.
type Service struct {
	timeout time.Duration
	sources []Source // sorted by priority, registration order breaks ties

	primary Source // first source with an upcoming feed; force-kept available
	local   Source // first override store; force-kept available

	mu        sync.Mutex
	state     initState
	initDone  chan struct{}
	available []Source
	status    string
}

// NewService builds the default source lineup from configuration. Sources
// with missing credentials stay registered; the availability probe will
// simply report them unavailable.
func NewService(cfg config.Config) *Service {
	return NewServiceWithSources(cfg.RequestTimeout,
		newLocalSource(),
		newTMDBClient(cfg.TMDBAPIKey, cfg.Language, cfg.RequestTimeout),
		newOMDBClient(cfg.OMDBAPIKey, cfg.RequestTimeout),
		newMovieLensClient(cfg.MovieLensBaseURL, cfg.RequestTimeout),
		newFanartClient(cfg.FanartAPIKey, cfg.RequestTimeout),
		newTraktClient(cfg.TraktClientID, cfg.RequestTimeout),
		newWikidataClient(cfg.WikidataEnabled, cfg.Language, cfg.RequestTimeout),
		newYouTubeClient(cfg.YouTubeAPIKey, cfg.RequestTimeout),
	)
}

// NewServiceWithSources wires an explicit source set, mainly for tests.
func NewServiceWithSources(timeout time.Duration, sources ...Source) *Service {
	sorted := append([]Source(nil), sources...)
	// Insertion sort: stable, so registration order breaks priority ties.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() < sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	s := &Service{
		timeout: timeout,
		sources: sorted,
		status:  "uninitialized",
	}
	for _, src := range sorted {
		if _, ok := src.(upcomingLister); ok && s.primary == nil {
			s.primary = src
		}
		if _, ok := src.(overrideStore); ok && s.local == nil {
			s.local = src
		}
	}
	return s
}

// ensureReady runs the one-time availability probe round. The first caller
// performs the probes; concurrent callers block on the same in-flight round
// instead of starting their own.
func (s *Service) ensureReady(ctx context.Context) {
	s.mu.Lock()
	switch s.state {
	case stateReady:
		s.mu.Unlock()
		return
	case stateInitializing:
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	s.state = stateInitializing
	s.initDone = make(chan struct{})
	s.status = fmt.Sprintf("initializing: probing %d sources", len(s.sources))
	done := s.initDone
	s.mu.Unlock()

	s.initialize(ctx)
	close(done)
}

// initialize probes every source concurrently and records the available set.
// Initialization never fails: whatever happens, the service reaches Ready
// with at least the primary catalog and the local override store in rotation
// (losing both would leave nothing to serve from).
func (s *Service) initialize(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metadata] initialization panic recovered: %v", r)
			s.finishInit(s.fallbackSources())
		}
	}()

	results := make([]bool, len(s.sources))
	if len(s.sources) > 0 {
		p := pool.New().WithMaxGoroutines(len(s.sources))
		for i, src := range s.sources {
			i, src := i, src
			p.Go(func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[metadata] availability probe for %s panicked: %v", src.Name(), r)
						results[i] = false
					}
				}()
				results[i] = src.CheckAvailability(ctx)
			})
		}
		p.Wait()
	}

	available := make([]Source, 0, len(s.sources))
	for i, src := range s.sources {
		if results[i] || src == s.primary || src == s.local {
			available = append(available, src)
		}
		if !results[i] {
			log.Printf("[metadata] source %s unavailable", src.Name())
		}
	}
	if len(available) == 0 && len(s.sources) > 0 {
		available = s.sources[:1]
	}
	s.finishInit(available)
}

func (s *Service) finishInit(available []Source) {
	names := make([]string, 0, len(available))
	for _, src := range available {
		names = append(names, src.Name())
	}

	s.mu.Lock()
	s.available = available
	s.state = stateReady
	s.status = fmt.Sprintf("ready: %d/%d sources available (%s)",
		len(available), len(s.sources), strings.Join(names, ", "))
	s.mu.Unlock()

	log.Printf("[metadata] %s", s.status)
}

// fallbackSources is the degraded available set used when initialization
// blows up: primary catalog plus local overrides, or failing that the first
// registered source.
func (s *Service) fallbackSources() []Source {
	available := make([]Source, 0, 2)
	for _, src := range s.sources {
		if src == s.primary || src == s.local {
			available = append(available, src)
		}
	}
	if len(available) == 0 && len(s.sources) > 0 {
		available = s.sources[:1]
	}
	return available
}

func (s *Service) availableSources() []Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// callCtx derives an independently cancellable, deadline-bounded context for
// a single outbound source call, on top of each client's own HTTP timeout.
func (s *Service) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Warm triggers the one-time availability probe round ahead of traffic.
// Calls arriving while the round is in flight share it.
func (s *Service) Warm(ctx context.Context) {
	s.ensureReady(ctx)
}

// InitializationStatus reports a human-readable progress line. It never
// triggers initialization itself, so it is safe to poll.
func (s *Service) InitializationStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// MovieMetadata returns the first record any available source produces for
// the identifier, in priority order, unmerged but sanitized. A nil record
// means every source either failed or knows nothing about the identifier.
func (s *Service) MovieMetadata(ctx context.Context, id string, opts FetchOptions) *models.MovieRecord {
	rec, _ := s.fetchPrimary(ctx, id, opts)
	return Sanitize(rec)
}

// fetchPrimary walks the fallback chain and reports which source won.
func (s *Service) fetchPrimary(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, string) {
	s.ensureReady(ctx)

	for _, src := range s.availableSources() {
		callCtx, cancel := s.callCtx(ctx)
		rec, err := src.FetchByID(callCtx, id, opts)
		cancel()
		if err != nil {
			log.Printf("[metadata] %s fetch %s failed: %v", src.Name(), id, err)
			continue
		}
		if rec != nil {
			return rec, src.Name()
		}
	}
	return nil, ""
}

// EnhancedMetadata fetches the primary record and then folds in every other
// available source's view of the same movie, re-querying each by the best
// cross-reference identifier it advertises. Secondary failures are skipped.
// The result passes through Sanitize before it is returned.
func (s *Service) EnhancedMetadata(ctx context.Context, id string, opts FetchOptions) *models.MovieRecord {
	primary, producer := s.fetchPrimary(ctx, id, opts)
	if primary == nil {
		return nil
	}

	for _, src := range s.availableSources() {
		if src.Name() == producer {
			continue
		}

		refID := id
		if xref, ok := src.(crossReferencer); ok {
			if preferred := xref.PreferredID(primary); preferred != "" {
				refID = preferred
			}
		}

		callCtx, cancel := s.callCtx(ctx)
		secondary, err := src.FetchByID(callCtx, refID, opts)
		cancel()
		if err != nil {
			log.Printf("[metadata] enhancement via %s failed: %v", src.Name(), err)
			continue
		}
		if secondary == nil {
			continue
		}
		MergeRecords(primary, secondary)
	}

	return Sanitize(primary)
}

// SearchMovies returns the first non-empty result set in priority order.
func (s *Service) SearchMovies(ctx context.Context, query string) []models.BasicMovieInfo {
	s.ensureReady(ctx)

	for _, src := range s.availableSources() {
		callCtx, cancel := s.callCtx(ctx)
		results, err := src.Search(callCtx, query)
		cancel()
		if err != nil {
			log.Printf("[metadata] %s search %q failed: %v", src.Name(), query, err)
			continue
		}
		if len(results) > 0 {
			return results
		}
	}
	return []models.BasicMovieInfo{}
}

// SearchMoviesWithUpcoming runs a regular search and, when it comes back
// thin, tops it up with title-matching entries from the primary catalog's
// upcoming-releases feed, deduplicated against what was already found.
func (s *Service) SearchMoviesWithUpcoming(ctx context.Context, query string) []models.BasicMovieInfo {
	results := s.SearchMovies(ctx, query)
	if len(results) >= upcomingSearchThreshold || len(query) < minUpcomingQueryLen {
		return results
	}

	lister, ok := s.primary.(upcomingLister)
	if !ok {
		return results
	}
	callCtx, cancel := s.callCtx(ctx)
	upcoming, err := lister.Upcoming(callCtx)
	cancel()
	if err != nil {
		log.Printf("[metadata] upcoming fetch failed: %v", err)
		return results
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.ID] = true
	}
	needle := foldText(query)
	for _, u := range upcoming {
		if seen[u.ID] || !strings.Contains(foldText(u.Title), needle) {
			continue
		}
		seen[u.ID] = true
		results = append(results, u)
	}
	return results
}

// UpsertOverride stores a curated record in the local override source and
// returns the stored copy (with a minted identifier when the input had
// none). Returns nil when no override store is registered.
func (s *Service) UpsertOverride(ctx context.Context, rec models.MovieRecord) *models.MovieRecord {
	s.ensureReady(ctx)

	store, ok := s.local.(overrideStore)
	if !ok {
		return nil
	}
	stored := store.Upsert(rec)
	return &stored
}

// RemoveOverride deletes a curated record, reporting whether it existed.
func (s *Service) RemoveOverride(ctx context.Context, id string) bool {
	s.ensureReady(ctx)

	store, ok := s.local.(overrideStore)
	if !ok {
		return false
	}
	return store.Remove(id)
}
