package metadata

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cinefuse/models"
)

const localSourceName = "local"

// localSource is the curated override store. Entries here outrank every
// network provider, so hand-maintained corrections always win. The store is
// in-memory only and lives for the process lifetime.
type localSource struct {
	mu      sync.RWMutex
	records map[string]models.MovieRecord
}

func newLocalSource() *localSource {
	s := &localSource{records: make(map[string]models.MovieRecord)}
	for _, rec := range seedOverrides() {
		s.records[rec.ID] = rec
	}
	return s
}

func (s *localSource) Name() string  { return localSourceName }
func (s *localSource) Priority() int { return 0 }

// FetchByID matches by exact identifier first, then by folded title so a
// free-text lookup can still hit a curated entry.
func (s *localSource) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[id]; ok {
		out := rec
		return &out, nil
	}
	needle := foldText(id)
	for _, rec := range s.records {
		if foldText(rec.Title) == needle {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *localSource) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	needle := foldText(query)
	if needle == "" {
		return []models.BasicMovieInfo{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := []models.BasicMovieInfo{}
	for _, rec := range s.records {
		if strings.Contains(foldText(rec.Title), needle) {
			infos = append(infos, models.BasicMovieInfo{
				ID:          rec.ID,
				Title:       rec.Title,
				PosterURL:   rec.PosterURL,
				ReleaseDate: rec.ReleaseDate,
				Rating:      rec.Rating,
				MediaType:   "movie",
			})
		}
	}
	return infos, nil
}

// CheckAvailability is constant: the store has no network dependency.
func (s *localSource) CheckAvailability(ctx context.Context) bool { return true }

// Upsert inserts or replaces an override, minting an identifier when the
// record has none and stamping this store as the record's source. The stored
// copy is returned.
func (s *localSource) Upsert(rec models.MovieRecord) models.MovieRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Source = localSourceName

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

// Remove deletes an override, reporting whether an entry existed.
func (s *localSource) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

// seedOverrides returns the entries the store starts with. They double as a
// smoke-test fixture: the service stays usable with zero provider
// credentials configured.
func seedOverrides() []models.MovieRecord {
	return []models.MovieRecord{
		{
			ID:          "custom-1",
			Title:       "Inception",
			Overview:    "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea.",
			ReleaseDate: "2010-07-16",
			Runtime:     148,
			Genres:      []string{"Action", "Science Fiction", "Thriller"},
			Rating:      8.8,
			Director:    "Christopher Nolan",
			Cast: []models.CastMember{
				{ID: "leonardo-dicaprio", Name: "Leonardo DiCaprio", Character: "Dom Cobb"},
				{ID: "joseph-gordon-levitt", Name: "Joseph Gordon-Levitt", Character: "Arthur"},
				{ID: "elliot-page", Name: "Elliot Page", Character: "Ariadne"},
			},
			ExternalIDs: map[string]string{"imdb": "tt1375666", "tmdb": "27205"},
			Source:      localSourceName,
		},
		{
			ID:          "custom-2",
			Title:       "The Matrix",
			Overview:    "A computer hacker learns the true nature of his reality and his role in the war against its controllers.",
			ReleaseDate: "1999-03-31",
			Runtime:     136,
			Genres:      []string{"Action", "Science Fiction"},
			Rating:      8.7,
			Director:    "Lana Wachowski",
			ExternalIDs: map[string]string{"imdb": "tt0133093", "tmdb": "603"},
			Source:      localSourceName,
		},
	}
}
