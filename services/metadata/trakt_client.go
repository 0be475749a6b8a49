package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinefuse/models"
)

const (
	traktSourceName = "trakt"
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"
)

// traktClient is the community-curated source. Records come with community
// ratings, genres and taglines maintained by the provider's users.
type traktClient struct {
	clientID string
	baseURL  string
	httpc    *http.Client
}

func newTraktClient(clientID string, timeout time.Duration) *traktClient {
	return &traktClient{
		clientID: clientID,
		baseURL:  traktAPIBaseURL,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *traktClient) Name() string  { return traktSourceName }
func (c *traktClient) Priority() int { return 50 }

func (c *traktClient) isConfigured() bool { return c.clientID != "" }

func (c *traktClient) headers() map[string]string {
	return map[string]string{
		"Content-Type":      "application/json",
		"trakt-api-version": traktAPIVersion,
		"trakt-api-key":     c.clientID,
	}
}

type traktIDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

type traktMovie struct {
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	IDs       traktIDs `json:"ids"`
	Tagline   string   `json:"tagline"`
	Overview  string   `json:"overview"`
	Released  string   `json:"released"`
	Runtime   int      `json:"runtime"`
	Trailer   string   `json:"trailer"`
	Rating    float64  `json:"rating"` // already 0-10
	Votes     int      `json:"votes"`
	Genres    []string `json:"genres"`
	Languages []string `json:"languages"`
}

// FetchByID accepts a trakt numeric id, slug, or IMDb id — the movies
// endpoint resolves all three. Titles fall back to search-then-fetch.
func (c *traktClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}
	if isWikidataID(id) {
		return nil, nil
	}

	// Single-word free text passes through as-is: the movies endpoint
	// accepts slugs, and a one-word title usually is its own slug
	// ("inception" -> inception-2010 redirect). Multi-word titles cannot
	// be slugs, so those go through search first.
	lookup := id
	if !isIMDBID(id) && !isNumericID(id) && strings.ContainsAny(id, " \t") {
		results, err := c.Search(ctx, id)
		if err != nil || len(results) == 0 {
			return nil, nil
		}
		lookup = results[0].ID
	}

	var movie traktMovie
	endpoint := fmt.Sprintf("%s/movies/%s?extended=full", c.baseURL, url.PathEscape(lookup))
	if err := getJSON(ctx, c.httpc, endpoint, c.headers(), &movie); err != nil {
		if !isNotFound(err) {
			log.Printf("[trakt] fetch %s failed: %v", id, err)
		}
		return nil, nil
	}
	if movie.Title == "" {
		return nil, nil
	}

	return c.toRecord(&movie), nil
}

func (c *traktClient) toRecord(m *traktMovie) *models.MovieRecord {
	rec := &models.MovieRecord{
		ID:          strconv.Itoa(m.IDs.Trakt),
		Title:       m.Title,
		Tagline:     m.Tagline,
		Overview:    m.Overview,
		ReleaseDate: m.Released,
		Runtime:     m.Runtime,
		Rating:      m.Rating,
		VoteCount:   m.Votes,
		Genres:      m.Genres,
		Languages:   m.Languages,
		ExternalIDs: map[string]string{},
		Source:      traktSourceName,
	}
	if m.IDs.IMDB != "" {
		rec.ExternalIDs["imdb"] = m.IDs.IMDB
	}
	if m.IDs.TMDB > 0 {
		rec.ExternalIDs["tmdb"] = strconv.Itoa(m.IDs.TMDB)
	}
	if key := youtubeKeyFromURL(m.Trailer); key != "" {
		rec.Videos = []models.VideoRef{{
			ID:   key,
			Key:  key,
			Site: "YouTube",
			Type: "Trailer",
			Name: m.Title + " Trailer",
		}}
	}
	return rec
}

func (c *traktClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() || strings.TrimSpace(query) == "" {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("query", query)

	var resp []struct {
		Type  string     `json:"type"`
		Score float64    `json:"score"`
		Movie traktMovie `json:"movie"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/search/movie?%s", c.baseURL, q.Encode()), c.headers(), &resp)
	if err != nil {
		log.Printf("[trakt] search %q failed: %v", query, err)
		return []models.BasicMovieInfo{}, nil
	}

	infos := make([]models.BasicMovieInfo, 0, len(resp))
	for _, e := range resp {
		if e.Movie.Title == "" {
			continue
		}
		info := models.BasicMovieInfo{
			ID:        strconv.Itoa(e.Movie.IDs.Trakt),
			Title:     e.Movie.Title,
			Rating:    e.Movie.Rating,
			MediaType: "movie",
		}
		if e.Movie.Year > 0 {
			info.ReleaseDate = strconv.Itoa(e.Movie.Year)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CheckAvailability probes the trending feed, which needs only the client id.
func (c *traktClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	endpoint := fmt.Sprintf("%s/movies/trending?limit=1", c.baseURL)
	return getJSON(ctx, c.httpc, endpoint, c.headers(), nil) == nil
}

// PreferredID re-queries by IMDb id; the movies endpoint accepts it natively.
func (c *traktClient) PreferredID(rec *models.MovieRecord) string {
	return rec.ExternalIDs["imdb"]
}

// youtubeKeyFromURL extracts the video key from a youtube.com/watch URL.
func youtubeKeyFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if strings.Contains(u.Host, "youtu.be") {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}
