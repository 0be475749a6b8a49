package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinefuse/models"
)

const movieLensSourceName = "movielens"

// movieLensClient talks to a self-hosted proxy in front of the MovieLens
// ratings dataset. Its records are sparse (title, year, genres, community
// rating) but the rating signal is the whole point: an average over a large
// rating corpus rather than a single editorial score.
//
// Native ratings are on a 5-star scale and are renormalized to 0-10 before
// the record leaves this client.
type movieLensClient struct {
	baseURL string
	httpc   *http.Client
}

func newMovieLensClient(baseURL string, timeout time.Duration) *movieLensClient {
	return &movieLensClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *movieLensClient) Name() string  { return movieLensSourceName }
func (c *movieLensClient) Priority() int { return 30 }

func (c *movieLensClient) isConfigured() bool { return c.baseURL != "" }

type movieLensMovie struct {
	MovieID     int64    `json:"movieId"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	AvgRating   float64  `json:"avgRating"` // 5-star scale
	RatingCount int      `json:"ratingCount"`
	IMDBID      string   `json:"imdbId"`
	TMDBID      string   `json:"tmdbId"`
	Year        int      `json:"year"`
}

// FetchByID accepts a native MovieLens id, an IMDb id (the proxy mirrors the
// dataset's links table), or a free-text title.
func (c *movieLensClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}

	var endpoint string
	switch {
	case isNumericID(id):
		endpoint = fmt.Sprintf("%s/movies/%s", c.baseURL, url.PathEscape(id))
	case isIMDBID(id):
		endpoint = fmt.Sprintf("%s/movies/by-imdb/%s", c.baseURL, url.PathEscape(id))
	case isWikidataID(id):
		return nil, nil
	default:
		results, err := c.Search(ctx, id)
		if err != nil || len(results) == 0 {
			return nil, nil
		}
		endpoint = fmt.Sprintf("%s/movies/%s", c.baseURL, url.PathEscape(results[0].ID))
	}

	var movie movieLensMovie
	if err := getJSON(ctx, c.httpc, endpoint, nil, &movie); err != nil {
		if !isNotFound(err) {
			log.Printf("[movielens] fetch %s failed: %v", id, err)
		}
		return nil, nil
	}
	if movie.MovieID == 0 {
		return nil, nil
	}

	rec := &models.MovieRecord{
		ID:          fmt.Sprintf("%d", movie.MovieID),
		Title:       movie.Title,
		Genres:      movie.Genres,
		Rating:      movie.AvgRating * 2, // 5-star native scale
		VoteCount:   movie.RatingCount,
		ExternalIDs: map[string]string{"movieLens": fmt.Sprintf("%d", movie.MovieID)},
		Source:      movieLensSourceName,
	}
	if movie.Year > 0 {
		rec.ReleaseDate = fmt.Sprintf("%d", movie.Year)
	}
	if movie.IMDBID != "" {
		imdb := movie.IMDBID
		if !strings.HasPrefix(imdb, "tt") {
			imdb = "tt" + imdb
		}
		rec.ExternalIDs["imdb"] = imdb
	}
	if movie.TMDBID != "" {
		rec.ExternalIDs["tmdb"] = movie.TMDBID
	}
	return rec, nil
}

func (c *movieLensClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() || strings.TrimSpace(query) == "" {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("q", query)

	var resp struct {
		Results []movieLensMovie `json:"results"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[movielens] search %q failed: %v", query, err)
		return []models.BasicMovieInfo{}, nil
	}

	infos := make([]models.BasicMovieInfo, 0, len(resp.Results))
	for _, m := range resp.Results {
		info := models.BasicMovieInfo{
			ID:        fmt.Sprintf("%d", m.MovieID),
			Title:     m.Title,
			Rating:    m.AvgRating * 2,
			MediaType: "movie",
		}
		if m.Year > 0 {
			info.ReleaseDate = fmt.Sprintf("%d", m.Year)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CheckAvailability hits the proxy's status endpoint, which is cheaper than
// a search round-trip.
func (c *movieLensClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	return getJSON(ctx, c.httpc, c.baseURL+"/status", nil, nil) == nil
}

// PreferredID re-queries by the dataset's own id when known.
func (c *movieLensClient) PreferredID(rec *models.MovieRecord) string {
	if id := rec.ExternalIDs["movieLens"]; id != "" {
		return id
	}
	return rec.ExternalIDs["imdb"]
}
