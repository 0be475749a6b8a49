package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"cinefuse/models"
)

const (
	fanartSourceName = "fanart"
	fanartAPIBaseURL = "https://webservice.fanart.tv/v3"
)

// fanartClient is the poster-image database source. It only ever contributes
// artwork URLs; everything else in its records stays empty and is filled by
// higher-priority sources during enhancement.
type fanartClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newFanartClient(apiKey string, timeout time.Duration) *fanartClient {
	return &fanartClient{
		apiKey:  apiKey,
		baseURL: fanartAPIBaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *fanartClient) Name() string  { return fanartSourceName }
func (c *fanartClient) Priority() int { return 40 }

func (c *fanartClient) isConfigured() bool { return c.apiKey != "" }

type fanartImage struct {
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Likes string `json:"likes"`
}

type fanartMovie struct {
	Name            string        `json:"name"`
	TMDBID          string        `json:"tmdb_id"`
	IMDBID          string        `json:"imdb_id"`
	MoviePoster     []fanartImage `json:"movieposter"`
	MovieBackground []fanartImage `json:"moviebackground"`
}

// FetchByID accepts an IMDb or TMDB id; the endpoint takes either directly.
// Titles cannot be resolved here since the provider has no search.
func (c *fanartClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}
	if !isIMDBID(id) && !isNumericID(id) {
		return nil, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)

	var movie fanartMovie
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/movies/%s?%s", c.baseURL, url.PathEscape(id), q.Encode()), nil, &movie)
	if err != nil {
		if !isNotFound(err) {
			log.Printf("[fanart] fetch %s failed: %v", id, err)
		}
		return nil, nil
	}
	if len(movie.MoviePoster) == 0 && len(movie.MovieBackground) == 0 {
		return nil, nil
	}

	rec := &models.MovieRecord{
		ID:          id,
		Title:       movie.Name,
		ExternalIDs: map[string]string{},
		Source:      fanartSourceName,
	}
	if len(movie.MoviePoster) > 0 {
		rec.PosterURL = movie.MoviePoster[0].URL
	}
	if len(movie.MovieBackground) > 0 {
		rec.BackdropURL = movie.MovieBackground[0].URL
	}
	if movie.IMDBID != "" {
		rec.ExternalIDs["imdb"] = movie.IMDBID
	}
	if movie.TMDBID != "" && movie.TMDBID != "0" {
		rec.ExternalIDs["tmdb"] = movie.TMDBID
	}
	return rec, nil
}

// Search always comes back empty; the provider is lookup-only.
func (c *fanartClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	return []models.BasicMovieInfo{}, nil
}

// CheckAvailability probes the latest-movies feed, the cheapest keyed
// endpoint the provider has.
func (c *fanartClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/movies/latest?%s", c.baseURL, q.Encode()), nil, nil)
	return err == nil
}

// PreferredID wants an IMDb id first; the artwork coverage is better there.
func (c *fanartClient) PreferredID(rec *models.MovieRecord) string {
	if id := rec.ExternalIDs["imdb"]; id != "" {
		return id
	}
	return rec.ExternalIDs["tmdb"]
}
