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
	tmdbSourceName   = "tmdb"
	tmdbAPIBaseURL   = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
)

// tmdbClient is the primary catalog source. It carries the richest record
// shape of all providers (credits, videos, similar titles, keywords) and is
// the only source with an upcoming-releases feed.
type tmdbClient struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
}

func newTMDBClient(apiKey, language string, timeout time.Duration) *tmdbClient {
	return &tmdbClient{
		apiKey:   apiKey,
		language: language,
		baseURL:  tmdbAPIBaseURL,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *tmdbClient) Name() string  { return tmdbSourceName }
func (c *tmdbClient) Priority() int { return 10 }

func (c *tmdbClient) isConfigured() bool { return c.apiKey != "" }

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbCastEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type tmdbCrewEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

type tmdbVideo struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

type tmdbSearchEntry struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	MediaType   string  `json:"media_type"`
}

type tmdbMovie struct {
	ID               int64     `json:"id"`
	IMDBID           string    `json:"imdb_id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title"`
	Overview         string    `json:"overview"`
	Tagline          string    `json:"tagline"`
	PosterPath       string    `json:"poster_path"`
	BackdropPath     string    `json:"backdrop_path"`
	ReleaseDate      string    `json:"release_date"`
	Runtime          int       `json:"runtime"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Budget           int64     `json:"budget"`
	Revenue          int64     `json:"revenue"`
	Genres           []tmdbGenre `json:"genres"`
	SpokenLanguages  []struct {
		EnglishName string `json:"english_name"`
	} `json:"spoken_languages"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
	Credits struct {
		Cast []tmdbCastEntry `json:"cast"`
		Crew []tmdbCrewEntry `json:"crew"`
	} `json:"credits"`
	Videos struct {
		Results []tmdbVideo `json:"results"`
	} `json:"videos"`
	Similar struct {
		Results []tmdbSearchEntry `json:"results"`
	} `json:"similar"`
	Keywords struct {
		Keywords []tmdbGenre `json:"keywords"`
	} `json:"keywords"`
	ExternalIDs struct {
		IMDBID     string `json:"imdb_id"`
		WikidataID string `json:"wikidata_id"`
	} `json:"external_ids"`
}

// FetchByID accepts a native TMDB id, an IMDb id (resolved via /find), or a
// free-text title (resolved via search-then-fetch-first).
func (c *tmdbClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}

	tmdbID := id
	switch {
	case isNumericID(id):
		// already native
	case isIMDBID(id):
		resolved, err := c.findByIMDBID(ctx, id)
		if err != nil {
			log.Printf("[tmdb] find by imdb id %s failed: %v", id, err)
			return nil, nil
		}
		if resolved == 0 {
			return nil, nil
		}
		tmdbID = strconv.FormatInt(resolved, 10)
	default:
		results, err := c.Search(ctx, id)
		if err != nil || len(results) == 0 {
			return nil, nil
		}
		tmdbID = results[0].ID
	}

	appends := []string{"external_ids", "keywords"}
	if opts.IncludeCast || opts.IncludeCrew {
		appends = append(appends, "credits")
	}
	if opts.IncludeVideos {
		appends = append(appends, "videos")
	}
	if opts.IncludeSimilar {
		appends = append(appends, "similar")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.requestLanguage(opts))
	q.Set("append_to_response", strings.Join(appends, ","))

	var movie tmdbMovie
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/movie/%s?%s", c.baseURL, tmdbID, q.Encode()), nil, &movie)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		log.Printf("[tmdb] movie %s fetch failed: %v", tmdbID, err)
		return nil, nil
	}

	return c.toRecord(&movie, opts), nil
}

func (c *tmdbClient) requestLanguage(opts FetchOptions) string {
	if opts.Language != "" {
		return opts.Language
	}
	if c.language != "" {
		return c.language
	}
	return "en-US"
}

func (c *tmdbClient) findByIMDBID(ctx context.Context, imdbID string) (int64, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("external_source", "imdb_id")

	var resp struct {
		MovieResults []tmdbSearchEntry `json:"movie_results"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/find/%s?%s", c.baseURL, imdbID, q.Encode()), nil, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.MovieResults) == 0 {
		return 0, nil
	}
	return resp.MovieResults[0].ID, nil
}

func (c *tmdbClient) toRecord(m *tmdbMovie, opts FetchOptions) *models.MovieRecord {
	rec := &models.MovieRecord{
		ID:            strconv.FormatInt(m.ID, 10),
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Overview:      m.Overview,
		Tagline:       m.Tagline,
		PosterURL:     tmdbImageURL(m.PosterPath, "w500"),
		BackdropURL:   tmdbImageURL(m.BackdropPath, "w1280"),
		ReleaseDate:   m.ReleaseDate,
		Runtime:       m.Runtime,
		Rating:        m.VoteAverage,
		VoteCount:     m.VoteCount,
		Budget:        m.Budget,
		Revenue:       m.Revenue,
		ExternalIDs:   map[string]string{"tmdb": strconv.FormatInt(m.ID, 10)},
		Source:        tmdbSourceName,
	}

	imdbID := m.IMDBID
	if imdbID == "" {
		imdbID = m.ExternalIDs.IMDBID
	}
	if imdbID != "" {
		rec.ExternalIDs["imdb"] = imdbID
	}
	if m.ExternalIDs.WikidataID != "" {
		rec.ExternalIDs["wikidata"] = m.ExternalIDs.WikidataID
	}

	for _, g := range m.Genres {
		rec.Genres = append(rec.Genres, g.Name)
	}
	for _, k := range m.Keywords.Keywords {
		rec.Keywords = append(rec.Keywords, k.Name)
	}
	for _, l := range m.SpokenLanguages {
		rec.Languages = append(rec.Languages, l.EnglishName)
	}
	for _, p := range m.ProductionCompanies {
		rec.ProductionCompanies = append(rec.ProductionCompanies, p.Name)
	}

	for _, crew := range m.Credits.Crew {
		switch {
		case crew.Job == "Director" && rec.Director == "":
			rec.Director = crew.Name
		case crew.Department == "Writing":
			rec.Writers = append(rec.Writers, crew.Name)
		}
		if opts.IncludeCrew {
			rec.Crew = append(rec.Crew, models.CrewMember{
				ID:         strconv.FormatInt(crew.ID, 10),
				Name:       crew.Name,
				Job:        crew.Job,
				Department: crew.Department,
				ProfileURL: tmdbImageURL(crew.ProfilePath, "w185"),
			})
		}
	}
	if opts.IncludeCast {
		for _, cast := range m.Credits.Cast {
			rec.Cast = append(rec.Cast, models.CastMember{
				ID:         strconv.FormatInt(cast.ID, 10),
				Name:       cast.Name,
				Character:  cast.Character,
				ProfileURL: tmdbImageURL(cast.ProfilePath, "w185"),
			})
		}
	}
	if opts.IncludeVideos {
		for _, v := range m.Videos.Results {
			rec.Videos = append(rec.Videos, models.VideoRef{
				ID:          v.ID,
				Key:         v.Key,
				Site:        v.Site,
				Type:        v.Type,
				Name:        v.Name,
				Size:        v.Size,
				Official:    v.Official,
				PublishedAt: v.PublishedAt,
			})
		}
	}
	if opts.IncludeSimilar {
		rec.Similar = toBasicInfos(m.Similar.Results)
	}

	return rec
}

func (c *tmdbClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() || strings.TrimSpace(query) == "" {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", query)
	q.Set("include_adult", "false")

	var resp struct {
		Results []tmdbSearchEntry `json:"results"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/search/movie?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[tmdb] search %q failed: %v", query, err)
		return []models.BasicMovieInfo{}, nil
	}
	return toBasicInfos(resp.Results), nil
}

// Upcoming returns the provider's upcoming theatrical releases. Only the
// primary catalog exposes this capability.
func (c *tmdbClient) Upcoming(ctx context.Context) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)

	var resp struct {
		Results []tmdbSearchEntry `json:"results"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/movie/upcoming?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[tmdb] upcoming fetch failed: %v", err)
		return []models.BasicMovieInfo{}, nil
	}
	return toBasicInfos(resp.Results), nil
}

// CheckAvailability probes the cheap configuration endpoint instead of
// issuing a throwaway search.
func (c *tmdbClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/configuration?%s", c.baseURL, q.Encode()), nil, nil)
	return err == nil
}

// PreferredID re-queries by native TMDB id when the record carries one.
func (c *tmdbClient) PreferredID(rec *models.MovieRecord) string {
	if id := rec.ExternalIDs["tmdb"]; id != "" {
		return id
	}
	return rec.ExternalIDs["imdb"]
}

func tmdbImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + size + path
}

func toBasicInfos(entries []tmdbSearchEntry) []models.BasicMovieInfo {
	infos := make([]models.BasicMovieInfo, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.Name
		}
		mediaType := e.MediaType
		if mediaType == "" {
			mediaType = "movie"
		}
		infos = append(infos, models.BasicMovieInfo{
			ID:          strconv.FormatInt(e.ID, 10),
			Title:       title,
			PosterURL:   tmdbImageURL(e.PosterPath, "w342"),
			ReleaseDate: e.ReleaseDate,
			Rating:      e.VoteAverage,
			MediaType:   mediaType,
		})
	}
	return infos
}
