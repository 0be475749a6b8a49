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
	omdbSourceName = "omdb"
	omdbAPIBaseURL = "https://www.omdbapi.com"
)

// omdbClient is the secondary open-database source. OMDb speaks in display
// strings ("136 min", "$292,576,195", "2,100,000") so most of the work here
// is parsing those back into numbers.
type omdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newOMDBClient(apiKey string, timeout time.Duration) *omdbClient {
	return &omdbClient{
		apiKey:  apiKey,
		baseURL: omdbAPIBaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *omdbClient) Name() string  { return omdbSourceName }
func (c *omdbClient) Priority() int { return 20 }

func (c *omdbClient) isConfigured() bool { return c.apiKey != "" }

type omdbMovie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBVotes  string `json:"imdbVotes"`
	IMDBID     string `json:"imdbID"`
	BoxOffice  string `json:"BoxOffice"`
	Production string `json:"Production"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// FetchByID accepts an IMDb id or a free-text title; OMDb has no ids of its
// own, so anything else is unresolvable.
func (c *omdbClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("plot", "full")
	switch {
	case isIMDBID(id):
		q.Set("i", id)
	case isNumericID(id) || isWikidataID(id):
		return nil, nil
	default:
		q.Set("t", id)
	}

	var movie omdbMovie
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/?%s", c.baseURL, q.Encode()), nil, &movie)
	if err != nil {
		log.Printf("[omdb] fetch %s failed: %v", id, err)
		return nil, nil
	}
	// OMDb reports not-found inside a 200 body.
	if !strings.EqualFold(movie.Response, "True") {
		return nil, nil
	}

	return c.toRecord(&movie), nil
}

func (c *omdbClient) toRecord(m *omdbMovie) *models.MovieRecord {
	rec := &models.MovieRecord{
		ID:          m.IMDBID,
		Title:       m.Title,
		Overview:    m.Plot,
		PosterURL:   omdbField(m.Poster),
		ReleaseDate: parseOMDBDate(m.Released),
		Runtime:     parseOMDBRuntime(m.Runtime),
		Rating:      parseOMDBFloat(m.IMDBRating), // already on the 0-10 scale
		VoteCount:   parseOMDBInt(m.IMDBVotes),
		Director:    omdbField(m.Director),
		Writers:     splitOMDBList(m.Writer),
		Genres:      splitOMDBList(m.Genre),
		Languages:   splitOMDBList(m.Language),
		Revenue:     parseOMDBMoney(m.BoxOffice),
		ExternalIDs: map[string]string{},
		Source:      omdbSourceName,
	}
	if m.IMDBID != "" {
		rec.ExternalIDs["imdb"] = m.IMDBID
	}
	if p := omdbField(m.Production); p != "" {
		rec.ProductionCompanies = splitOMDBList(p)
	}
	for _, name := range splitOMDBList(m.Actors) {
		rec.Cast = append(rec.Cast, models.CastMember{ID: foldText(name), Name: name})
	}
	return rec
}

func (c *omdbClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() || strings.TrimSpace(query) == "" {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("s", query)
	q.Set("type", "movie")

	var resp struct {
		Search []struct {
			Title  string `json:"Title"`
			Year   string `json:"Year"`
			IMDBID string `json:"imdbID"`
			Poster string `json:"Poster"`
		} `json:"Search"`
		Response string `json:"Response"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[omdb] search %q failed: %v", query, err)
		return []models.BasicMovieInfo{}, nil
	}
	if !strings.EqualFold(resp.Response, "True") {
		return []models.BasicMovieInfo{}, nil
	}

	infos := make([]models.BasicMovieInfo, 0, len(resp.Search))
	for _, e := range resp.Search {
		infos = append(infos, models.BasicMovieInfo{
			ID:          e.IMDBID,
			Title:       e.Title,
			PosterURL:   omdbField(e.Poster),
			ReleaseDate: e.Year,
			MediaType:   "movie",
		})
	}
	return infos, nil
}

// CheckAvailability uses the default trivial-search probe; OMDb has no ping
// endpoint.
func (c *omdbClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	_, err := c.probeSearch(ctx)
	return err == nil
}

func (c *omdbClient) probeSearch(ctx context.Context) ([]models.BasicMovieInfo, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("s", "test")
	return nil, getJSON(ctx, c.httpc, fmt.Sprintf("%s/?%s", c.baseURL, q.Encode()), nil, nil)
}

// PreferredID re-queries by IMDb id, falling back to the record title.
func (c *omdbClient) PreferredID(rec *models.MovieRecord) string {
	if id := rec.ExternalIDs["imdb"]; id != "" {
		return id
	}
	return rec.Title
}

// omdbField filters the provider's "N/A" placeholder.
func omdbField(s string) string {
	if s == "" || s == "N/A" {
		return ""
	}
	return s
}

func splitOMDBList(s string) []string {
	s = omdbField(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOMDBRuntime(s string) int {
	s = omdbField(s)
	n, _ := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "min")))
	return n
}

func parseOMDBFloat(s string) float64 {
	f, _ := strconv.ParseFloat(omdbField(s), 64)
	return f
}

func parseOMDBInt(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(omdbField(s), ",", ""))
	return n
}

func parseOMDBMoney(s string) int64 {
	s = omdbField(s)
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseOMDBDate converts "16 Jul 2010" to ISO format; unparseable values
// pass through untouched.
func parseOMDBDate(s string) string {
	s = omdbField(s)
	if s == "" {
		return ""
	}
	t, err := time.Parse("02 Jan 2006", s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
