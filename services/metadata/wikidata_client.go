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

const (
	wikidataSourceName = "wikidata"
	wikidataAPIBaseURL = "https://www.wikidata.org/w/api.php"

	// Claim properties: IMDb id, TMDB movie id, genre, director, duration.
	wikidataPropIMDB     = "P345"
	wikidataPropTMDB     = "P4947"
	wikidataPropDuration = "P2047"
)

// wikidataClient is the structured-knowledge-graph source. It needs no
// credential, only an explicit enable switch, and contributes labels,
// descriptions and cross-reference identifiers.
type wikidataClient struct {
	enabled  bool
	language string
	baseURL  string
	httpc    *http.Client
}

func newWikidataClient(enabled bool, language string, timeout time.Duration) *wikidataClient {
	return &wikidataClient{
		enabled:  enabled,
		language: language,
		baseURL:  wikidataAPIBaseURL,
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *wikidataClient) Name() string  { return wikidataSourceName }
func (c *wikidataClient) Priority() int { return 60 }

func (c *wikidataClient) isConfigured() bool { return c.enabled }

type wikidataClaim struct {
	MainSnak struct {
		DataValue struct {
			Value any `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

type wikidataEntity struct {
	ID     string `json:"id"`
	Labels map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
	Descriptions map[string]struct {
		Value string `json:"value"`
	} `json:"descriptions"`
	Claims map[string][]wikidataClaim `json:"claims"`
}

// FetchByID accepts a Q-id directly; anything else goes through entity
// search first.
func (c *wikidataClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}

	entityID := id
	if !isWikidataID(id) {
		if isIMDBID(id) || isNumericID(id) {
			return nil, nil
		}
		results, err := c.Search(ctx, id)
		if err != nil || len(results) == 0 {
			return nil, nil
		}
		entityID = results[0].ID
	}

	q := url.Values{}
	q.Set("action", "wbgetentities")
	q.Set("ids", entityID)
	q.Set("props", "labels|descriptions|claims")
	q.Set("format", "json")

	var resp struct {
		Entities map[string]wikidataEntity `json:"entities"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[wikidata] entity %s fetch failed: %v", entityID, err)
		return nil, nil
	}
	entity, ok := resp.Entities[entityID]
	if !ok || entity.ID == "" {
		return nil, nil
	}

	return c.toRecord(&entity, opts), nil
}

func (c *wikidataClient) toRecord(e *wikidataEntity, opts FetchOptions) *models.MovieRecord {
	rec := &models.MovieRecord{
		ID:          e.ID,
		Title:       c.localized(e.Labels, opts.Language),
		Overview:    c.localized(e.Descriptions, opts.Language),
		ExternalIDs: map[string]string{"wikidata": e.ID},
		Source:      wikidataSourceName,
	}
	if imdb := firstStringClaim(e.Claims[wikidataPropIMDB]); imdb != "" {
		rec.ExternalIDs["imdb"] = imdb
	}
	if tmdb := firstStringClaim(e.Claims[wikidataPropTMDB]); tmdb != "" {
		rec.ExternalIDs["tmdb"] = tmdb
	}
	if dur := firstQuantityClaim(e.Claims[wikidataPropDuration]); dur > 0 {
		rec.Runtime = dur
	}
	return rec
}

// localized picks the label for the requested language, falling back to the
// client default and then English.
func (c *wikidataClient) localized(values map[string]struct {
	Value string `json:"value"`
}, lang string) string {
	for _, candidate := range []string{baseLang(lang), baseLang(c.language), "en"} {
		if candidate == "" {
			continue
		}
		if v, ok := values[candidate]; ok && v.Value != "" {
			return v.Value
		}
	}
	return ""
}

// baseLang reduces a BCP-47 tag to its primary subtag ("en-US" -> "en").
func baseLang(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}

func firstStringClaim(claims []wikidataClaim) string {
	for _, claim := range claims {
		if s, ok := claim.MainSnak.DataValue.Value.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstQuantityClaim(claims []wikidataClaim) int {
	for _, claim := range claims {
		obj, ok := claim.MainSnak.DataValue.Value.(map[string]any)
		if !ok {
			continue
		}
		amount, ok := obj["amount"].(string)
		if !ok {
			continue
		}
		var n float64
		if _, err := fmt.Sscanf(strings.TrimPrefix(amount, "+"), "%f", &n); err == nil && n > 0 {
			return int(n)
		}
	}
	return 0
}

func (c *wikidataClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	if !c.isConfigured() || strings.TrimSpace(query) == "" {
		return []models.BasicMovieInfo{}, nil
	}

	q := url.Values{}
	q.Set("action", "wbsearchentities")
	q.Set("search", query)
	q.Set("language", baseLang(c.language))
	q.Set("type", "item")
	q.Set("format", "json")

	var resp struct {
		Search []struct {
			ID          string `json:"id"`
			Label       string `json:"label"`
			Description string `json:"description"`
		} `json:"search"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		log.Printf("[wikidata] search %q failed: %v", query, err)
		return []models.BasicMovieInfo{}, nil
	}

	infos := make([]models.BasicMovieInfo, 0, len(resp.Search))
	for _, e := range resp.Search {
		infos = append(infos, models.BasicMovieInfo{
			ID:        e.ID,
			Title:     e.Label,
			MediaType: "movie",
		})
	}
	return infos, nil
}

// CheckAvailability issues the default trivial search probe. Search itself
// absorbs errors, so the probe goes through getJSON directly.
func (c *wikidataClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	q := url.Values{}
	q.Set("action", "wbsearchentities")
	q.Set("search", "test")
	q.Set("language", "en")
	q.Set("type", "item")
	q.Set("format", "json")
	return getJSON(ctx, c.httpc, fmt.Sprintf("%s?%s", c.baseURL, q.Encode()), nil, nil) == nil
}

// PreferredID re-queries by Q-id when the record carries one.
func (c *wikidataClient) PreferredID(rec *models.MovieRecord) string {
	return rec.ExternalIDs["wikidata"]
}
