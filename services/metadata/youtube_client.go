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
	youtubeSourceName = "youtube"
	youtubeAPIBaseURL = "https://www.googleapis.com/youtube/v3"
)

// youtubeClient is the video-search source. It resolves a movie title into
// trailer/teaser/clip references and contributes nothing else; provider ids
// (tt..., Q..., numeric) mean nothing to it.
type youtubeClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func newYouTubeClient(apiKey string, timeout time.Duration) *youtubeClient {
	return &youtubeClient{
		apiKey:  apiKey,
		baseURL: youtubeAPIBaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *youtubeClient) Name() string  { return youtubeSourceName }
func (c *youtubeClient) Priority() int { return 70 }

func (c *youtubeClient) isConfigured() bool { return c.apiKey != "" }

type youtubeSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		ChannelName string `json:"channelTitle"`
		PublishedAt string `json:"publishedAt"`
	} `json:"snippet"`
}

// FetchByID treats the identifier as a title and returns a record holding
// only video references for it.
func (c *youtubeClient) FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error) {
	if !c.isConfigured() {
		return nil, nil
	}
	if isIMDBID(id) || isWikidataID(id) || isNumericID(id) {
		return nil, nil
	}
	if !opts.IncludeVideos {
		return nil, nil
	}

	items, err := c.searchVideos(ctx, id+" trailer")
	if err != nil {
		log.Printf("[youtube] video search for %q failed: %v", id, err)
		return nil, nil
	}
	if len(items) == 0 {
		return nil, nil
	}

	rec := &models.MovieRecord{
		ID:          id,
		Title:       id,
		ExternalIDs: map[string]string{},
		Source:      youtubeSourceName,
	}
	for _, item := range items {
		if item.ID.VideoID == "" {
			continue
		}
		rec.Videos = append(rec.Videos, models.VideoRef{
			ID:          item.ID.VideoID,
			Key:         item.ID.VideoID,
			Site:        "YouTube",
			Type:        classifyVideoTitle(item.Snippet.Title),
			Name:        item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	if len(rec.Videos) == 0 {
		return nil, nil
	}
	return rec, nil
}

func (c *youtubeClient) searchVideos(ctx context.Context, query string) ([]youtubeSearchItem, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", "5")
	q.Set("q", query)

	var resp struct {
		Items []youtubeSearchItem `json:"items"`
	}
	err := getJSON(ctx, c.httpc, fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode()), nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Search returns nothing: video results are not movie search results.
func (c *youtubeClient) Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error) {
	return []models.BasicMovieInfo{}, nil
}

// CheckAvailability issues the default trivial probe call.
func (c *youtubeClient) CheckAvailability(ctx context.Context) bool {
	if !c.isConfigured() {
		return false
	}
	_, err := c.searchVideos(ctx, "test")
	return err == nil
}

// PreferredID asks to be re-queried by title.
func (c *youtubeClient) PreferredID(rec *models.MovieRecord) string {
	return rec.Title
}

// classifyVideoTitle buckets a video into the trailer taxonomy by its title.
func classifyVideoTitle(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "teaser"):
		return "Teaser"
	case strings.Contains(lower, "trailer"):
		return "Trailer"
	default:
		return "Clip"
	}
}
