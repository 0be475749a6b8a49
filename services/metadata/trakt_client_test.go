package metadata

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTraktClient(rt roundTripFunc) *traktClient {
	c := newTraktClient("test-client-id", 0)
	c.httpc = fakeClient(rt)
	return c
}

func TestTraktFetchByIMDBID(t *testing.T) {
	c := newTestTraktClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/movies/tt1375666", req.URL.Path)
		assert.Equal(t, "full", req.URL.Query().Get("extended"))
		assert.Equal(t, "test-client-id", req.Header.Get("trakt-api-key"))
		assert.Equal(t, "2", req.Header.Get("trakt-api-version"))
		return jsonResponse(http.StatusOK, `{
			"title": "Inception",
			"year": 2010,
			"ids": {"trakt": 16662, "slug": "inception-2010", "imdb": "tt1375666", "tmdb": 27205},
			"tagline": "Your mind is the scene of the crime.",
			"overview": "A thief who steals corporate secrets.",
			"released": "2010-07-16",
			"runtime": 148,
			"trailer": "https://youtube.com/watch?v=YoHD9XEInc0",
			"rating": 8.72,
			"votes": 45231,
			"genres": ["action", "science-fiction"],
			"languages": ["en"]
		}`), nil
	})

	rec, err := c.FetchByID(context.Background(), "tt1375666", FetchOptions{})

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "16662", rec.ID)
	assert.Equal(t, "Inception", rec.Title)
	assert.Equal(t, 8.72, rec.Rating)
	assert.Equal(t, "tt1375666", rec.ExternalIDs["imdb"])
	assert.Equal(t, "27205", rec.ExternalIDs["tmdb"])
	require.Len(t, rec.Videos, 1)
	assert.Equal(t, "YoHD9XEInc0", rec.Videos[0].Key, "trailer URL is turned into a video reference")
	assert.Equal(t, traktSourceName, rec.Source)
}

func TestTraktFetchByTitleSearchesFirst(t *testing.T) {
	c := newTestTraktClient(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/search/movie":
			assert.Equal(t, "the matrix", req.URL.Query().Get("query"))
			return jsonResponse(http.StatusOK, `[{"type": "movie", "movie": {"title": "The Matrix", "year": 1999, "ids": {"trakt": 481}}}]`), nil
		case "/movies/481":
			return jsonResponse(http.StatusOK, `{"title": "The Matrix", "ids": {"trakt": 481}}`), nil
		}
		t.Fatalf("unexpected request: %s", req.URL.String())
		return nil, nil
	})

	rec, err := c.FetchByID(context.Background(), "the matrix", FetchOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "481", rec.ID)
}

func TestTraktSingleWordTitlePassesAsSlug(t *testing.T) {
	c := newTestTraktClient(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/movies/inception", req.URL.Path, "one-word titles go straight to the movies endpoint as slugs")
		return jsonResponse(http.StatusOK, `{"title": "Inception", "ids": {"trakt": 16662}}`), nil
	})

	rec, err := c.FetchByID(context.Background(), "inception", FetchOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "16662", rec.ID)
}

func TestTraktUnconfigured(t *testing.T) {
	c := newTraktClient("", 0)

	assert.False(t, c.CheckAvailability(context.Background()))

	rec, err := c.FetchByID(context.Background(), "tt1375666", FetchOptions{})
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestYoutubeKeyFromURL(t *testing.T) {
	cases := map[string]string{
		"https://youtube.com/watch?v=YoHD9XEInc0": "YoHD9XEInc0",
		"https://youtu.be/YoHD9XEInc0":            "YoHD9XEInc0",
		"https://example.com/video":               "",
		"":                                        "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, youtubeKeyFromURL(raw), "url %q", raw)
	}
}
