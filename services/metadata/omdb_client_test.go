package metadata

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const omdbMovieBody = `{
	"Title": "Inception",
	"Year": "2010",
	"Released": "16 Jul 2010",
	"Runtime": "148 min",
	"Genre": "Action, Adventure, Sci-Fi",
	"Director": "Christopher Nolan",
	"Writer": "Christopher Nolan",
	"Actors": "Leonardo DiCaprio, Joseph Gordon-Levitt, Elliot Page",
	"Plot": "A thief who steals corporate secrets.",
	"Language": "English, Japanese, French",
	"Poster": "https://m.media-amazon.com/images/inception.jpg",
	"imdbRating": "8.8",
	"imdbVotes": "2,100,000",
	"imdbID": "tt1375666",
	"BoxOffice": "$292,576,195",
	"Production": "N/A",
	"Response": "True"
}`

func newTestOMDBClient(rt roundTripFunc) *omdbClient {
	c := newOMDBClient("test-key", 0)
	c.httpc = fakeClient(rt)
	return c
}

func TestOMDBFetchByIMDBID(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "tt1375666", req.URL.Query().Get("i"))
		assert.Equal(t, "test-key", req.URL.Query().Get("apikey"))
		return jsonResponse(http.StatusOK, omdbMovieBody), nil
	})

	rec, err := c.FetchByID(context.Background(), "tt1375666", FetchOptions{})

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Inception", rec.Title)
	assert.Equal(t, "2010-07-16", rec.ReleaseDate, "display date is converted to ISO")
	assert.Equal(t, 148, rec.Runtime, `"148 min" is parsed to minutes`)
	assert.Equal(t, 8.8, rec.Rating)
	assert.Equal(t, 2100000, rec.VoteCount)
	assert.Equal(t, int64(292576195), rec.Revenue)
	assert.Equal(t, []string{"Action", "Adventure", "Sci-Fi"}, rec.Genres)
	assert.Equal(t, []string{"English", "Japanese", "French"}, rec.Languages)
	assert.Empty(t, rec.ProductionCompanies, `"N/A" placeholder is treated as absent`)
	require.Len(t, rec.Cast, 3)
	assert.Equal(t, "Leonardo DiCaprio", rec.Cast[0].Name)
	assert.Equal(t, "tt1375666", rec.ExternalIDs["imdb"])
	assert.Equal(t, omdbSourceName, rec.Source)
}

func TestOMDBFetchByTitle(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Inception", req.URL.Query().Get("t"))
		assert.Empty(t, req.URL.Query().Get("i"))
		return jsonResponse(http.StatusOK, omdbMovieBody), nil
	})

	rec, err := c.FetchByID(context.Background(), "Inception", FetchOptions{})
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestOMDBForeignIDsUnresolvable(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for identifiers OMDb cannot resolve")
		return nil, nil
	})

	for _, id := range []string{"27205", "Q25188"} {
		rec, err := c.FetchByID(context.Background(), id, FetchOptions{})
		assert.NoError(t, err)
		assert.Nil(t, rec)
	}
}

func TestOMDBNotFoundInBody(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"Response": "False", "Error": "Movie not found!"}`), nil
	})

	rec, err := c.FetchByID(context.Background(), "tt0000001", FetchOptions{})
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestOMDBSearch(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "dune", req.URL.Query().Get("s"))
		return jsonResponse(http.StatusOK, `{
			"Search": [
				{"Title": "Dune", "Year": "2021", "imdbID": "tt1160419", "Poster": "https://img/dune.jpg"},
				{"Title": "Dune", "Year": "1984", "imdbID": "tt0087182", "Poster": "N/A"}
			],
			"Response": "True"
		}`), nil
	})

	results, err := c.Search(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "tt1160419", results[0].ID)
	assert.Empty(t, results[1].PosterURL)
}

func TestOMDBNetworkErrorIsEmptyNotError(t *testing.T) {
	c := newTestOMDBClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rec, err := c.FetchByID(context.Background(), "tt1375666", FetchOptions{})
	assert.NoError(t, err)
	assert.Nil(t, rec)

	results, err := c.Search(context.Background(), "dune")
	assert.NoError(t, err)
	assert.Empty(t, results)
}
