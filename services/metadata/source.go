package metadata

import (
	"context"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"cinefuse/models"
)

// FetchOptions controls how much detail a source is asked to return.
type FetchOptions struct {
	IncludeCast    bool
	IncludeCrew    bool
	IncludeVideos  bool
	IncludeSimilar bool
	Language       string // BCP-47; providers fall back to their default when unsupported
}

// Source is the uniform capability contract every metadata provider
// implements. Sources never propagate network or provider errors: FetchByID
// returns (nil, nil) for not-found, missing credentials, or an unresolvable
// identifier, and Search returns an empty slice in the same situations. The
// orchestrator treats a non-nil error like an absent result and moves on to
// the next source.
type Source interface {
	Name() string
	// Priority orders fallback; lower wins. Registration order breaks ties.
	Priority() int
	FetchByID(ctx context.Context, id string, opts FetchOptions) (*models.MovieRecord, error)
	Search(ctx context.Context, query string) ([]models.BasicMovieInfo, error)
	CheckAvailability(ctx context.Context) bool
}

// upcomingLister is implemented by the primary catalog source only. It feeds
// SearchWithUpcoming when a regular search comes back thin.
type upcomingLister interface {
	Upcoming(ctx context.Context) ([]models.BasicMovieInfo, error)
}

// crossReferencer lets a source pick the identifier it can best re-query a
// known record by (usually one of the record's external IDs). An empty return
// means the source has no usable cross-reference for this record.
type crossReferencer interface {
	PreferredID(rec *models.MovieRecord) string
}

// overrideStore is implemented by the local override source.
type overrideStore interface {
	Upsert(rec models.MovieRecord) models.MovieRecord
	Remove(id string) bool
}

var (
	imdbIDPattern     = regexp.MustCompile(`^[a-z]{2}\d+$`)
	wikidataIDPattern = regexp.MustCompile(`^Q\d+$`)
	numericIDPattern  = regexp.MustCompile(`^\d+$`)
)

// isIMDBID reports whether id looks like an IMDb identifier (two-letter
// prefix followed by digits, e.g. tt1375666).
func isIMDBID(id string) bool { return imdbIDPattern.MatchString(id) }

// isWikidataID reports whether id looks like a Wikidata entity id (Q42).
func isWikidataID(id string) bool { return wikidataIDPattern.MatchString(id) }

func isNumericID(id string) bool { return numericIDPattern.MatchString(id) }

// foldText lowercases and strips diacritics so name and title comparisons
// survive provider-specific transliteration differences.
func foldText(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}
