package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":          "en-US",
		"en-US":     "en-US",
		"en-GB":     "en-GB",
		"fr":        "fr",
		"fr-CA":     "fr",
		"pt-BR":     "pt-BR",
		"ja":        "ja",
		"not!a!tag": "en-US",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeLanguage(input), "input %q", input)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8484, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "en-US", cfg.Language)
	assert.True(t, cfg.WikidataEnabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CINEFUSE_PORT", "9000")
	t.Setenv("CINEFUSE_REQUEST_TIMEOUT", "250ms")
	t.Setenv("CINEFUSE_LANGUAGE", "de-DE")
	t.Setenv("WIKIDATA_ENABLED", "false")
	t.Setenv("TMDB_API_KEY", "abc123")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "de", cfg.Language)
	assert.False(t, cfg.WikidataEnabled)
	assert.Equal(t, "abc123", cfg.TMDBAPIKey)
}

func TestEnvMalformedFallsBack(t *testing.T) {
	t.Setenv("CINEFUSE_PORT", "not-a-number")
	t.Setenv("CINEFUSE_REQUEST_TIMEOUT", "-3s")
	t.Setenv("WIKIDATA_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 8484, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.WikidataEnabled)
}
