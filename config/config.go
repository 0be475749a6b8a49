package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Config holds all runtime settings. Values come from environment variables
// with sensible defaults so the server starts with zero configuration (only
// the local override source will be available in that case).
type Config struct {
	Port           int
	LogFile        string
	Language       string
	RequestTimeout time.Duration
	RateLimitRPS   int

	TMDBAPIKey       string
	OMDBAPIKey       string
	MovieLensBaseURL string
	FanartAPIKey     string
	YouTubeAPIKey    string
	TraktClientID    string
	WikidataEnabled  bool
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Port:           envInt("CINEFUSE_PORT", 8484),
		LogFile:        os.Getenv("CINEFUSE_LOG_FILE"),
		Language:       NormalizeLanguage(os.Getenv("CINEFUSE_LANGUAGE")),
		RequestTimeout: envDuration("CINEFUSE_REQUEST_TIMEOUT", 5*time.Second),
		RateLimitRPS:   envInt("CINEFUSE_RATE_LIMIT", 20),

		TMDBAPIKey:       os.Getenv("TMDB_API_KEY"),
		OMDBAPIKey:       os.Getenv("OMDB_API_KEY"),
		MovieLensBaseURL: os.Getenv("MOVIELENS_BASE_URL"),
		FanartAPIKey:     os.Getenv("FANART_API_KEY"),
		YouTubeAPIKey:    os.Getenv("YOUTUBE_API_KEY"),
		TraktClientID:    os.Getenv("TRAKT_CLIENT_ID"),
		WikidataEnabled:  envBool("WIKIDATA_ENABLED", true),
	}
}

// supportedLanguages lists the localization tags providers are asked for.
// The first entry is the fallback when a requested tag cannot be matched.
var supportedLanguages = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.French,
	language.German,
	language.Spanish,
	language.Italian,
	language.BrazilianPortuguese,
	language.Japanese,
	language.Korean,
	language.SimplifiedChinese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// NormalizeLanguage maps an arbitrary BCP-47 string onto the closest
// supported tag, falling back to en-US for empty or unparseable input.
func NormalizeLanguage(lang string) string {
	if lang == "" {
		return supportedLanguages[0].String()
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return supportedLanguages[0].String()
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return supportedLanguages[0].String()
	}
	return supportedLanguages[idx].String()
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
