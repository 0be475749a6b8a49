package models

// MovieRecord is the canonical normalized movie entity assembled from one or
// more metadata providers. A record is built fresh per lookup and never
// mutated after it is handed to the caller.
type MovieRecord struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	OriginalTitle       string            `json:"originalTitle,omitempty"`
	Overview            string            `json:"overview,omitempty"`
	Tagline             string            `json:"tagline,omitempty"`
	PosterURL           string            `json:"posterUrl,omitempty"`
	BackdropURL         string            `json:"backdropUrl,omitempty"`
	ReleaseDate         string            `json:"releaseDate,omitempty"` // YYYY-MM-DD
	Runtime             int               `json:"runtime,omitempty"`     // minutes
	Genres              []string          `json:"genres"`
	Rating              float64           `json:"rating,omitempty"` // 0-10 scale
	VoteCount           int               `json:"voteCount,omitempty"`
	Director            string            `json:"director,omitempty"`
	Writers             []string          `json:"writers,omitempty"`
	Cast                []CastMember      `json:"cast,omitempty"`
	Crew                []CrewMember      `json:"crew,omitempty"`
	ProductionCompanies []string          `json:"productionCompanies,omitempty"`
	Budget              int64             `json:"budget,omitempty"`  // USD
	Revenue             int64             `json:"revenue,omitempty"` // USD
	Languages           []string          `json:"languages,omitempty"`
	Keywords            []string          `json:"keywords,omitempty"`
	Videos              []VideoRef        `json:"videos,omitempty"`
	Similar             []BasicMovieInfo  `json:"similar,omitempty"`
	ExternalIDs         map[string]string `json:"externalIds"` // imdb, tmdb, wikidata, movieLens
	Source              string            `json:"source"`      // comma-joined contributing providers
}

// CastMember is a single credited actor.
type CastMember struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// CrewMember is a single credited crew entry.
type CrewMember struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job,omitempty"`
	Department string `json:"department,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// VideoRef points at a trailer, teaser or clip hosted by a video provider.
type VideoRef struct {
	ID          string `json:"id"`
	Key         string `json:"key"`  // provider-side video id
	Site        string `json:"site"` // e.g. "YouTube"
	Type        string `json:"type"` // "Trailer" | "Teaser" | "Clip"
	Name        string `json:"name"`
	Size        int    `json:"size,omitempty"` // e.g. 1080
	Official    bool   `json:"official,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// BasicMovieInfo is the lightweight shape returned by search operations.
type BasicMovieInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	MediaType   string  `json:"mediaType,omitempty"` // "movie" | "tv"
}
