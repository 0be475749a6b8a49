package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cinefuse/models"
	"cinefuse/services/metadata"
)

// metadataService is the slice of the metadata service the handlers need.
type metadataService interface {
	MovieMetadata(ctx context.Context, id string, opts metadata.FetchOptions) *models.MovieRecord
	EnhancedMetadata(ctx context.Context, id string, opts metadata.FetchOptions) *models.MovieRecord
	SearchMovies(ctx context.Context, query string) []models.BasicMovieInfo
	SearchMoviesWithUpcoming(ctx context.Context, query string) []models.BasicMovieInfo
	UpsertOverride(ctx context.Context, rec models.MovieRecord) *models.MovieRecord
	RemoveOverride(ctx context.Context, id string) bool
	InitializationStatus() string
}

// MetadataHandler exposes the aggregation service over JSON HTTP. Handlers
// only translate requests; all fallback and merge behavior lives in the
// service.
type MetadataHandler struct {
	metadata metadataService
}

// NewMetadataHandler constructs a MetadataHandler.
func NewMetadataHandler(metadata metadataService) *MetadataHandler {
	return &MetadataHandler{metadata: metadata}
}

// RegisterRoutes attaches all metadata routes to the router.
func (h *MetadataHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/movies/{id}", h.GetMovie).Methods(http.MethodGet)
	r.HandleFunc("/api/search", h.SearchMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/overrides", h.UpsertOverride).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/api/overrides/{id}", h.DeleteOverride).Methods(http.MethodDelete)
	r.HandleFunc("/api/metadata/status", h.GetStatus).Methods(http.MethodGet)
}

// GetMovie returns a single movie record. ?enhanced=false skips the
// cross-source merge; include flags and ?language tune the fetch.
func (h *MetadataHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "movie id is required", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	opts := metadata.FetchOptions{
		IncludeCast:    queryFlag(query.Get("includeCast"), true),
		IncludeCrew:    queryFlag(query.Get("includeCrew"), false),
		IncludeVideos:  queryFlag(query.Get("includeVideos"), true),
		IncludeSimilar: queryFlag(query.Get("includeSimilar"), true),
		Language:       strings.TrimSpace(query.Get("language")),
	}

	var rec *models.MovieRecord
	if queryFlag(query.Get("enhanced"), true) {
		rec = h.metadata.EnhancedMetadata(r.Context(), id, opts)
	} else {
		rec = h.metadata.MovieMetadata(r.Context(), id, opts)
	}
	if rec == nil {
		http.Error(w, "movie not found", http.StatusNotFound)
		return
	}

	writeJSON(w, rec)
}

// SearchMovies returns search results for ?q=. With ?upcoming=true a thin
// result set is topped up from the primary catalog's upcoming feed.
func (h *MetadataHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	var results []models.BasicMovieInfo
	if queryFlag(r.URL.Query().Get("upcoming"), false) {
		results = h.metadata.SearchMoviesWithUpcoming(r.Context(), query)
	} else {
		results = h.metadata.SearchMovies(r.Context(), query)
	}

	writeJSON(w, map[string]any{
		"results": results,
		"total":   len(results),
	})
}

// UpsertOverride inserts or replaces a curated record.
func (h *MetadataHandler) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	var rec models.MovieRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid movie record payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(rec.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	stored := h.metadata.UpsertOverride(r.Context(), rec)
	if stored == nil {
		http.Error(w, "override store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stored)
}

// DeleteOverride removes a curated record.
func (h *MetadataHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		http.Error(w, "override id is required", http.StatusBadRequest)
		return
	}

	if !h.metadata.RemoveOverride(r.Context(), id) {
		http.Error(w, "override not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"removed": true})
}

// GetStatus reports the service initialization line for progress display.
func (h *MetadataHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": h.metadata.InitializationStatus()})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[handlers] failed to encode response: %v", err)
	}
}

// queryFlag parses a boolean query parameter with a default for absent or
// malformed values.
func queryFlag(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}
