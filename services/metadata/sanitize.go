package metadata

import (
	"math"

	"cinefuse/models"
)

// Sanitize returns a shallow copy of rec with numeric fields normalized and
// nil collections replaced by empty slices, so callers can range over any
// collection field without a nil check. The input is never mutated and the
// operation is idempotent.
func Sanitize(rec *models.MovieRecord) *models.MovieRecord {
	if rec == nil {
		return nil
	}
	out := *rec

	if math.IsNaN(out.Rating) || out.Rating < 0 {
		out.Rating = 0
	}
	if out.Runtime < 0 {
		out.Runtime = 0
	}
	if out.VoteCount < 0 {
		out.VoteCount = 0
	}
	if out.Budget < 0 {
		out.Budget = 0
	}
	if out.Revenue < 0 {
		out.Revenue = 0
	}

	if out.Genres == nil {
		out.Genres = []string{}
	}
	if out.Writers == nil {
		out.Writers = []string{}
	}
	if out.Cast == nil {
		out.Cast = []models.CastMember{}
	}
	if out.Crew == nil {
		out.Crew = []models.CrewMember{}
	}
	if out.Videos == nil {
		out.Videos = []models.VideoRef{}
	}
	if out.Similar == nil {
		out.Similar = []models.BasicMovieInfo{}
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if out.ProductionCompanies == nil {
		out.ProductionCompanies = []string{}
	}
	if out.ExternalIDs == nil {
		out.ExternalIDs = map[string]string{}
	}

	return &out
}
