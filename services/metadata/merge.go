package metadata

import (
	"strings"

	"cinefuse/models"
)

// MergeRecords folds src into dst, treating dst as the higher-precedence
// record. Scalar fields are filled only when dst has no value; collection
// fields are unioned by a per-field key; ExternalIDs are always unioned and
// never overwritten. When src contributed at least one field, its provider
// name is appended to dst.Source. Merging the same src twice is a no-op the
// second time.
func MergeRecords(dst, src *models.MovieRecord) {
	if dst == nil || src == nil {
		return
	}
	contributed := false

	fillString := func(d *string, s string) {
		if *d == "" && s != "" {
			*d = s
			contributed = true
		}
	}
	fillString(&dst.Title, src.Title)
	fillString(&dst.OriginalTitle, src.OriginalTitle)
	fillString(&dst.Overview, src.Overview)
	fillString(&dst.Tagline, src.Tagline)
	fillString(&dst.PosterURL, src.PosterURL)
	fillString(&dst.BackdropURL, src.BackdropURL)
	fillString(&dst.ReleaseDate, src.ReleaseDate)
	fillString(&dst.Director, src.Director)

	if dst.Runtime == 0 && src.Runtime != 0 {
		dst.Runtime = src.Runtime
		contributed = true
	}
	if dst.Rating == 0 && src.Rating != 0 {
		dst.Rating = src.Rating
		contributed = true
	}
	if dst.VoteCount == 0 && src.VoteCount != 0 {
		dst.VoteCount = src.VoteCount
		contributed = true
	}
	if dst.Budget == 0 && src.Budget != 0 {
		dst.Budget = src.Budget
		contributed = true
	}
	if dst.Revenue == 0 && src.Revenue != 0 {
		dst.Revenue = src.Revenue
		contributed = true
	}

	// Unkeyed collections fill only when the target has nothing at all.
	if len(dst.Writers) == 0 && len(src.Writers) > 0 {
		dst.Writers = append([]string(nil), src.Writers...)
		contributed = true
	}
	if len(dst.Keywords) == 0 && len(src.Keywords) > 0 {
		dst.Keywords = append([]string(nil), src.Keywords...)
		contributed = true
	}
	if len(dst.Languages) == 0 && len(src.Languages) > 0 {
		dst.Languages = append([]string(nil), src.Languages...)
		contributed = true
	}
	if len(dst.ProductionCompanies) == 0 && len(src.ProductionCompanies) > 0 {
		dst.ProductionCompanies = append([]string(nil), src.ProductionCompanies...)
		contributed = true
	}

	if mergeGenres(dst, src) {
		contributed = true
	}
	if mergeCast(dst, src) {
		contributed = true
	}
	if mergeCrew(dst, src) {
		contributed = true
	}
	if mergeVideos(dst, src) {
		contributed = true
	}
	if mergeSimilar(dst, src) {
		contributed = true
	}
	if mergeExternalIDs(dst, src) {
		contributed = true
	}

	if contributed && src.Source != "" {
		appendSource(dst, src.Source)
	}
}

// mergeExternalIDs unions provider keys. Existing keys are never replaced so
// the mapping only ever grows across merges.
func mergeExternalIDs(dst, src *models.MovieRecord) bool {
	if len(src.ExternalIDs) == 0 {
		return false
	}
	if dst.ExternalIDs == nil {
		dst.ExternalIDs = make(map[string]string, len(src.ExternalIDs))
	}
	added := false
	for k, v := range src.ExternalIDs {
		if v == "" {
			continue
		}
		if _, ok := dst.ExternalIDs[k]; !ok {
			dst.ExternalIDs[k] = v
			added = true
		}
	}
	return added
}

func mergeGenres(dst, src *models.MovieRecord) bool {
	if len(src.Genres) == 0 {
		return false
	}
	seen := make(map[string]bool, len(dst.Genres))
	for _, g := range dst.Genres {
		seen[foldText(g)] = true
	}
	added := false
	for _, g := range src.Genres {
		if key := foldText(g); !seen[key] {
			seen[key] = true
			dst.Genres = append(dst.Genres, g)
			added = true
		}
	}
	return added
}

func mergeCast(dst, src *models.MovieRecord) bool {
	if len(src.Cast) == 0 {
		return false
	}
	seen := make(map[string]bool, len(dst.Cast))
	for _, c := range dst.Cast {
		seen[foldText(c.Name)] = true
	}
	added := false
	for _, c := range src.Cast {
		if key := foldText(c.Name); !seen[key] {
			seen[key] = true
			dst.Cast = append(dst.Cast, c)
			added = true
		}
	}
	return added
}

func mergeCrew(dst, src *models.MovieRecord) bool {
	if len(src.Crew) == 0 {
		return false
	}
	key := func(c models.CrewMember) string { return foldText(c.Name) + "|" + foldText(c.Job) }
	seen := make(map[string]bool, len(dst.Crew))
	for _, c := range dst.Crew {
		seen[key(c)] = true
	}
	added := false
	for _, c := range src.Crew {
		if k := key(c); !seen[k] {
			seen[k] = true
			dst.Crew = append(dst.Crew, c)
			added = true
		}
	}
	return added
}

func mergeVideos(dst, src *models.MovieRecord) bool {
	if len(src.Videos) == 0 {
		return false
	}
	seen := make(map[string]bool, len(dst.Videos))
	for _, v := range dst.Videos {
		seen[v.Key] = true
	}
	added := false
	for _, v := range src.Videos {
		if !seen[v.Key] {
			seen[v.Key] = true
			dst.Videos = append(dst.Videos, v)
			added = true
		}
	}
	return added
}

func mergeSimilar(dst, src *models.MovieRecord) bool {
	if len(src.Similar) == 0 {
		return false
	}
	seen := make(map[string]bool, len(dst.Similar))
	for _, s := range dst.Similar {
		seen[s.ID] = true
	}
	added := false
	for _, s := range src.Similar {
		if !seen[s.ID] {
			seen[s.ID] = true
			dst.Similar = append(dst.Similar, s)
			added = true
		}
	}
	return added
}

// appendSource records a contributing provider on the comma-joined source
// list, in contribution order, skipping providers already listed.
func appendSource(dst *models.MovieRecord, name string) {
	if dst.Source == "" {
		dst.Source = name
		return
	}
	for _, part := range strings.Split(dst.Source, ",") {
		if strings.TrimSpace(part) == name {
			return
		}
	}
	dst.Source = dst.Source + ", " + name
}
