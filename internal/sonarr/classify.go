package sonarr

import "strings"

var titleIndicators = []string{"anime", "(tv)", "season", "cour"}

// DefaultClassifier reproduces the usual ways people mark anime in Sonarr:
// an "anime" tag, the anime series type, an anime library path, or title
// keywords as a last resort.
func DefaultClassifier(series Series, tagLabels map[int]string) bool {
	for _, tagID := range series.Tags {
		if strings.Contains(tagLabels[tagID], "anime") {
			return true
		}
	}

	if strings.EqualFold(series.SeriesType, "anime") {
		return true
	}
	if strings.Contains(strings.ToLower(series.Path), "anime") {
		return true
	}

	title := strings.ToLower(series.Title)
	for _, indicator := range titleIndicators {
		if strings.Contains(title, indicator) {
			return true
		}
	}
	return false
}
