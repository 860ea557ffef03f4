package titlematch

import (
	"regexp"
	"strings"
)

var stripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\(\d{4}\)`),
	regexp.MustCompile(`(?i)\s*Season\s+\d+`),
	regexp.MustCompile(`(?i)\s*\d+(?:st|nd|rd|th)\s+Season`),
	regexp.MustCompile(`\s*S\d+$`),
	regexp.MustCompile(`(?i)\s*Part\s+\d+`),
	regexp.MustCompile(`(?i)\s*Cour\s+\d+`),
	regexp.MustCompile(`(?i)\b(?:OVA|ONA|Special)\b`),
	regexp.MustCompile(`\s*\[[^\]]*\]`),
	regexp.MustCompile(`\s*\([^)]*\)`),
}

// Normalize strips season, year and format noise from a title so the same
// show parses to the same string across Sonarr and MyAnimeList naming
// conventions. It is pure and idempotent.
func Normalize(title string) string {
	clean := title
	for _, pattern := range stripPatterns {
		clean = pattern.ReplaceAllString(clean, "")
	}
	return strings.Join(strings.Fields(clean), " ")
}
