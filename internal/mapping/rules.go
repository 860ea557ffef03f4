package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpetrov/anisync/internal/titlematch"
)

var validStatuses = map[string]bool{
	"watching":      true,
	"completed":     true,
	"on_hold":       true,
	"dropped":       true,
	"plan_to_watch": true,
}

// OverrideRule pins a source title to a known MyAnimeList id, bypassing
// fuzzy matching. Status is optional.
type OverrideRule struct {
	Title  string `yaml:"title"`
	MALID  int    `yaml:"mal_id"`
	Status string `yaml:"status"`
}

type rulesFile struct {
	StatusMap map[string]string `yaml:"status_map"`
	Overrides []OverrideRule    `yaml:"overrides"`
}

// Rules maps Sonarr statuses to MyAnimeList statuses and resolves manual
// title overrides. The zero-config default maps continuing to watching.
type Rules struct {
	statusMap map[string]string
	overrides map[string]OverrideRule
}

func Default() *Rules {
	return &Rules{
		statusMap: map[string]string{"continuing": "watching"},
		overrides: map[string]OverrideRule{},
	}
}

// Load reads a rules file. A missing or empty path yields the defaults.
// Malformed entries are skipped; their errors are joined and returned
// alongside the usable rules.
func Load(path string) (*Rules, error) {
	rules := Default()

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return rules, nil
	}

	content, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return rules, fmt.Errorf("read mapping rules: %w", err)
	}

	var parsed rulesFile
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return rules, fmt.Errorf("parse mapping rules: %w", err)
	}

	problems := make([]string, 0)

	for source, target := range parsed.StatusMap {
		source = strings.ToLower(strings.TrimSpace(source))
		target = strings.ToLower(strings.TrimSpace(target))
		if source == "" || !validStatuses[target] {
			problems = append(problems, fmt.Sprintf("status_map %q -> %q is invalid", source, target))
			continue
		}
		rules.statusMap[source] = target
	}

	for _, override := range parsed.Overrides {
		key := overrideKey(override.Title)
		if key == "" || override.MALID <= 0 {
			problems = append(problems, fmt.Sprintf("override %q needs a title and a positive mal_id", override.Title))
			continue
		}
		if override.Status != "" && !validStatuses[strings.ToLower(override.Status)] {
			problems = append(problems, fmt.Sprintf("override %q has invalid status %q", override.Title, override.Status))
			continue
		}
		override.Status = strings.ToLower(override.Status)
		rules.overrides[key] = override
	}

	if len(problems) > 0 {
		return rules, fmt.Errorf("mapping rules skipped entries: %s", strings.Join(problems, " | "))
	}
	return rules, nil
}

// MapStatus translates a Sonarr series status to a MyAnimeList list status,
// falling back to the configured default.
func (r *Rules) MapStatus(sonarrStatus, defaultStatus string) string {
	if target, ok := r.statusMap[strings.ToLower(strings.TrimSpace(sonarrStatus))]; ok {
		return target
	}
	return defaultStatus
}

// Override returns the pinned rule for a title, matched on the normalized
// form so season markers do not defeat the pin.
func (r *Rules) Override(title string) (OverrideRule, bool) {
	rule, ok := r.overrides[overrideKey(title)]
	return rule, ok
}

func overrideKey(title string) string {
	return strings.ToLower(titlematch.Normalize(title))
}
