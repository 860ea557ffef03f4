package titlematch

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Weights controls the blend of the three similarity metrics. Token-sort
// carries the most weight because translated titles frequently reorder
// subtitle and prefix segments.
type Weights struct {
	Ratio     float64
	Partial   float64
	TokenSort float64
}

func DefaultWeights() Weights {
	return Weights{Ratio: 0.3, Partial: 0.3, TokenSort: 0.4}
}

type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	total := weights.Ratio + weights.Partial + weights.TokenSort
	if total <= 0 {
		weights = DefaultWeights()
		total = 1
	}
	weights.Ratio /= total
	weights.Partial /= total
	weights.TokenSort /= total
	return &Scorer{weights: weights}
}

// Score returns a similarity in [0,100] between two titles. Inputs are
// lower-cased before comparison; callers normalize season/year noise first.
func (s *Scorer) Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		if a == b {
			return 100
		}
		return 0
	}

	blended := s.weights.Ratio*ratio(a, b) +
		s.weights.Partial*partialRatio(a, b) +
		s.weights.TokenSort*tokenSortRatio(a, b)
	if blended > 100 {
		blended = 100
	}
	return blended
}

func ratio(a, b string) float64 {
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	distance := edlib.LevenshteinDistance(a, b)
	if distance > longest {
		distance = longest
	}
	return 100 * float64(longest-distance) / float64(longest)
}

// partialRatio slides the shorter string across the longer one and keeps the
// best window ratio, so "attack on titan" scores high against
// "attack on titan the final season".
func partialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return ratio(string(shorter), string(longer))
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := string(longer[start : start+len(shorter)])
		if score := ratio(string(shorter), window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(value string) string {
	tokens := strings.Fields(value)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
