package titlematch

import (
	"strings"

	"github.com/mpetrov/anisync/internal/models"
)

type Selector struct {
	scorer *Scorer
}

func NewSelector(scorer *Scorer) *Selector {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights())
	}
	return &Selector{scorer: scorer}
}

// SelectBest picks the candidate whose strongest title (primary or any
// alternate) scores highest against the source title. A candidate's score is
// the maximum over its titles so a single exact synonym is not diluted by a
// weak primary title. Ties keep the first-seen candidate.
func (s *Selector) SelectBest(sourceTitle string, candidates []models.Candidate) models.MatchResult {
	if len(candidates) == 0 {
		return models.MatchResult{}
	}

	source := Normalize(sourceTitle)
	best := models.MatchResult{}

	for i := range candidates {
		score := s.candidateScore(source, candidates[i])
		if score > best.Score {
			matched := candidates[i]
			best = models.MatchResult{Candidate: &matched, Score: score}
		}
	}

	return best
}

func (s *Selector) candidateScore(normalizedSource string, candidate models.Candidate) float64 {
	titles := make([]string, 0, 1+len(candidate.AlternateTitles))
	titles = append(titles, candidate.Title)
	titles = append(titles, candidate.AlternateTitles...)

	best := 0.0
	for _, title := range titles {
		if strings.TrimSpace(title) == "" {
			continue
		}
		if score := s.scorer.Score(normalizedSource, Normalize(title)); score > best {
			best = score
		}
	}
	return best
}
