package titlematch

import "testing"

func TestScoreIdenticalTitles(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	for _, title := range []string{"my hero academia", "Frieren", "a"} {
		if got := scorer.Score(title, title); got != 100 {
			t.Errorf("Score(%q, %q) = %v, want 100", title, title, got)
		}
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	if got := scorer.Score("My Hero Academia", "my hero academia"); got != 100 {
		t.Errorf("expected case-insensitive identity, got %v", got)
	}
}

func TestScoreRewardsReorderedTokens(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	reordered := scorer.Score("academia hero my", "my hero academia")
	unrelated := scorer.Score("completely different show", "my hero academia")
	if reordered <= unrelated {
		t.Fatalf("token reordering should outscore unrelated titles: %v <= %v", reordered, unrelated)
	}
	if reordered < 40 {
		t.Fatalf("reordered tokens scored too low: %v", reordered)
	}
}

func TestScoreRewardsSubstring(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	prefix := scorer.Score("attack on titan", "attack on titan the final season")
	unrelated := scorer.Score("attack on titan", "golden kamuy")
	if prefix <= unrelated {
		t.Fatalf("substring match should outscore unrelated: %v <= %v", prefix, unrelated)
	}
}

func TestScoreRangeAndEmptyInputs(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	if got := scorer.Score("", ""); got != 100 {
		t.Errorf("two empty strings should be identical, got %v", got)
	}
	if got := scorer.Score("something", ""); got != 0 {
		t.Errorf("empty against non-empty should be 0, got %v", got)
	}

	pairs := [][2]string{
		{"naruto", "boruto"},
		{"one piece", "two pieces"},
		{"x", "a very long title that shares nothing"},
	}
	for _, pair := range pairs {
		got := scorer.Score(pair[0], pair[1])
		if got < 0 || got > 100 {
			t.Errorf("Score(%q, %q) = %v, outside [0,100]", pair[0], pair[1], got)
		}
	}
}

func TestNewScorerNormalizesWeights(t *testing.T) {
	scorer := NewScorer(Weights{Ratio: 3, Partial: 3, TokenSort: 4})

	if got := scorer.Score("steins gate", "steins gate"); got != 100 {
		t.Errorf("unnormalized weights should still cap identity at 100, got %v", got)
	}

	fallback := NewScorer(Weights{})
	if got := fallback.Score("steins gate", "steins gate"); got != 100 {
		t.Errorf("zero weights should fall back to defaults, got %v", got)
	}
}
