package titlematch

import (
	"testing"

	"github.com/mpetrov/anisync/internal/models"
)

func TestSelectBestEmptyCandidates(t *testing.T) {
	selector := NewSelector(nil)

	result := selector.SelectBest("Some Show", nil)
	if result.Candidate != nil {
		t.Fatalf("expected no candidate, got %+v", result.Candidate)
	}
	if result.Score != 0 {
		t.Fatalf("expected score 0, got %v", result.Score)
	}
}

func TestSelectBestUsesStrongestAlternateTitle(t *testing.T) {
	selector := NewSelector(nil)

	// The winner has a weak primary title but one exact-match synonym; it
	// must beat a candidate whose primary title is only moderately close.
	candidates := []models.Candidate{
		{ID: 1, Title: "Boku no Hero Academia Memories"},
		{ID: 2, Title: "Boku no Hero Academia", AlternateTitles: []string{"My Hero Academia"}},
	}

	result := selector.SelectBest("My Hero Academia Season 5", candidates)
	if result.Candidate == nil {
		t.Fatal("expected a candidate")
	}
	if result.Candidate.ID != 2 {
		t.Fatalf("expected candidate 2 to win via synonym, got %d (score %v)", result.Candidate.ID, result.Score)
	}
	if result.Score != 100 {
		t.Fatalf("expected exact synonym score 100, got %v", result.Score)
	}
}

func TestSelectBestTieKeepsFirstSeen(t *testing.T) {
	selector := NewSelector(nil)

	candidates := []models.Candidate{
		{ID: 10, Title: "Spy x Family"},
		{ID: 11, Title: "Spy x Family"},
	}

	result := selector.SelectBest("Spy x Family", candidates)
	if result.Candidate == nil || result.Candidate.ID != 10 {
		t.Fatalf("expected first-seen candidate on tie, got %+v", result.Candidate)
	}
}

func TestSelectBestNormalizesSourceTitle(t *testing.T) {
	selector := NewSelector(nil)

	candidates := []models.Candidate{
		{ID: 5, Title: "My Hero Academia"},
	}

	result := selector.SelectBest("My Hero Academia Season 5", candidates)
	if result.Score != 100 {
		t.Fatalf("expected normalized source to score 100, got %v", result.Score)
	}
}

func TestSelectBestSkipsEmptyTitles(t *testing.T) {
	selector := NewSelector(nil)

	candidates := []models.Candidate{
		{ID: 7, Title: "", AlternateTitles: []string{"", "Vinland Saga"}},
	}

	result := selector.SelectBest("Vinland Saga", candidates)
	if result.Candidate == nil || result.Candidate.ID != 7 {
		t.Fatalf("expected candidate matched through non-empty alternate, got %+v", result.Candidate)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %v", result.Score)
	}
}
