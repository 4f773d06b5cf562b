package search

import (
	"testing"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
)

func result(id string, score float64) *models.SearchResult {
	return &models.SearchResult{ContentItem: models.ContentItem{ID: id}, SimilarityScore: score}
}

func TestScoreHits(t *testing.T) {
	hits := []vector.Hit{
		{ID: "a", Distance: 0.12344},
		{ID: "b", Distance: 0.5},
		{ID: "c", Distance: 0.9},
	}
	got := ScoreHits(hits, 0.5)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].SimilarityScore != 0.8766 {
		t.Errorf("score not rounded to 4 decimals: %v", got[0].SimilarityScore)
	}
	if got[1].ID != "b" || got[1].SimilarityScore != 0.5 {
		t.Errorf("boundary score should be kept: %+v", got[1])
	}
}

func TestScoreHits_roundsAfterThreshold(t *testing.T) {
	got := ScoreHits([]vector.Hit{{ID: "a", Distance: 1 - 0.700049}}, 0.70004)
	if len(got) != 1 {
		t.Fatalf("score above threshold should be kept, got %d results", len(got))
	}
	if got[0].SimilarityScore != 0.7 {
		t.Errorf("expected rounded display score 0.7, got %v", got[0].SimilarityScore)
	}
}

func TestMerge(t *testing.T) {
	slots := [][]*models.SearchResult{
		{result("a", 0.5), result("b", 0.7)},
		nil,
		{result("a", 0.99), result("c", 0.7), result("d", 0.9)},
	}
	got := Merge(slots)
	want := []struct {
		id    string
		score float64
	}{{"d", 0.9}, {"b", 0.7}, {"c", 0.7}, {"a", 0.5}}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].ID != w.id || got[i].SimilarityScore != w.score {
			t.Errorf("result %d = %s/%v, want %s/%v", i, got[i].ID, got[i].SimilarityScore, w.id, w.score)
		}
	}
}

func TestMerge_empty(t *testing.T) {
	got := Merge(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
