package search

import (
	"sort"

	"github.com/hyperjump/tansaku/internal/content"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// ScoreHits converts store hits into results with similarity 1 - distance,
// dropping those below minSimilarity. Scores are rounded to 4 decimals after
// filtering, so a kept score within 0.00005 of the threshold can display
// below it (0.700049 with a threshold of 0.70004 surfaces as 0.7).
func ScoreHits(hits []vector.Hit, minSimilarity float64) []*models.SearchResult {
	out := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		score := 1 - h.Distance
		if score < minSimilarity {
			continue
		}
		out = append(out, &models.SearchResult{
			ContentItem:     *content.ItemFromHit(h),
			SimilarityScore: utils.Round(score, 4),
		})
	}
	return out
}

// Merge combines per-variant results in slot order. The first occurrence of
// an id wins and later duplicates never change its score. The merged list is
// sorted by score descending, keeping merge order for ties.
func Merge(slots [][]*models.SearchResult) []*models.SearchResult {
	seen := make(map[string]bool)
	var merged []*models.SearchResult
	for _, slot := range slots {
		for _, r := range slot {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SimilarityScore > merged[j].SimilarityScore
	})
	if merged == nil {
		merged = []*models.SearchResult{}
	}
	return merged
}
