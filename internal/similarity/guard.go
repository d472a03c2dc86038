package similarity

import (
	"fmt"
	"log/slog"

	"github.com/seoforge/seoforge/internal/store"
)

// Guard compares a draft against every prior publication of its site and
// persists one immutable SimilarityRecord per comparison.
type Guard struct {
	store  *store.Store
	scorer Scorer
}

// NewGuard wires a guard over the store with the given scorer.
func NewGuard(st *store.Store, scorer Scorer) *Guard {
	if scorer == nil {
		scorer = NewTFIDFScorer()
	}
	return &Guard{store: st, scorer: scorer}
}

// Evaluate scores draft.Body against the site's published corpus and returns
// the maximum pairwise score. A site with no publications scores 0.
func (g *Guard) Evaluate(draft *store.DraftRecord) (float64, error) {
	corpus, err := g.store.PublishedCorpus(draft.SiteID)
	if err != nil {
		return 0, fmt.Errorf("similarity corpus: %w", err)
	}
	if len(corpus) == 0 {
		return 0, nil
	}

	scores := make(map[int64]float64, len(corpus))
	maxScore := 0.0
	for pubID, body := range corpus {
		score := g.scorer.Score(draft.Body, body)
		scores[pubID] = score
		if score > maxScore {
			maxScore = score
		}
	}
	if err := g.store.InsertSimilarityRecords(draft.ID, scores); err != nil {
		return 0, fmt.Errorf("persist similarity records: %w", err)
	}

	slog.Debug("Similarity evaluated",
		"draft", draft.DraftUID, "site", draft.SiteID,
		"comparisons", len(scores), "max", maxScore)
	return maxScore, nil
}
