package similarity

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/wishfactory/wishfactory/plugin/similarity"
	"github.com/wishfactory/wishfactory/store"
)

// refreshBatchSize bounds how many stale rows one refresh pass reloads.
const refreshBatchSize = 256

// PrecomputeService computes pairwise similarity scores of a wish
// against its eligible comparison set and maintains the cached rows.
type PrecomputeService struct {
	store  Store
	scorer *similarity.Scorer
	config Config
}

// NewPrecomputeService creates a new PrecomputeService.
func NewPrecomputeService(s Store, config Config) *PrecomputeService {
	config = config.normalized()
	return &PrecomputeService{
		store:  s,
		scorer: similarity.NewScorer(config.Thresholds),
		config: config,
	}
}

// PrecomputeForWish scores the wish against every eligible candidate
// and caches the results. Pairs already cached are skipped, so the call
// is idempotent; pass force to recompute from scratch (the cached rows
// are invalidated first). Per-pair failures are logged and do not abort
// the remaining pairs.
func (s *PrecomputeService) PrecomputeForWish(ctx context.Context, wish *store.Wish, force bool) (*PrecomputeReport, error) {
	report := &PrecomputeReport{}

	if wish == nil {
		return nil, errors.New("wish is nil")
	}
	if !wish.Status.ComparisonEligible() {
		return report, nil
	}

	if force {
		if err := s.Invalidate(ctx, wish.ID); err != nil {
			return nil, err
		}
	}

	candidates, err := s.loadEligibleSet(ctx, wish)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load comparison set for wish %d", wish.ID)
	}
	if len(candidates) == 0 {
		return report, nil
	}

	corpus := make([]string, len(candidates))
	for i, candidate := range candidates {
		corpus[i] = candidate.Text
	}

	for _, candidate := range candidates {
		if !force {
			cached, err := s.store.GetSimilarityScore(ctx, wish.ID, candidate.ID)
			if err != nil {
				slog.Warn("failed to read cached similarity score",
					"wish_id", wish.ID, "candidate_id", candidate.ID, "error", err)
				report.Errors++
				continue
			}
			if cached != nil {
				report.Skipped++
				continue
			}
		}

		row := s.scorePair(wish, &candidate, corpus)
		if _, err := s.store.UpsertSimilarityScore(ctx, row); err != nil {
			slog.Warn("failed to upsert similarity score",
				"wish_id", wish.ID, "candidate_id", candidate.ID, "error", err)
			report.Errors++
			continue
		}
		report.Processed++
	}

	return report, nil
}

// Invalidate deletes every cached row involving the wish. Called before
// a forced recompute and when a wish is deleted.
func (s *PrecomputeService) Invalidate(ctx context.Context, wishID int32) error {
	deleted, err := s.store.DeleteSimilarityScoresInvolving(ctx, wishID)
	if err != nil {
		return errors.Wrapf(err, "failed to invalidate similarity scores for wish %d", wishID)
	}
	if deleted > 0 {
		slog.Debug("invalidated cached similarity scores", "wish_id", wishID, "deleted", deleted)
	}
	return nil
}

// RefreshStale recomputes cached rows older than maxAge, overwriting
// them in place. Rows whose members have been deleted or archived in
// the meantime are dropped. Designed for a low-frequency batch job.
func (s *PrecomputeService) RefreshStale(ctx context.Context, maxAge time.Duration) (*RefreshReport, error) {
	report := &RefreshReport{}

	cutoff := time.Now().Add(-maxAge).Unix()
	stale, err := s.store.ListStaleSimilarityScores(ctx, cutoff, refreshBatchSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stale similarity scores")
	}
	if len(stale) == 0 {
		return report, nil
	}

	// Member texts of the whole batch double as the TF-IDF corpus, so
	// the refresh does not reload a full partition per row.
	wishes := make(map[int32]*store.Wish)
	var corpus []string
	for _, row := range stale {
		for _, id := range []int32{row.WishIDA, row.WishIDB} {
			if _, ok := wishes[id]; ok {
				continue
			}
			wish, err := s.store.GetWish(ctx, &store.FindWish{ID: &id})
			if err != nil {
				slog.Warn("failed to load wish for stale refresh", "wish_id", id, "error", err)
				continue
			}
			wishes[id] = wish
			if wish != nil {
				corpus = append(corpus, wish.Text)
			}
		}
	}

	for _, row := range stale {
		wishA := wishes[row.WishIDA]
		wishB := wishes[row.WishIDB]
		if wishA == nil || wishB == nil || !wishA.Status.ComparisonEligible() || !wishB.Status.ComparisonEligible() {
			dropID := row.WishIDA
			if wishA != nil && wishA.Status.ComparisonEligible() {
				dropID = row.WishIDB
			}
			if err := s.Invalidate(ctx, dropID); err != nil {
				slog.Warn("failed to drop orphaned similarity scores", "wish_id", dropID, "error", err)
				report.Errors++
				continue
			}
			report.Dropped++
			continue
		}

		fresh := s.scorePair(wishA, &similarity.Candidate{ID: wishB.ID, Text: wishB.Text}, corpus)
		update := &store.UpdateSimilarityScore{
			ID:          row.ID,
			Cosine:      fresh.Cosine,
			Jaccard:     fresh.Jaccard,
			Levenshtein: fresh.Levenshtein,
			TFIDF:       fresh.TFIDF,
			ComputedTs:  fresh.ComputedTs,
		}
		if err := s.store.UpdateSimilarityScore(ctx, update); err != nil {
			slog.Warn("failed to refresh similarity score",
				"pair_a", row.WishIDA, "pair_b", row.WishIDB, "error", err)
			report.Errors++
			continue
		}
		report.Refreshed++
	}

	return report, nil
}

// Cleanup deletes cached rows older than the configured cleanup age,
// bounding pairwise-table growth. Returns the number of deleted rows.
func (s *PrecomputeService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.CleanupAge).Unix()
	deleted, err := s.store.DeleteSimilarityScoresOlderThan(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up old similarity scores")
	}
	return deleted, nil
}

// loadEligibleSet returns the comparison candidates for a wish: same
// language, same type/event filters when the wish carries them,
// excluding archived wishes and the wish itself.
func (s *PrecomputeService) loadEligibleSet(ctx context.Context, wish *store.Wish) ([]similarity.Candidate, error) {
	find := &store.FindWish{
		Language:      &wish.Language,
		ExcludeStatus: statusPtr(store.Archived),
	}
	if wish.ID != 0 {
		find.ExcludeID = &wish.ID
	}
	if wish.Type != "" {
		find.Type = &wish.Type
	}
	if wish.EventType != "" {
		find.EventType = &wish.EventType
	}

	eligible, err := s.store.ListWishes(ctx, find)
	if err != nil {
		return nil, err
	}

	candidates := make([]similarity.Candidate, 0, len(eligible))
	for _, candidate := range eligible {
		if candidate.ID == wish.ID {
			continue
		}
		candidates = append(candidates, similarity.Candidate{ID: candidate.ID, Text: candidate.Text})
	}
	return candidates, nil
}

// scorePair runs every metric on a pair and assembles the row to store.
func (s *PrecomputeService) scorePair(wish *store.Wish, candidate *similarity.Candidate, corpus []string) *store.SimilarityScore {
	row := &store.SimilarityScore{
		WishIDA:    wish.ID,
		WishIDB:    candidate.ID,
		ComputedTs: time.Now().Unix(),
	}
	for _, result := range s.scorer.CalculateSimilarity(wish.Text, candidate.Text, corpus) {
		switch result.Algorithm {
		case similarity.AlgorithmCosine:
			row.Cosine = result.Similarity
		case similarity.AlgorithmJaccard:
			row.Jaccard = result.Similarity
		case similarity.AlgorithmLevenshtein:
			row.Levenshtein = result.Similarity
		case similarity.AlgorithmTFIDF:
			row.TFIDF = result.Similarity
		}
	}
	return row
}

func statusPtr(status store.Status) *store.Status {
	return &status
}
