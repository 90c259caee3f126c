package store

import (
	"context"

	"github.com/pkg/errors"
)

// SimilarityScore is the cached similarity result for one unordered pair
// of wishes. Exactly one row is stored per pair, with WishIDA < WishIDB.
type SimilarityScore struct {
	ID          int32
	WishIDA     int32
	WishIDB     int32
	Cosine      float64
	Jaccard     float64
	Levenshtein float64
	TFIDF       float64
	// Overall is always max(Cosine, Jaccard, Levenshtein, TFIDF).
	// It is recomputed on every write, never stored independently.
	Overall    float64
	ComputedTs int64
}

// ComputeOverall returns the maximum of the component scores.
func (s *SimilarityScore) ComputeOverall() float64 {
	overall := s.Cosine
	for _, v := range []float64{s.Jaccard, s.Levenshtein, s.TFIDF} {
		if v > overall {
			overall = v
		}
	}
	return overall
}

// OtherWishID returns the pair member that is not the given wish.
func (s *SimilarityScore) OtherWishID(wishID int32) int32 {
	if s.WishIDA == wishID {
		return s.WishIDB
	}
	return s.WishIDA
}

// NormalizePair orders two wish IDs into the canonical (low, high) form
// used as the unordered pair key.
func NormalizePair(a, b int32) (int32, int32) {
	if a > b {
		return b, a
	}
	return a, b
}

// UpdateSimilarityScore is the update request for an existing pairwise
// row, used by the batch refresh to overwrite stale components.
type UpdateSimilarityScore struct {
	ID          int32
	Cosine      float64
	Jaccard     float64
	Levenshtein float64
	TFIDF       float64
	Overall     float64
	ComputedTs  int64
}

// FindSimilarityScore is the find condition for similarity scores.
type FindSimilarityScore struct {
	// WishIDA and WishIDB select a single pair. They are normalized
	// before querying, so callers may pass them in either order.
	WishIDA *int32
	WishIDB *int32

	// WishID selects all rows involving one wish, on either side of
	// the pair.
	WishID *int32

	// MinOverall filters out rows below the given overall score.
	MinOverall *float64

	Limit *int
}

// FindSimilarityStats is the query for aggregate similarity statistics.
type FindSimilarityStats struct {
	Language string
	// DuplicateThreshold is the overall cutoff above which a pair is
	// counted as duplicate-level.
	DuplicateThreshold float64
}

// SimilarityStats is the aggregate similarity report for one language.
type SimilarityStats struct {
	WishCount      int
	CachedPairs    int
	DuplicatePairs int
	AverageOverall float64
}

// UpsertSimilarityScore writes a pairwise score row, first writer wins.
// When a row for the unordered pair already exists, the existing row is
// returned unchanged and the new values are dropped. Concurrent
// computations of the same pair are expected; this is how their race is
// absorbed.
func (s *Store) UpsertSimilarityScore(ctx context.Context, upsert *SimilarityScore) (*SimilarityScore, error) {
	if upsert.WishIDA == upsert.WishIDB {
		return nil, errors.New("cannot store a self-pair similarity score")
	}
	upsert.WishIDA, upsert.WishIDB = NormalizePair(upsert.WishIDA, upsert.WishIDB)
	upsert.Overall = upsert.ComputeOverall()
	return s.driver.UpsertSimilarityScore(ctx, upsert)
}

// UpdateSimilarityScore overwrites the components of an existing
// pairwise row. Overall is recomputed from the components.
func (s *Store) UpdateSimilarityScore(ctx context.Context, update *UpdateSimilarityScore) error {
	row := SimilarityScore{
		Cosine:      update.Cosine,
		Jaccard:     update.Jaccard,
		Levenshtein: update.Levenshtein,
		TFIDF:       update.TFIDF,
	}
	update.Overall = row.ComputeOverall()
	return s.driver.UpdateSimilarityScore(ctx, update)
}

// GetSimilarityScore returns the cached row for one unordered pair, or
// nil when the pair has not been computed.
func (s *Store) GetSimilarityScore(ctx context.Context, idA, idB int32) (*SimilarityScore, error) {
	a, b := NormalizePair(idA, idB)
	return s.driver.GetSimilarityScore(ctx, &FindSimilarityScore{WishIDA: &a, WishIDB: &b})
}

// ListSimilarityScoresInvolving returns all cached rows referencing the
// wish, ordered by overall score descending.
func (s *Store) ListSimilarityScoresInvolving(ctx context.Context, wishID int32, minOverall *float64) ([]*SimilarityScore, error) {
	return s.driver.ListSimilarityScores(ctx, &FindSimilarityScore{WishID: &wishID, MinOverall: minOverall})
}

// DeleteSimilarityScoresInvolving removes every cached row referencing
// the wish. Returns the number of removed rows.
func (s *Store) DeleteSimilarityScoresInvolving(ctx context.Context, wishID int32) (int64, error) {
	return s.driver.DeleteSimilarityScoresInvolving(ctx, wishID)
}

// DeleteSimilarityScoresOlderThan removes cached rows computed before
// the cutoff timestamp. Returns the number of removed rows.
func (s *Store) DeleteSimilarityScoresOlderThan(ctx context.Context, cutoffTs int64) (int64, error) {
	return s.driver.DeleteSimilarityScoresOlderThan(ctx, cutoffTs)
}

// ListStaleSimilarityScores returns cached rows computed before the
// cutoff timestamp, oldest first.
func (s *Store) ListStaleSimilarityScores(ctx context.Context, cutoffTs int64, limit int) ([]*SimilarityScore, error) {
	return s.driver.ListStaleSimilarityScores(ctx, cutoffTs, limit)
}

// GetSimilarityStats returns aggregate similarity statistics for one
// language partition.
func (s *Store) GetSimilarityStats(ctx context.Context, find *FindSimilarityStats) (*SimilarityStats, error) {
	return s.driver.GetSimilarityStats(ctx, find)
}
