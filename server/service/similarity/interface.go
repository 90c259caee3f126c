// Package similarity implements duplicate detection for wish texts:
// incremental precomputation of pairwise scores on record writes,
// interactive duplicate checks backed by the cached pairs, and the
// lifecycle hooks the CRUD layer fires after create/update/delete.
package similarity

import (
	"context"
	"errors"

	"github.com/wishfactory/wishfactory/plugin/similarity"
	"github.com/wishfactory/wishfactory/store"
)

// ErrLanguageRequired is returned when a check is issued without a
// language filter. Language is the comparison partition key; comparing
// across languages would produce meaningless scores, so it is never
// silently defaulted.
var ErrLanguageRequired = errors.New("similarity check requires a language filter")

// Store is the persistence surface the similarity services consume.
// *store.Store satisfies it.
type Store interface {
	GetWish(ctx context.Context, find *store.FindWish) (*store.Wish, error)
	ListWishes(ctx context.Context, find *store.FindWish) ([]*store.Wish, error)

	UpsertSimilarityScore(ctx context.Context, upsert *store.SimilarityScore) (*store.SimilarityScore, error)
	UpdateSimilarityScore(ctx context.Context, update *store.UpdateSimilarityScore) error
	GetSimilarityScore(ctx context.Context, idA, idB int32) (*store.SimilarityScore, error)
	ListSimilarityScoresInvolving(ctx context.Context, wishID int32, minOverall *float64) ([]*store.SimilarityScore, error)
	ListStaleSimilarityScores(ctx context.Context, cutoffTs int64, limit int) ([]*store.SimilarityScore, error)
	DeleteSimilarityScoresInvolving(ctx context.Context, wishID int32) (int64, error)
	DeleteSimilarityScoresOlderThan(ctx context.Context, cutoffTs int64) (int64, error)
	GetSimilarityStats(ctx context.Context, find *store.FindSimilarityStats) (*store.SimilarityStats, error)
}

// CheckFilters narrows the candidate set of a similarity check.
type CheckFilters struct {
	// Language is required. Wishes are only compared within one
	// language partition.
	Language string
	// Type and EventType optionally narrow the partition further.
	Type      string
	EventType string
	// ExcludeID marks the check as "for an existing wish": that wish
	// is excluded from its own candidate set and its cached pairwise
	// rows may serve the result directly.
	ExcludeID *int32
}

// SimilarWish is one ranked match of a similarity check.
type SimilarWish struct {
	Wish       *store.Wish          `json:"wish"`
	Similarity float64              `json:"similarity"`
	Algorithm  similarity.Algorithm `json:"algorithm"`
}

// CheckResult is the outcome of one similarity check. It is ephemeral:
// cached in process memory for a few minutes, never persisted.
type CheckResult struct {
	SimilarWishes    []SimilarWish `json:"similar_wishes"`
	IsDuplicate      bool          `json:"is_duplicate"`
	Suggestions      []string      `json:"suggestions"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// StatsResult is the aggregate similarity report for one language.
type StatsResult struct {
	Language       string  `json:"language"`
	WishCount      int     `json:"wish_count"`
	DuplicatePairs int     `json:"duplicate_pairs"`
	AverageScore   float64 `json:"average_score"`
	// Sampled is true when the legacy pairwise fallback had to limit
	// itself to a sample of the corpus.
	Sampled bool `json:"sampled,omitempty"`
}

// PrecomputeReport summarizes one precomputation pass.
type PrecomputeReport struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// RefreshReport summarizes one stale-row refresh pass.
type RefreshReport struct {
	Refreshed int `json:"refreshed"`
	Dropped   int `json:"dropped"`
	Errors    int `json:"errors"`
}
