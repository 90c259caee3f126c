package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Wish model related methods.
	CreateWish(ctx context.Context, create *Wish) (*Wish, error)
	ListWishes(ctx context.Context, find *FindWish) ([]*Wish, error)
	UpdateWish(ctx context.Context, update *UpdateWish) error
	DeleteWish(ctx context.Context, delete *DeleteWish) error

	// SimilarityScore model related methods.
	UpsertSimilarityScore(ctx context.Context, upsert *SimilarityScore) (*SimilarityScore, error)
	UpdateSimilarityScore(ctx context.Context, update *UpdateSimilarityScore) error
	GetSimilarityScore(ctx context.Context, find *FindSimilarityScore) (*SimilarityScore, error)
	ListSimilarityScores(ctx context.Context, find *FindSimilarityScore) ([]*SimilarityScore, error)
	DeleteSimilarityScoresInvolving(ctx context.Context, wishID int32) (int64, error)
	DeleteSimilarityScoresOlderThan(ctx context.Context, cutoffTs int64) (int64, error)
	ListStaleSimilarityScores(ctx context.Context, cutoffTs int64, limit int) ([]*SimilarityScore, error)

	// GetSimilarityStats returns aggregate similarity statistics for a language
	// partition, derived from the cached pairwise table.
	GetSimilarityStats(ctx context.Context, stats *FindSimilarityStats) (*SimilarityStats, error)
}
