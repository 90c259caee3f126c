package similarity

import (
	"time"

	"github.com/wishfactory/wishfactory/internal/profile"
	"github.com/wishfactory/wishfactory/plugin/similarity"
)

const (
	// DefaultMaxResults caps the ranked match list of a check.
	DefaultMaxResults = 5
	// DefaultDuplicateThreshold is the overall cutoff above which the
	// top match flags the input as a likely duplicate.
	DefaultDuplicateThreshold = 0.9
	// DefaultCacheTTL bounds the ephemeral per-process result cache.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultStaleAge is the age beyond which a cached pairwise score
	// is recomputed by the batch refresh.
	DefaultStaleAge = 24 * time.Hour
	// DefaultCleanupAge is the age beyond which cached rows are
	// deleted outright by periodic maintenance.
	DefaultCleanupAge = 7 * 24 * time.Hour
	// DefaultStatsScanLimit is the corpus-size cutover for the legacy
	// O(n²) stats fallback; above it the fallback samples instead of
	// scanning every pair.
	DefaultStatsScanLimit = 1000
)

// Config carries the tunables of the similarity services. The zero
// value of any field falls back to its default.
type Config struct {
	MaxResults         int
	DuplicateThreshold float64
	Thresholds         similarity.Thresholds
	CacheTTL           time.Duration
	StaleAge           time.Duration
	CleanupAge         time.Duration
	StatsScanLimit     int
}

// DefaultConfig returns the default similarity configuration.
func DefaultConfig() Config {
	return Config{
		MaxResults:         DefaultMaxResults,
		DuplicateThreshold: DefaultDuplicateThreshold,
		Thresholds:         similarity.DefaultThresholds,
		CacheTTL:           DefaultCacheTTL,
		StaleAge:           DefaultStaleAge,
		CleanupAge:         DefaultCleanupAge,
		StatsScanLimit:     DefaultStatsScanLimit,
	}
}

// ConfigFromProfile builds a Config from the deployment profile,
// falling back to defaults for unset values.
func ConfigFromProfile(p *profile.Profile) Config {
	config := DefaultConfig()
	if p == nil {
		return config
	}
	if p.SimilarityMaxResults > 0 {
		config.MaxResults = p.SimilarityMaxResults
	}
	if p.SimilarityDuplicateThreshold > 0 {
		config.DuplicateThreshold = p.SimilarityDuplicateThreshold
	}
	if p.SimilarityCosineThreshold > 0 {
		config.Thresholds.Cosine = p.SimilarityCosineThreshold
	}
	if p.SimilarityJaccardThreshold > 0 {
		config.Thresholds.Jaccard = p.SimilarityJaccardThreshold
	}
	if p.SimilarityLevenshteinThreshold > 0 {
		config.Thresholds.Levenshtein = p.SimilarityLevenshteinThreshold
	}
	if p.SimilarityTFIDFThreshold > 0 {
		config.Thresholds.TFIDF = p.SimilarityTFIDFThreshold
	}
	if p.SimilarityCacheTTL > 0 {
		config.CacheTTL = p.SimilarityCacheTTL
	}
	if p.SimilarityStaleAge > 0 {
		config.StaleAge = p.SimilarityStaleAge
	}
	if p.SimilarityCleanupAge > 0 {
		config.CleanupAge = p.SimilarityCleanupAge
	}
	if p.SimilarityStatsScanLimit > 0 {
		config.StatsScanLimit = p.SimilarityStatsScanLimit
	}
	return config
}

func (c Config) normalized() Config {
	defaults := DefaultConfig()
	if c.MaxResults <= 0 {
		c.MaxResults = defaults.MaxResults
	}
	if c.DuplicateThreshold <= 0 {
		c.DuplicateThreshold = defaults.DuplicateThreshold
	}
	if (c.Thresholds == similarity.Thresholds{}) {
		c.Thresholds = defaults.Thresholds
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.StaleAge <= 0 {
		c.StaleAge = defaults.StaleAge
	}
	if c.CleanupAge <= 0 {
		c.CleanupAge = defaults.CleanupAge
	}
	if c.StatsScanLimit <= 0 {
		c.StatsScanLimit = defaults.StatsScanLimit
	}
	return c
}
