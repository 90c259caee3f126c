package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wishfactory/wishfactory/internal/profile"
	"github.com/wishfactory/wishfactory/plugin/similarity"
)

func TestConfigFromProfileNil(t *testing.T) {
	config := ConfigFromProfile(nil)
	assert.Equal(t, DefaultConfig(), config)
}

func TestConfigFromProfileOverrides(t *testing.T) {
	p := &profile.Profile{
		SimilarityMaxResults:           10,
		SimilarityDuplicateThreshold:   0.85,
		SimilarityCosineThreshold:      0.7,
		SimilarityJaccardThreshold:     0.5,
		SimilarityLevenshteinThreshold: 0.65,
		SimilarityTFIDFThreshold:       0.8,
		SimilarityCacheTTL:             2 * time.Minute,
		SimilarityStaleAge:             12 * time.Hour,
		SimilarityCleanupAge:           72 * time.Hour,
		SimilarityStatsScanLimit:       500,
	}

	config := ConfigFromProfile(p)
	assert.Equal(t, 10, config.MaxResults)
	assert.Equal(t, 0.85, config.DuplicateThreshold)
	assert.Equal(t, similarity.Thresholds{
		Cosine:      0.7,
		Jaccard:     0.5,
		Levenshtein: 0.65,
		TFIDF:       0.8,
	}, config.Thresholds)
	assert.Equal(t, 2*time.Minute, config.CacheTTL)
	assert.Equal(t, 12*time.Hour, config.StaleAge)
	assert.Equal(t, 72*time.Hour, config.CleanupAge)
	assert.Equal(t, 500, config.StatsScanLimit)
}

func TestConfigFromProfilePartialThresholds(t *testing.T) {
	// Overriding one metric keeps the defaults for the others.
	p := &profile.Profile{SimilarityJaccardThreshold: 0.4}

	config := ConfigFromProfile(p)
	assert.Equal(t, 0.4, config.Thresholds.Jaccard)
	assert.Equal(t, similarity.DefaultThresholds.Cosine, config.Thresholds.Cosine)
	assert.Equal(t, similarity.DefaultThresholds.Levenshtein, config.Thresholds.Levenshtein)
	assert.Equal(t, similarity.DefaultThresholds.TFIDF, config.Thresholds.TFIDF)
	assert.Equal(t, DefaultStatsScanLimit, config.StatsScanLimit)
}
