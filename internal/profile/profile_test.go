package profile

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("WISHFACTORY_MODE", "prod")
	t.Setenv("WISHFACTORY_DRIVER", "postgres")
	t.Setenv("WISHFACTORY_DSN", "postgres://localhost/wishfactory")
	t.Setenv("WISHFACTORY_SIMILARITY_MAX_RESULTS", "10")
	t.Setenv("WISHFACTORY_SIMILARITY_DUPLICATE_THRESHOLD", "0.85")
	t.Setenv("WISHFACTORY_SIMILARITY_COSINE_THRESHOLD", "0.7")
	t.Setenv("WISHFACTORY_SIMILARITY_JACCARD_THRESHOLD", "0.5")
	t.Setenv("WISHFACTORY_SIMILARITY_LEVENSHTEIN_THRESHOLD", "0.65")
	t.Setenv("WISHFACTORY_SIMILARITY_TFIDF_THRESHOLD", "0.8")
	t.Setenv("WISHFACTORY_SIMILARITY_STATS_SCAN_LIMIT", "500")
	t.Setenv("WISHFACTORY_SIMILARITY_CACHE_TTL", "2m")
	t.Setenv("WISHFACTORY_SIMILARITY_STALE_AGE", "12h")
	t.Setenv("WISHFACTORY_SIMILARITY_CLEANUP_AGE", "72h")
	t.Setenv("WISHFACTORY_MAINTENANCE_INTERVAL", "30m")

	profile := &Profile{}
	profile.FromEnv()

	if profile.Mode != "prod" {
		t.Errorf("Mode: expected %q, got %q", "prod", profile.Mode)
	}
	if profile.Driver != "postgres" {
		t.Errorf("Driver: expected %q, got %q", "postgres", profile.Driver)
	}
	if profile.SimilarityMaxResults != 10 {
		t.Errorf("SimilarityMaxResults: expected 10, got %d", profile.SimilarityMaxResults)
	}
	if profile.SimilarityDuplicateThreshold != 0.85 {
		t.Errorf("SimilarityDuplicateThreshold: expected 0.85, got %v", profile.SimilarityDuplicateThreshold)
	}
	if profile.SimilarityCosineThreshold != 0.7 {
		t.Errorf("SimilarityCosineThreshold: expected 0.7, got %v", profile.SimilarityCosineThreshold)
	}
	if profile.SimilarityJaccardThreshold != 0.5 {
		t.Errorf("SimilarityJaccardThreshold: expected 0.5, got %v", profile.SimilarityJaccardThreshold)
	}
	if profile.SimilarityLevenshteinThreshold != 0.65 {
		t.Errorf("SimilarityLevenshteinThreshold: expected 0.65, got %v", profile.SimilarityLevenshteinThreshold)
	}
	if profile.SimilarityTFIDFThreshold != 0.8 {
		t.Errorf("SimilarityTFIDFThreshold: expected 0.8, got %v", profile.SimilarityTFIDFThreshold)
	}
	if profile.SimilarityStatsScanLimit != 500 {
		t.Errorf("SimilarityStatsScanLimit: expected 500, got %d", profile.SimilarityStatsScanLimit)
	}
	if profile.SimilarityCacheTTL != 2*time.Minute {
		t.Errorf("SimilarityCacheTTL: expected 2m, got %v", profile.SimilarityCacheTTL)
	}
	if profile.SimilarityStaleAge != 12*time.Hour {
		t.Errorf("SimilarityStaleAge: expected 12h, got %v", profile.SimilarityStaleAge)
	}
	if profile.SimilarityCleanupAge != 72*time.Hour {
		t.Errorf("SimilarityCleanupAge: expected 72h, got %v", profile.SimilarityCleanupAge)
	}
	if profile.MaintenanceInterval != 30*time.Minute {
		t.Errorf("MaintenanceInterval: expected 30m, got %v", profile.MaintenanceInterval)
	}
}

func TestFromEnvInvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("WISHFACTORY_SIMILARITY_MAX_RESULTS", "not-a-number")
	t.Setenv("WISHFACTORY_SIMILARITY_DUPLICATE_THRESHOLD", "high")
	t.Setenv("WISHFACTORY_SIMILARITY_CACHE_TTL", "soon")

	profile := &Profile{SimilarityMaxResults: 5, SimilarityDuplicateThreshold: 0.9, SimilarityCacheTTL: 5 * time.Minute}
	profile.FromEnv()

	if profile.SimilarityMaxResults != 5 {
		t.Errorf("SimilarityMaxResults: expected 5, got %d", profile.SimilarityMaxResults)
	}
	if profile.SimilarityDuplicateThreshold != 0.9 {
		t.Errorf("SimilarityDuplicateThreshold: expected 0.9, got %v", profile.SimilarityDuplicateThreshold)
	}
	if profile.SimilarityCacheTTL != 5*time.Minute {
		t.Errorf("SimilarityCacheTTL: expected 5m, got %v", profile.SimilarityCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	dataDir := t.TempDir()

	profile := &Profile{Mode: "dev", Data: dataDir, Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if profile.DSN == "" {
		t.Fatal("expected sqlite DSN to be derived from the data dir")
	}
	if filepath.Dir(profile.DSN) != dataDir {
		t.Errorf("DSN %q should live in data dir %q", profile.DSN, dataDir)
	}
	if !strings.HasSuffix(profile.DSN, "wishfactory_dev.db") {
		t.Errorf("DSN %q should carry the mode in its filename", profile.DSN)
	}
}

func TestValidateUnknownModeFallsBackToDemo(t *testing.T) {
	profile := &Profile{Mode: "staging", Data: t.TempDir(), Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("Mode: expected %q, got %q", "demo", profile.Mode)
	}
}
