package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the similarity backend.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where wishfactory stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// Similarity configuration. Zero values fall back to the
	// defaults in server/service/similarity.
	SimilarityMaxResults           int
	SimilarityDuplicateThreshold   float64
	SimilarityCosineThreshold      float64
	SimilarityJaccardThreshold     float64
	SimilarityLevenshteinThreshold float64
	SimilarityTFIDFThreshold       float64
	SimilarityCacheTTL             time.Duration
	SimilarityStaleAge             time.Duration
	SimilarityCleanupAge           time.Duration
	SimilarityStatsScanLimit       int
	// MaintenanceInterval is how often the batch maintenance runner fires.
	MaintenanceInterval time.Duration
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from WISHFACTORY_* environment variables.
func (p *Profile) FromEnv() {
	getFloatEnv := func(key string, defaultValue float64) float64 {
		if val := os.Getenv(key); val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
		return defaultValue
	}
	getIntEnv := func(key string, defaultValue int) int {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
		return defaultValue
	}
	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				return d
			}
		}
		return defaultValue
	}

	p.Mode = getEnvOrDefault("WISHFACTORY_MODE", p.Mode)
	p.Data = getEnvOrDefault("WISHFACTORY_DATA", p.Data)
	p.DSN = getEnvOrDefault("WISHFACTORY_DSN", p.DSN)
	p.Driver = getEnvOrDefault("WISHFACTORY_DRIVER", p.Driver)

	p.SimilarityMaxResults = getIntEnv("WISHFACTORY_SIMILARITY_MAX_RESULTS", p.SimilarityMaxResults)
	p.SimilarityDuplicateThreshold = getFloatEnv("WISHFACTORY_SIMILARITY_DUPLICATE_THRESHOLD", p.SimilarityDuplicateThreshold)
	p.SimilarityCosineThreshold = getFloatEnv("WISHFACTORY_SIMILARITY_COSINE_THRESHOLD", p.SimilarityCosineThreshold)
	p.SimilarityJaccardThreshold = getFloatEnv("WISHFACTORY_SIMILARITY_JACCARD_THRESHOLD", p.SimilarityJaccardThreshold)
	p.SimilarityLevenshteinThreshold = getFloatEnv("WISHFACTORY_SIMILARITY_LEVENSHTEIN_THRESHOLD", p.SimilarityLevenshteinThreshold)
	p.SimilarityTFIDFThreshold = getFloatEnv("WISHFACTORY_SIMILARITY_TFIDF_THRESHOLD", p.SimilarityTFIDFThreshold)
	p.SimilarityCacheTTL = getDurationEnv("WISHFACTORY_SIMILARITY_CACHE_TTL", p.SimilarityCacheTTL)
	p.SimilarityStaleAge = getDurationEnv("WISHFACTORY_SIMILARITY_STALE_AGE", p.SimilarityStaleAge)
	p.SimilarityCleanupAge = getDurationEnv("WISHFACTORY_SIMILARITY_CLEANUP_AGE", p.SimilarityCleanupAge)
	p.SimilarityStatsScanLimit = getIntEnv("WISHFACTORY_SIMILARITY_STATS_SCAN_LIMIT", p.SimilarityStatsScanLimit)
	p.MaintenanceInterval = getDurationEnv("WISHFACTORY_MAINTENANCE_INTERVAL", p.MaintenanceInterval)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/wishfactory"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("wishfactory_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
