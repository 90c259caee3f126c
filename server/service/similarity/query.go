package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/wishfactory/wishfactory/plugin/similarity"
	"github.com/wishfactory/wishfactory/internal/observability"
	"github.com/wishfactory/wishfactory/store"
)

// QueryService answers interactive similarity checks. It consults the
// cached pairwise rows first and falls back to live computation over a
// freshly loaded candidate set; results are kept in a short-lived
// in-process cache for repeated identical queries.
type QueryService struct {
	store      Store
	scorer     *similarity.Scorer
	precompute *PrecomputeService
	config     Config

	// resultCache holds recent CheckResults keyed by normalized text
	// plus filters. A miss only costs a recomputation, so no
	// cross-process coherence is needed.
	resultCache *gocache.Cache

	// running tracks wish IDs with a background precomputation in
	// flight, so concurrent queries do not spawn duplicate work. A
	// duplicate trigger would be absorbed by the idempotent upsert
	// anyway; this is purely a cost saver.
	mu      sync.Mutex
	running map[int32]bool
}

// NewQueryService creates a new QueryService.
func NewQueryService(s Store, precompute *PrecomputeService, config Config) *QueryService {
	config = config.normalized()
	return &QueryService{
		store:       s,
		scorer:      similarity.NewScorer(config.Thresholds),
		precompute:  precompute,
		config:      config,
		resultCache: gocache.New(config.CacheTTL, config.CacheTTL),
		running:     make(map[int32]bool),
	}
}

// ClearCache drops every ephemeral cached result. Exposed for tests
// and for admin-triggered invalidation.
func (s *QueryService) ClearCache() {
	s.resultCache.Flush()
}

// CheckSimilarity finds stored wishes similar to the given text.
//
// The language filter is required. When the check is for an existing
// wish (ExcludeID set) and cached pairwise rows exist, the result is
// served from cache without live computation; otherwise a background
// precomputation is triggered for that wish and the call falls through
// to the live path.
func (s *QueryService) CheckSimilarity(ctx context.Context, text string, filters *CheckFilters) (*CheckResult, error) {
	start := time.Now()
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("check")
	defer func() { metrics.RecordDuration("check", time.Since(start)) }()

	if filters == nil || filters.Language == "" {
		metrics.RecordFailure("check")
		return nil, ErrLanguageRequired
	}

	cacheKey := s.cacheKey(text, filters)
	if cached, found := s.resultCache.Get(cacheKey); found {
		metrics.RecordCacheHit()
		return cached.(*CheckResult), nil
	}
	metrics.RecordCacheMiss()

	if filters.ExcludeID != nil {
		result, err := s.checkFromCachedScores(ctx, text, *filters.ExcludeID, start)
		if err != nil {
			slog.Warn("cached similarity lookup failed, falling back to live computation",
				"wish_id", *filters.ExcludeID, "error", err)
		} else if result != nil {
			return result, nil
		}
		s.triggerPrecompute(ctx, *filters.ExcludeID)
	}

	result, err := s.checkLive(ctx, text, filters, start)
	if err != nil {
		metrics.RecordFailure("check")
		return nil, err
	}
	s.resultCache.Set(cacheKey, result, gocache.DefaultExpiration)
	return result, nil
}

// BatchCheckSimilarity runs the live path for every text against one
// shared candidate load. Batch calls are assumed one-off; results are
// not cached.
func (s *QueryService) BatchCheckSimilarity(ctx context.Context, texts []string, filters *CheckFilters) ([]*CheckResult, error) {
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("batch_check")

	if filters == nil || filters.Language == "" {
		metrics.RecordFailure("batch_check")
		return nil, ErrLanguageRequired
	}

	candidates, wishByID, err := s.loadCandidates(ctx, filters)
	if err != nil {
		metrics.RecordFailure("batch_check")
		return nil, errors.Wrap(err, "similarity check failed")
	}

	results := make([]*CheckResult, 0, len(texts))
	for _, text := range texts {
		start := time.Now()
		matches := s.scorer.FindSimilarWishes(text, candidates, s.config.MaxResults)
		results = append(results, s.buildResult(text, matches, wishByID, start))
	}
	return results, nil
}

// SimilarityStats reports aggregate duplicate statistics for one
// language. The cached pairwise table serves the aggregate; when it is
// empty or unavailable the service falls back to a live pairwise scan,
// sampling once the corpus exceeds the configured scan limit.
func (s *QueryService) SimilarityStats(ctx context.Context, language string) (*StatsResult, error) {
	start := time.Now()
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("stats")
	defer func() { metrics.RecordDuration("stats", time.Since(start)) }()

	if language == "" {
		metrics.RecordFailure("stats")
		return nil, ErrLanguageRequired
	}

	stats, err := s.store.GetSimilarityStats(ctx, &store.FindSimilarityStats{
		Language:           language,
		DuplicateThreshold: s.config.DuplicateThreshold,
	})
	if err != nil {
		slog.Warn("aggregate similarity stats unavailable, falling back to pairwise scan",
			"language", language, "error", err)
	} else if stats.CachedPairs > 0 {
		return &StatsResult{
			Language:       language,
			WishCount:      stats.WishCount,
			DuplicatePairs: stats.DuplicatePairs,
			AverageScore:   stats.AverageOverall,
		}, nil
	}

	result, err := s.statsFromPairwiseScan(ctx, language)
	if err != nil {
		metrics.RecordFailure("stats")
		return nil, err
	}
	return result, nil
}

// checkFromCachedScores builds a result from the stored pairwise rows
// of an existing wish. Returns (nil, nil) when no rows are cached.
func (s *QueryService) checkFromCachedScores(ctx context.Context, text string, wishID int32, start time.Time) (*CheckResult, error) {
	rows, err := s.store.ListSimilarityScoresInvolving(ctx, wishID, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	matches := make([]SimilarWish, 0, s.config.MaxResults)
	for _, row := range rows {
		if len(matches) >= s.config.MaxResults {
			break
		}
		otherID := row.OtherWishID(wishID)
		other, err := s.store.GetWish(ctx, &store.FindWish{ID: &otherID})
		if err != nil {
			slog.Warn("failed to resolve paired wish", "wish_id", otherID, "error", err)
			continue
		}
		if other == nil || !other.Status.ComparisonEligible() {
			continue
		}
		matches = append(matches, SimilarWish{
			Wish:       other,
			Similarity: row.Overall,
			Algorithm:  winningAlgorithm(row),
		})
	}

	return &CheckResult{
		SimilarWishes:    matches,
		IsDuplicate:      len(matches) > 0 && matches[0].Similarity >= s.config.DuplicateThreshold,
		Suggestions:      similarity.GenerateVariationSuggestions(text),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// checkLive loads the candidate set and computes similarity in-process.
// A failed candidate load is escalated: there is no fallback data, and
// an empty "no duplicates" answer would be falsely reassuring.
func (s *QueryService) checkLive(ctx context.Context, text string, filters *CheckFilters, start time.Time) (*CheckResult, error) {
	candidates, wishByID, err := s.loadCandidates(ctx, filters)
	if err != nil {
		return nil, errors.Wrap(err, "similarity check failed")
	}

	matches := s.scorer.FindSimilarWishes(text, candidates, s.config.MaxResults)
	return s.buildResult(text, matches, wishByID, start), nil
}

func (s *QueryService) buildResult(text string, matches []similarity.Match, wishByID map[int32]*store.Wish, start time.Time) *CheckResult {
	similarWishes := make([]SimilarWish, 0, len(matches))
	for _, match := range matches {
		similarWishes = append(similarWishes, SimilarWish{
			Wish:       wishByID[match.Candidate.ID],
			Similarity: match.Similarity,
			Algorithm:  match.Algorithm,
		})
	}

	return &CheckResult{
		SimilarWishes:    similarWishes,
		IsDuplicate:      len(similarWishes) > 0 && similarWishes[0].Similarity >= s.config.DuplicateThreshold,
		Suggestions:      similarity.GenerateVariationSuggestions(text),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

// triggerPrecompute starts a background precomputation for the wish
// unless one is already in flight. Fire and forget: the spawned task
// outlives the request, and its errors are only logged.
func (s *QueryService) triggerPrecompute(ctx context.Context, wishID int32) {
	if s.precompute == nil {
		return
	}

	s.mu.Lock()
	if s.running[wishID] {
		s.mu.Unlock()
		return
	}
	s.running[wishID] = true
	s.mu.Unlock()

	background := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.running, wishID)
			s.mu.Unlock()
			if r := recover(); r != nil {
				slog.Error("background precomputation panicked", "wish_id", wishID, "panic", r)
			}
		}()

		wish, err := s.store.GetWish(background, &store.FindWish{ID: &wishID})
		if err != nil || wish == nil {
			slog.Warn("failed to load wish for background precomputation", "wish_id", wishID, "error", err)
			return
		}
		if _, err := s.precompute.PrecomputeForWish(background, wish, false); err != nil {
			slog.Warn("background precomputation failed", "wish_id", wishID, "error", err)
		}
	}()
}

func (s *QueryService) loadCandidates(ctx context.Context, filters *CheckFilters) ([]similarity.Candidate, map[int32]*store.Wish, error) {
	find := &store.FindWish{
		Language:      &filters.Language,
		ExcludeStatus: statusPtr(store.Archived),
		ExcludeID:     filters.ExcludeID,
	}
	if filters.Type != "" {
		find.Type = &filters.Type
	}
	if filters.EventType != "" {
		find.EventType = &filters.EventType
	}

	wishes, err := s.store.ListWishes(ctx, find)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]similarity.Candidate, 0, len(wishes))
	wishByID := make(map[int32]*store.Wish, len(wishes))
	for _, wish := range wishes {
		candidates = append(candidates, similarity.Candidate{ID: wish.ID, Text: wish.Text})
		wishByID[wish.ID] = wish
	}
	return candidates, wishByID, nil
}

// statsFromPairwiseScan is the legacy slow path: score every pair of
// eligible wishes in-process. O(n²) in corpus size, so it samples once
// the corpus exceeds the configured limit.
func (s *QueryService) statsFromPairwiseScan(ctx context.Context, language string) (*StatsResult, error) {
	wishes, err := s.store.ListWishes(ctx, &store.FindWish{
		Language:      &language,
		ExcludeStatus: statusPtr(store.Archived),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load wishes for stats scan")
	}

	result := &StatsResult{Language: language, WishCount: len(wishes)}

	sample := wishes
	if len(sample) > s.config.StatsScanLimit {
		sample = sample[:s.config.StatsScanLimit]
		result.Sampled = true
	}

	var total float64
	var pairs int
	for i := 0; i < len(sample); i++ {
		for j := i + 1; j < len(sample); j++ {
			best := s.scorer.BestMatch(sample[i].Text, sample[j].Text, nil)
			total += best.Similarity
			pairs++
			if best.Similarity >= s.config.DuplicateThreshold {
				result.DuplicatePairs++
			}
		}
	}
	if pairs > 0 {
		result.AverageScore = total / float64(pairs)
	}

	return result, nil
}

func (s *QueryService) cacheKey(text string, filters *CheckFilters) string {
	excludeID := int32(0)
	if filters.ExcludeID != nil {
		excludeID = *filters.ExcludeID
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s",
		filters.Language, filters.Type, filters.EventType, excludeID, similarity.Normalize(text))
}

// winningAlgorithm returns the component that produced the stored
// overall score.
func winningAlgorithm(row *store.SimilarityScore) similarity.Algorithm {
	best := similarity.AlgorithmCosine
	bestScore := row.Cosine
	if row.Jaccard > bestScore {
		best, bestScore = similarity.AlgorithmJaccard, row.Jaccard
	}
	if row.Levenshtein > bestScore {
		best, bestScore = similarity.AlgorithmLevenshtein, row.Levenshtein
	}
	if row.TFIDF > bestScore {
		best = similarity.AlgorithmTFIDF
	}
	return best
}
