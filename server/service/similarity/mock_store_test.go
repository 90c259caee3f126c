package similarity

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/wishfactory/wishfactory/store"
)

// MockStoreForSimilarity is an in-memory implementation of the Store
// interface for testing. It mirrors the facade semantics the services
// rely on: pair normalization, first-writer-wins upserts, and rows
// ordered by overall score.
type MockStoreForSimilarity struct {
	mu          sync.Mutex
	nextScoreID int32
	wishes      []*store.Wish
	scores      []*store.SimilarityScore

	listWishesErr error
	statsErr      error
}

func (m *MockStoreForSimilarity) addWish(wish *store.Wish) *store.Wish {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wishes = append(m.wishes, wish)
	return wish
}

func (m *MockStoreForSimilarity) scoreCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scores)
}

func (m *MockStoreForSimilarity) GetWish(_ context.Context, find *store.FindWish) (*store.Wish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wish := range m.wishes {
		if find.ID != nil && wish.ID != *find.ID {
			continue
		}
		if find.UID != nil && wish.UID != *find.UID {
			continue
		}
		return wish, nil
	}
	return nil, nil
}

func (m *MockStoreForSimilarity) ListWishes(_ context.Context, find *store.FindWish) ([]*store.Wish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listWishesErr != nil {
		return nil, m.listWishesErr
	}

	result := make([]*store.Wish, 0)
	for _, wish := range m.wishes {
		if find.ID != nil && wish.ID != *find.ID {
			continue
		}
		if find.ExcludeID != nil && wish.ID == *find.ExcludeID {
			continue
		}
		if find.Language != nil && wish.Language != *find.Language {
			continue
		}
		if find.Type != nil && wish.Type != *find.Type {
			continue
		}
		if find.EventType != nil && wish.EventType != *find.EventType {
			continue
		}
		if find.Status != nil && wish.Status != *find.Status {
			continue
		}
		if find.ExcludeStatus != nil && wish.Status == *find.ExcludeStatus {
			continue
		}
		result = append(result, wish)
		if find.Limit != nil && len(result) >= *find.Limit {
			break
		}
	}
	return result, nil
}

func (m *MockStoreForSimilarity) UpsertSimilarityScore(_ context.Context, upsert *store.SimilarityScore) (*store.SimilarityScore, error) {
	if upsert.WishIDA == upsert.WishIDB {
		return nil, errors.New("cannot store a self-pair similarity score")
	}
	upsert.WishIDA, upsert.WishIDB = store.NormalizePair(upsert.WishIDA, upsert.WishIDB)
	upsert.Overall = upsert.ComputeOverall()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.scores {
		if existing.WishIDA == upsert.WishIDA && existing.WishIDB == upsert.WishIDB {
			return existing, nil
		}
	}
	m.nextScoreID++
	upsert.ID = m.nextScoreID
	m.scores = append(m.scores, upsert)
	return upsert, nil
}

func (m *MockStoreForSimilarity) UpdateSimilarityScore(_ context.Context, update *store.UpdateSimilarityScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.scores {
		if row.ID != update.ID {
			continue
		}
		row.Cosine = update.Cosine
		row.Jaccard = update.Jaccard
		row.Levenshtein = update.Levenshtein
		row.TFIDF = update.TFIDF
		row.Overall = row.ComputeOverall()
		row.ComputedTs = update.ComputedTs
		return nil
	}
	return errors.Errorf("similarity score %d not found", update.ID)
}

func (m *MockStoreForSimilarity) GetSimilarityScore(_ context.Context, idA, idB int32) (*store.SimilarityScore, error) {
	a, b := store.NormalizePair(idA, idB)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.scores {
		if row.WishIDA == a && row.WishIDB == b {
			return row, nil
		}
	}
	return nil, nil
}

func (m *MockStoreForSimilarity) ListSimilarityScoresInvolving(_ context.Context, wishID int32, minOverall *float64) ([]*store.SimilarityScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*store.SimilarityScore, 0)
	for _, row := range m.scores {
		if row.WishIDA != wishID && row.WishIDB != wishID {
			continue
		}
		if minOverall != nil && row.Overall < *minOverall {
			continue
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Overall > result[j].Overall
	})
	return result, nil
}

func (m *MockStoreForSimilarity) ListStaleSimilarityScores(_ context.Context, cutoffTs int64, limit int) ([]*store.SimilarityScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*store.SimilarityScore, 0)
	for _, row := range m.scores {
		if row.ComputedTs < cutoffTs {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ComputedTs < result[j].ComputedTs
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStoreForSimilarity) DeleteSimilarityScoresInvolving(_ context.Context, wishID int32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.scores[:0]
	var deleted int64
	for _, row := range m.scores {
		if row.WishIDA == wishID || row.WishIDB == wishID {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.scores = kept
	return deleted, nil
}

func (m *MockStoreForSimilarity) DeleteSimilarityScoresOlderThan(_ context.Context, cutoffTs int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.scores[:0]
	var deleted int64
	for _, row := range m.scores {
		if row.ComputedTs < cutoffTs {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.scores = kept
	return deleted, nil
}

func (m *MockStoreForSimilarity) GetSimilarityStats(_ context.Context, find *store.FindSimilarityStats) (*store.SimilarityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statsErr != nil {
		return nil, m.statsErr
	}

	eligible := make(map[int32]bool)
	stats := &store.SimilarityStats{}
	for _, wish := range m.wishes {
		if wish.Language == find.Language && wish.Status.ComparisonEligible() {
			eligible[wish.ID] = true
			stats.WishCount++
		}
	}

	var total float64
	for _, row := range m.scores {
		if !eligible[row.WishIDA] || !eligible[row.WishIDB] {
			continue
		}
		stats.CachedPairs++
		total += row.Overall
		if row.Overall >= find.DuplicateThreshold {
			stats.DuplicatePairs++
		}
	}
	if stats.CachedPairs > 0 {
		stats.AverageOverall = total / float64(stats.CachedPairs)
	}
	return stats, nil
}
