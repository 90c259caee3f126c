package similarity

import (
	"sort"
)

// Algorithm identifies one of the similarity metrics.
type Algorithm string

const (
	AlgorithmCosine      Algorithm = "cosine"
	AlgorithmJaccard     Algorithm = "jaccard"
	AlgorithmLevenshtein Algorithm = "levenshtein"
	AlgorithmTFIDF       Algorithm = "tfidf"
)

// Thresholds holds the per-metric similarity cutoffs.
type Thresholds struct {
	Cosine      float64
	Jaccard     float64
	Levenshtein float64
	TFIDF       float64
}

// DefaultThresholds are the default per-metric cutoffs.
var DefaultThresholds = Thresholds{
	Cosine:      0.8,
	Jaccard:     0.6,
	Levenshtein: 0.7,
	TFIDF:       0.75,
}

// For returns the threshold configured for the given algorithm.
func (t Thresholds) For(algorithm Algorithm) float64 {
	switch algorithm {
	case AlgorithmCosine:
		return t.Cosine
	case AlgorithmJaccard:
		return t.Jaccard
	case AlgorithmLevenshtein:
		return t.Levenshtein
	case AlgorithmTFIDF:
		return t.TFIDF
	}
	return 1
}

// MetricResult is the outcome of one metric applied to a text pair.
type MetricResult struct {
	Similarity float64   `json:"similarity"`
	Algorithm  Algorithm `json:"algorithm"`
	Threshold  float64   `json:"threshold"`
	IsSimilar  bool      `json:"is_similar"`
}

// Candidate is one stored wish text offered for comparison.
type Candidate struct {
	ID   int32
	Text string
}

// Match is a candidate that cleared its winning metric's threshold.
type Match struct {
	Candidate  Candidate
	Similarity float64
	Algorithm  Algorithm
}

// Scorer applies the similarity metrics with a fixed set of thresholds.
type Scorer struct {
	thresholds Thresholds
}

// NewScorer creates a Scorer with the given thresholds.
func NewScorer(thresholds Thresholds) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// NewDefaultScorer creates a Scorer with the default thresholds.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultThresholds)
}

// Thresholds returns the scorer's configured thresholds.
func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

// CalculateSimilarity runs every metric on the normalized pair and
// returns the results sorted by similarity descending, so callers can
// inspect the winning algorithm first. The TF-IDF metric only runs when
// a comparison corpus is supplied.
func (s *Scorer) CalculateSimilarity(text1, text2 string, corpus []string) []MetricResult {
	a := Normalize(text1)
	b := Normalize(text2)

	results := []MetricResult{
		s.result(AlgorithmCosine, CosineSimilarity(a, b)),
		s.result(AlgorithmJaccard, JaccardSimilarity(a, b)),
		s.result(AlgorithmLevenshtein, LevenshteinSimilarity(a, b)),
	}

	if len(corpus) > 0 {
		normalized := make([]string, len(corpus))
		for i, text := range corpus {
			normalized[i] = Normalize(text)
		}
		results = append(results, s.result(AlgorithmTFIDF, TFIDFCosineSimilarity(a, b, normalized)))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	return results
}

// BestMatch returns the highest-scoring metric result for the pair.
func (s *Scorer) BestMatch(text1, text2 string, corpus []string) MetricResult {
	return s.CalculateSimilarity(text1, text2, corpus)[0]
}

// FindSimilarWishes scores the input against every candidate, using the
// full candidate-text list as the TF-IDF corpus. A candidate is kept
// only when its best metric clears that metric's own threshold. Keepers
// are sorted by score descending and truncated to maxResults.
func (s *Scorer) FindSimilarWishes(inputText string, candidates []Candidate, maxResults int) []Match {
	corpus := make([]string, len(candidates))
	for i, candidate := range candidates {
		corpus[i] = candidate.Text
	}

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		best := s.BestMatch(inputText, candidate.Text, corpus)
		if !best.IsSimilar {
			continue
		}
		matches = append(matches, Match{
			Candidate:  candidate,
			Similarity: best.Similarity,
			Algorithm:  best.Algorithm,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	return matches
}

func (s *Scorer) result(algorithm Algorithm, score float64) MetricResult {
	threshold := s.thresholds.For(algorithm)
	return MetricResult{
		Similarity: score,
		Algorithm:  algorithm,
		Threshold:  threshold,
		IsSimilar:  score >= threshold,
	}
}
