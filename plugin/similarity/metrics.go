// Package similarity provides the lexical similarity metrics used for
// duplicate wish detection. All functions are pure and operate on
// normalized text; no I/O, no state.
package similarity

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Normalize prepares a raw wish text for comparison: lowercase, strip
// template placeholder brackets, collapse whitespace runs, trim.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("{", "", "}", "").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// CosineSimilarity calculates a character-bigram Dice coefficient
// between two normalized strings. Both-empty inputs are trivially
// identical and score 1.
func CosineSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	var intersection, totalA, totalB int
	for gram, countA := range bigramsA {
		totalA += countA
		if countB, ok := bigramsB[gram]; ok {
			intersection += min(countA, countB)
		}
	}
	for _, countB := range bigramsB {
		totalB += countB
	}

	return 2 * float64(intersection) / float64(totalA+totalB)
}

// JaccardSimilarity calculates word-set intersection over union of the
// whitespace-tokenized word sets. Two empty word sets are treated as
// identical and score 1.
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	var intersection int
	for word := range setA {
		if setB[word] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// LevenshteinSimilarity derives a [0,1] similarity from edit distance:
// 1 - distance/max(len). Two empty strings are trivially similar.
func LevenshteinSimilarity(a, b string) float64 {
	lenA := len([]rune(a))
	lenB := len([]rune(b))
	if lenA == 0 && lenB == 0 {
		return 1
	}

	maxLen := lenA
	if lenB > maxLen {
		maxLen = lenB
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}

// TFIDFCosineSimilarity computes the cosine similarity of the TF-IDF
// weighted term vectors of a and b, with the vocabulary and document
// frequencies built from both texts plus the comparison corpus. A
// zero-norm vector yields similarity 0, never NaN.
func TFIDFCosineSimilarity(a, b string, corpus []string) float64 {
	documents := make([][]string, 0, len(corpus)+2)
	documents = append(documents, strings.Fields(a), strings.Fields(b))
	for _, text := range corpus {
		documents = append(documents, strings.Fields(text))
	}

	// Document frequency per term across text ∪ corpus.
	documentFrequency := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, term := range doc {
			if !seen[term] {
				documentFrequency[term]++
				seen[term] = true
			}
		}
	}

	totalDocs := float64(len(documents))
	weigh := func(doc []string) map[string]float64 {
		termFrequency := make(map[string]int)
		for _, term := range doc {
			termFrequency[term]++
		}
		vector := make(map[string]float64, len(termFrequency))
		for term, tf := range termFrequency {
			idf := math.Log(1 + totalDocs/float64(documentFrequency[term]))
			vector[term] = float64(tf) * idf
		}
		return vector
	}

	vectorA := weigh(documents[0])
	vectorB := weigh(documents[1])

	var dotProduct, normA, normB float64
	for term, weightA := range vectorA {
		normA += weightA * weightA
		if weightB, ok := vectorB[term]; ok {
			dotProduct += weightA * weightB
		}
	}
	for _, weightB := range vectorB {
		normB += weightB * weightB
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// bigrams returns the character-bigram multiset of a string.
func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// wordSet returns the whitespace-tokenized word set of a string.
func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		set[word] = true
	}
	return set
}
