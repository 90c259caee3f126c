package similarity

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase and trim",
			input:    "  Happy Birthday  ",
			expected: "happy birthday",
		},
		{
			name:     "strips placeholder brackets",
			input:    "Dear {name}, all the best!",
			expected: "dear name, all the best!",
		},
		{
			name:     "collapses whitespace runs",
			input:    "so\t many\n  spaces",
			expected: "so many spaces",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "happy birthday dear anna",
			b:        "happy birthday dear anna",
			expected: 1.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "happy birthday",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "no shared bigrams",
			a:        "aaaa",
			b:        "zzzz",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if diff := result - tt.expected; diff > 0.01 || diff < -0.01 {
				t.Errorf("CosineSimilarity() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "happy birthday dear anna",
			b:        "happy birthday dear anna",
			expected: 1.0,
		},
		{
			name:     "both empty word sets",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "disjoint word sets",
			a:        "happy birthday",
			b:        "merry christmas",
			expected: 0.0,
		},
		{
			name:     "half overlap",
			a:        "happy birthday",
			b:        "happy christmas",
			expected: 1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := JaccardSimilarity(tt.a, tt.b)
			if diff := result - tt.expected; diff > 0.001 || diff < -0.001 {
				t.Errorf("JaccardSimilarity() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "identical strings",
			a:        "all the best",
			b:        "all the best",
			expected: 1.0,
		},
		{
			name:     "both empty",
			a:        "",
			b:        "",
			expected: 1.0,
		},
		{
			name:     "one empty",
			a:        "abcd",
			b:        "",
			expected: 0.0,
		},
		{
			name:     "kitten sitting",
			a:        "kitten",
			b:        "sitting",
			expected: 1.0 - 3.0/7.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevenshteinSimilarity(tt.a, tt.b)
			if diff := result - tt.expected; diff > 0.001 || diff < -0.001 {
				t.Errorf("LevenshteinSimilarity() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestTFIDFCosineSimilarity(t *testing.T) {
	corpus := []string{
		"merry christmas and a happy new year",
		"congratulations on your wedding day",
	}

	t.Run("identical texts", func(t *testing.T) {
		result := TFIDFCosineSimilarity("happy birthday dear anna", "happy birthday dear anna", corpus)
		if math.Abs(result-1.0) > 0.001 {
			t.Errorf("TFIDFCosineSimilarity() = %v, want 1.0", result)
		}
	})

	t.Run("zero norm yields zero not NaN", func(t *testing.T) {
		result := TFIDFCosineSimilarity("", "happy birthday", corpus)
		if result != 0 {
			t.Errorf("TFIDFCosineSimilarity() = %v, want 0", result)
		}
		if math.IsNaN(result) {
			t.Error("TFIDFCosineSimilarity() returned NaN")
		}
	})

	t.Run("unrelated texts score low", func(t *testing.T) {
		result := TFIDFCosineSimilarity("happy birthday dear anna", "merry christmas dear bob", corpus)
		if result >= 0.75 {
			t.Errorf("TFIDFCosineSimilarity() = %v, want < 0.75", result)
		}
	})
}

func TestMetricSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"happy birthday dear anna", "merry christmas dear bob"},
		{"all the best", "all the very best"},
		{"", "some text"},
		{"viel glück zum geburtstag", "alles gute zum geburtstag"},
	}

	metrics := map[string]func(a, b string) float64{
		"cosine":      CosineSimilarity,
		"jaccard":     JaccardSimilarity,
		"levenshtein": LevenshteinSimilarity,
		"tfidf": func(a, b string) float64 {
			return TFIDFCosineSimilarity(a, b, []string{"unrelated corpus text"})
		},
	}

	for name, metric := range metrics {
		for _, pair := range pairs {
			forward := metric(pair[0], pair[1])
			backward := metric(pair[1], pair[0])
			if math.Abs(forward-backward) > 1e-9 {
				t.Errorf("%s(%q, %q) = %v but reversed = %v", name, pair[0], pair[1], forward, backward)
			}
		}
	}
}

func TestCalculateSimilarity(t *testing.T) {
	scorer := NewDefaultScorer()

	t.Run("sorted descending", func(t *testing.T) {
		results := scorer.CalculateSimilarity(
			"Happy Birthday dear Anna, all the best!",
			"Happy birthday dear Anna, all the very best!",
			[]string{"Merry Christmas to the whole family"},
		)
		if len(results) != 4 {
			t.Fatalf("expected 4 metric results with corpus, got %d", len(results))
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Errorf("results not sorted descending at index %d", i)
			}
		}
	})

	t.Run("tfidf skipped without corpus", func(t *testing.T) {
		results := scorer.CalculateSimilarity("a text", "another text", nil)
		if len(results) != 3 {
			t.Fatalf("expected 3 metric results without corpus, got %d", len(results))
		}
		for _, result := range results {
			if result.Algorithm == AlgorithmTFIDF {
				t.Error("tfidf must not run without a corpus")
			}
		}
	})

	t.Run("identical texts score 1.0 everywhere", func(t *testing.T) {
		text := "Happy Birthday dear Anna, all the best!"
		results := scorer.CalculateSimilarity(text, text, nil)
		for _, result := range results {
			if math.Abs(result.Similarity-1.0) > 0.001 {
				t.Errorf("%s = %v, want 1.0", result.Algorithm, result.Similarity)
			}
			if !result.IsSimilar {
				t.Errorf("%s should be similar for identical texts", result.Algorithm)
			}
		}
	})
}

func TestFindSimilarWishes(t *testing.T) {
	scorer := NewDefaultScorer()

	candidates := []Candidate{
		{ID: 1, Text: "Happy Birthday dear Anna, all the best!"},
		{ID: 2, Text: "Merry Christmas, Bob!"},
		{ID: 3, Text: "Happy Birthday dear Anna, all the very best!"},
	}

	t.Run("identical candidate ranks first", func(t *testing.T) {
		matches := scorer.FindSimilarWishes("Happy Birthday dear Anna, all the best!", candidates, 5)
		if len(matches) == 0 {
			t.Fatal("expected matches")
		}
		if matches[0].Candidate.ID != 1 {
			t.Errorf("expected candidate 1 first, got %d", matches[0].Candidate.ID)
		}
		if math.Abs(matches[0].Similarity-1.0) > 0.001 {
			t.Errorf("identical candidate similarity = %v, want 1.0", matches[0].Similarity)
		}
	})

	t.Run("dissimilar candidates excluded", func(t *testing.T) {
		matches := scorer.FindSimilarWishes("Happy Birthday dear Anna, all the best!", candidates, 5)
		for _, match := range matches {
			if match.Candidate.ID == 2 {
				t.Error("christmas wish must not match a birthday wish")
			}
		}
	})

	t.Run("respects max results", func(t *testing.T) {
		matches := scorer.FindSimilarWishes("Happy Birthday dear Anna, all the best!", candidates, 1)
		if len(matches) > 1 {
			t.Errorf("expected at most 1 match, got %d", len(matches))
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		matches := scorer.FindSimilarWishes("anything", nil, 5)
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %d", len(matches))
		}
	})
}

func TestGenerateVariationSuggestions(t *testing.T) {
	t.Run("swaps greeting phrases", func(t *testing.T) {
		suggestions := GenerateVariationSuggestions("Happy Birthday {name}, all the best!")
		if len(suggestions) == 0 {
			t.Fatal("expected suggestions")
		}
		seen := make(map[string]bool)
		for _, suggestion := range suggestions {
			if suggestion == "Happy Birthday {name}, all the best!" {
				t.Error("suggestions must not contain the input")
			}
			if seen[suggestion] {
				t.Errorf("duplicate suggestion: %q", suggestion)
			}
			seen[suggestion] = true
		}
	})

	t.Run("prepends name placeholder when absent", func(t *testing.T) {
		suggestions := GenerateVariationSuggestions("Wishing you a wonderful day")
		var found bool
		for _, suggestion := range suggestions {
			if suggestion == "{name}, wishing you a wonderful day" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a name-placeholder variant, got %v", suggestions)
		}
	})
}
