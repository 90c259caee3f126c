package similarity

import (
	"strings"
	"unicode"
)

// phraseAlternatives maps a common greeting phrase to alternate
// phrasings, in lowercase. Matching is case-insensitive; replacement is
// best-effort and non-exhaustive.
var phraseAlternatives = map[string][]string{
	"happy birthday":         {"many happy returns", "best birthday wishes"},
	"all the best":           {"best wishes", "good luck"},
	"merry christmas":        {"happy holidays", "festive greetings"},
	"congratulations":        {"well done", "warmest congratulations"},
	"alles gute":             {"herzlichen glückwunsch", "die besten wünsche"},
	"herzlichen glückwunsch": {"alles gute", "die allerbesten wünsche"},
	"frohe weihnachten":      {"besinnliche feiertage", "ein frohes fest"},
	"viel glück":             {"viel erfolg", "alles gute"},
}

// namePlaceholder is the template token for the recipient's name.
const namePlaceholder = "{name}"

// GenerateVariationSuggestions returns alternate phrasings of a wish
// text: known greeting phrases swapped for alternates, and a name
// placeholder prepended when the text has none. The result is
// deduplicated and never contains the input itself.
func GenerateVariationSuggestions(text string) []string {
	var suggestions []string
	seen := map[string]bool{text: true}

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		suggestions = append(suggestions, s)
	}

	lower := strings.ToLower(text)
	for phrase, alternatives := range phraseAlternatives {
		index := strings.Index(lower, phrase)
		if index < 0 {
			continue
		}
		for _, alternative := range alternatives {
			add(text[:index] + alternative + text[index+len(phrase):])
		}
	}

	if !strings.Contains(lower, namePlaceholder) {
		add(namePlaceholder + ", " + lowerFirst(text))
	}

	return suggestions
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
