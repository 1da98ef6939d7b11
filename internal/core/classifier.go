package core

import (
	"strings"

	"civicpulse.ai/civicpulse-api/internal/store"
)

// Classifier labels free text with a sentiment. Implementations must be pure and
// total: every input yields one of the three labels.
type Classifier interface {
	Classify(text string) store.Sentiment
}

var (
	DefaultNegativeKeywords = []string{"bad", "terrible", "broke", "issue", "problem"}
	DefaultPositiveKeywords = []string{"good", "great", "excellent", "thanks", "helpful"}
)

// KeywordClassifier matches keywords as case-insensitive substrings, so "broken"
// matches "broke" and "badminton" matches "bad". Negative keywords win over
// positive ones.
type KeywordClassifier struct {
	negative []string
	positive []string
}

func NewKeywordClassifier(negative, positive []string) *KeywordClassifier {
	return &KeywordClassifier{
		negative: lowerAll(negative),
		positive: lowerAll(positive),
	}
}

// NewDefaultClassifier returns the keyword-v1 classifier.
func NewDefaultClassifier() *KeywordClassifier {
	return NewKeywordClassifier(DefaultNegativeKeywords, DefaultPositiveKeywords)
}

func (c *KeywordClassifier) Version() string { return "keyword-v1" }

func (c *KeywordClassifier) Classify(text string) store.Sentiment {
	lower := strings.ToLower(text)
	if containsAny(lower, c.negative) {
		return store.Negative
	}
	if containsAny(lower, c.positive) {
		return store.Positive
	}
	return store.Neutral
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
