package core

import (
	"sort"

	"civicpulse.ai/civicpulse-api/internal/store"
	"civicpulse.ai/civicpulse-api/internal/utils"
)

const (
	NoneMarker     = "None"
	TopIssuesLimit = 4
)

type IssueShare struct {
	Name  string `json:"name"`
	Value int    `json:"val"` // percentage of all feedback, rounded half to even
}

type Stats struct {
	Total           int            `json:"total"`
	Sentiment       string         `json:"sentiment"`
	TopIssue        string         `json:"top_issue"`
	SentimentCounts map[string]int `json:"sentiment_counts,omitempty"`
	TopIssuesList   []IssueShare   `json:"top_issues_list,omitempty"`
}

// canonicalSentiments is also the tie-break order for the overall sentiment.
var canonicalSentiments = []string{string(store.Positive), string(store.Neutral), string(store.Negative)}

// Aggregate reduces records to dashboard statistics. It never fails and never
// mutates records.
//
// Ties are resolved by order: the overall sentiment is the first label in
// Positive, Neutral, Negative order to reach the maximum; the top issue is the
// first category, in insertion order, to reach the maximum; the issue list is a
// stable sort, so equal percentages keep insertion order.
func Aggregate(records []store.Feedback) Stats {
	total := len(records)
	if total == 0 {
		return Stats{Total: 0, Sentiment: NoneMarker, TopIssue: NoneMarker}
	}

	sentimentOrder := append([]string(nil), canonicalSentiments...)
	sentimentCounts := make(map[string]int, len(sentimentOrder))
	for _, label := range sentimentOrder {
		sentimentCounts[label] = 0
	}

	var categoryOrder []string
	categoryCounts := make(map[string]int)

	for _, r := range records {
		// Labels outside the vocabulary are counted under their own name.
		label := string(r.Sentiment)
		if _, ok := sentimentCounts[label]; !ok {
			sentimentOrder = append(sentimentOrder, label)
		}
		sentimentCounts[label]++

		if _, ok := categoryCounts[r.Category]; !ok {
			categoryOrder = append(categoryOrder, r.Category)
		}
		categoryCounts[r.Category]++
	}

	topIssue := NoneMarker
	if len(categoryOrder) > 0 {
		topIssue = firstMax(categoryOrder, categoryCounts)
	}

	shares := make([]IssueShare, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		shares = append(shares, IssueShare{Name: category, Value: utils.Percentage(categoryCounts[category], total)})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Value > shares[j].Value
	})
	if len(shares) > TopIssuesLimit {
		shares = shares[:TopIssuesLimit]
	}

	return Stats{
		Total:           total,
		Sentiment:       firstMax(sentimentOrder, sentimentCounts),
		TopIssue:        topIssue,
		SentimentCounts: sentimentCounts,
		TopIssuesList:   shares,
	}
}

func firstMax(order []string, counts map[string]int) string {
	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return best
}
