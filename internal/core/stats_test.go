package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse.ai/civicpulse-api/internal/store"
)

func fb(category string, sentiment store.Sentiment) store.Feedback {
	return store.Feedback{Text: "x", Category: category, Sentiment: sentiment}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, Stats{Total: 0, Sentiment: "None", TopIssue: "None"}, Aggregate(nil))
	assert.Equal(t, Stats{Total: 0, Sentiment: "None", TopIssue: "None"}, Aggregate([]store.Feedback{}))
}

func TestAggregate_ThreeWayTie(t *testing.T) {
	stats := Aggregate([]store.Feedback{
		fb("Parks", store.Positive),
		fb("Roads", store.Negative),
		fb("Other", store.Neutral),
	})

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, "Positive", stats.Sentiment)
	assert.Equal(t, "Parks", stats.TopIssue)
	assert.Equal(t, map[string]int{"Positive": 1, "Neutral": 1, "Negative": 1}, stats.SentimentCounts)
	assert.Equal(t, []IssueShare{{"Parks", 33}, {"Roads", 33}, {"Other", 33}}, stats.TopIssuesList)
}

func TestAggregate_NeutralBeatsNegativeOnTie(t *testing.T) {
	stats := Aggregate([]store.Feedback{
		fb("Roads", store.Negative),
		fb("Roads", store.Neutral),
	})
	assert.Equal(t, "Neutral", stats.Sentiment)
}

func TestAggregate_Majorities(t *testing.T) {
	stats := Aggregate([]store.Feedback{
		fb("Parks", store.Positive),
		fb("Roads", store.Negative),
		fb("Roads", store.Negative),
		fb("Transit", store.Neutral),
	})

	assert.Equal(t, "Negative", stats.Sentiment)
	assert.Equal(t, "Roads", stats.TopIssue)
	assert.Equal(t, []IssueShare{{"Roads", 50}, {"Parks", 25}, {"Transit", 25}}, stats.TopIssuesList)
}

func TestAggregate_TopIssuesLimitedToFour(t *testing.T) {
	records := []store.Feedback{
		fb("A", store.Neutral),
		fb("B", store.Neutral),
		fb("C", store.Neutral),
		fb("D", store.Neutral),
		fb("E", store.Neutral),
		fb("E", store.Neutral),
	}
	stats := Aggregate(records)

	require.Len(t, stats.TopIssuesList, TopIssuesLimit)
	assert.Equal(t, IssueShare{"E", 33}, stats.TopIssuesList[0])
	assert.Equal(t, []string{"A", "B", "C"}, []string{stats.TopIssuesList[1].Name, stats.TopIssuesList[2].Name, stats.TopIssuesList[3].Name})
	assert.Equal(t, "E", stats.TopIssue)
}

func TestAggregate_UnknownSentimentLabel(t *testing.T) {
	stats := Aggregate([]store.Feedback{
		fb("Parks", store.Sentiment("Mixed")),
		fb("Parks", store.Sentiment("Mixed")),
		fb("Roads", store.Positive),
	})

	assert.Equal(t, "Mixed", stats.Sentiment)
	assert.Equal(t, 2, stats.SentimentCounts["Mixed"])
	assert.Equal(t, 0, stats.SentimentCounts["Negative"])
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	records := []store.Feedback{fb("Roads", store.Negative), fb("Parks", store.Positive)}
	snapshot := append([]store.Feedback(nil), records...)

	Aggregate(records)
	assert.Equal(t, snapshot, records)
}
