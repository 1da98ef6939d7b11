package store

type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// Feedback is one piece of submitted civic input. It is immutable once appended.
type Feedback struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	Category  string    `json:"category" bson:"category"`
	Sentiment Sentiment `json:"sentiment" bson:"sentiment"`
	Timestamp string    `json:"timestamp" bson:"timestamp"` // ISO-8601, set on insertion
}

// Document is the whole persisted state: the ordered feedback sequence plus the
// id counter used for the next insertion.
type Document struct {
	NextID   int        `json:"next_id" bson:"next_id"`
	Feedback []Feedback `json:"feedback" bson:"feedback"`
}

func (d Document) nextID() int {
	if d.NextID < 1 {
		return 1
	}
	return d.NextID
}
