package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// feedbackDocumentName is the key the feedback document is stored under in
// keyed backends (sqlite, mongo).
const feedbackDocumentName = "feedback"

func encodeDocument(doc Document) ([]byte, error) {
	if doc.Feedback == nil {
		doc.Feedback = []Feedback{}
	}
	doc.NextID = doc.nextID()
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// decodeDocument accepts both the current object layout and the legacy layout,
// where the document was a bare JSON list of feedback records.
func decodeDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{NextID: 1, Feedback: []Feedback{}}, nil
	}

	var doc Document
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Feedback); err != nil {
			return Document{}, fmt.Errorf("failed to unmarshal legacy feedback list: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return normalizeDocument(doc), nil
}

func normalizeDocument(doc Document) Document {
	if doc.Feedback == nil {
		doc.Feedback = []Feedback{}
	}
	if doc.NextID < 1 {
		doc.NextID = deriveNextID(doc.Feedback)
	}
	return doc
}

// deriveNextID recovers a counter for documents written before the counter was
// persisted. Ids there were assigned as len+1, so the highest numeric id wins.
func deriveNextID(records []Feedback) int {
	highest := len(records)
	for _, f := range records {
		if n, err := strconv.Atoi(f.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
