package models

import (
	"time"
)

// StoredDocument is a text record held by the document store.
// Content is a string for text records; any other stored value is kept as-is
// and ignored by the matcher.
type StoredDocument struct {
	ID        string      `json:"id"`
	Content   interface{} `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Text returns the document content when it is text-typed.
func (d StoredDocument) Text() (string, bool) {
	s, ok := d.Content.(string)
	return s, ok
}

// AddResult is the outcome of inserting a document into the store.
type AddResult struct {
	Success    bool   `json:"success"`
	InsertedID string `json:"insertedId,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}
