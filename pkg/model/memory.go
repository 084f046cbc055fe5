package model

import (
	"time"

	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Memory is a single atomic fact recorded for a user. Content is immutable
// once written; corrections are stored as new memories, not edits. Deleted
// only moves from false to true.
type Memory struct {
	ID        MemoryID  `firestore:"-" json:"id"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	Content   string    `firestore:"content" json:"content"`
	Deleted   bool      `firestore:"deleted" json:"deleted"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`

	// Seq is the insertion sequence within the record store, used as the
	// stable tie-break for ordering. Assigned by the store on insert.
	Seq int64 `firestore:"seq" json:"seq"`
}

// MemoryStats summarizes a user's rows in the record store
type MemoryStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Deleted int `json:"deleted"`

	First *time.Time `json:"first,omitempty"`
	Last  *time.Time `json:"last,omitempty"`
}
