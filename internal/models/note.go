package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Note is a user-owned text document with an optional derived summary.
//
// Summary is a point-in-time snapshot: SummaryContentHash records which content
// it was generated from, and nothing invalidates it when Content changes.
type Note struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	UserID             uuid.UUID  `json:"user_id" db:"user_id"`
	Title              string     `json:"title" db:"title"`
	Content            string     `json:"content" db:"content"`
	Summary            string     `json:"summary,omitempty" db:"summary"`
	SummaryContentHash string     `json:"summary_content_hash,omitempty" db:"summary_content_hash"`
	SummarizedAt       *time.Time `json:"summarized_at,omitempty" db:"summarized_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// ContentHash returns the hex SHA-256 of content
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// HasSummary reports whether a summary has been stored
func (n *Note) HasSummary() bool {
	return n.Summary != ""
}

// SummaryStale reports whether the stored summary was generated from different content
func (n *Note) SummaryStale() bool {
	return n.HasSummary() && n.SummaryContentHash != ContentHash(n.Content)
}

// SetSummary stores summary as derived from the note's current content.
// An empty summary clears the summary fields.
func (n *Note) SetSummary(summary string, at time.Time) {
	if summary == "" {
		n.Summary = ""
		n.SummaryContentHash = ""
		n.SummarizedAt = nil
		return
	}
	n.Summary = summary
	n.SummaryContentHash = ContentHash(n.Content)
	n.SummarizedAt = &at
}

// MarshalJSON adds the derived summary_stale flag
func (n Note) MarshalJSON() ([]byte, error) {
	type note Note
	return json.Marshal(struct {
		note
		SummaryStale bool `json:"summary_stale"`
	}{
		note:         note(n),
		SummaryStale: n.SummaryStale(),
	})
}
