package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNote_SetSummaryTracksContent(t *testing.T) {
	note := &Note{Content: "The quick brown fox jumps over the lazy dog."}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	note.SetSummary("A fox jumps.", at)

	assert.True(t, note.HasSummary())
	assert.False(t, note.SummaryStale())
	assert.Equal(t, ContentHash(note.Content), note.SummaryContentHash)
	require.NotNil(t, note.SummarizedAt)
	assert.Equal(t, at, *note.SummarizedAt)

	note.Content = "Something else entirely."
	assert.True(t, note.SummaryStale())
}

func TestNote_SetEmptySummaryClears(t *testing.T) {
	note := &Note{Content: "content"}
	note.SetSummary("summary", time.Now())
	note.SetSummary("", time.Now())

	assert.False(t, note.HasSummary())
	assert.False(t, note.SummaryStale())
	assert.Empty(t, note.SummaryContentHash)
	assert.Nil(t, note.SummarizedAt)
}

func TestNote_MarshalJSONIncludesStaleFlag(t *testing.T) {
	note := Note{Title: "t", Content: "new content", Summary: "old", SummaryContentHash: ContentHash("old content")}

	data, err := json.Marshal(note)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["summary_stale"])
	assert.Equal(t, "t", decoded["title"])
	assert.Equal(t, "old", decoded["summary"])
}
