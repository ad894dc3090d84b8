package pipeline

import (
	"strings"
	"unicode/utf8"

	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/schema"
)

// DefaultMaxContextLength is the context budget in runes when none is configured.
const DefaultMaxContextLength = 2000

// ContextChunk is a retrieved chunk placed in the context, possibly truncated.
type ContextChunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	Truncated  bool
}

// Context is the material an answer is built from.
type Context struct {
	// History holds the included turns, oldest first.
	History []models.Turn
	// Chunks holds the included chunks in score order.
	Chunks []ContextChunk
	// Used is the number of runes consumed from the budget.
	Used int
}

// ChunkIDs returns the ids of the chunks in the context, in score order.
func (c Context) ChunkIDs() []string {
	ids := make([]string, len(c.Chunks))
	for i, ch := range c.Chunks {
		ids[i] = ch.ChunkID
	}
	return ids
}

// Sources returns the distinct document ids of the chunks in the context, in
// the order they first appear.
func (c Context) Sources() []string {
	seen := make(map[string]struct{}, len(c.Chunks))
	var out []string
	for _, ch := range c.Chunks {
		if ch.DocumentID == "" {
			continue
		}
		if _, ok := seen[ch.DocumentID]; ok {
			continue
		}
		seen[ch.DocumentID] = struct{}{}
		out = append(out, ch.DocumentID)
	}
	return out
}

func historyLine(t models.Turn) string {
	role := string(t.Role)
	if role != "" {
		role = strings.ToUpper(role[:1]) + role[1:]
	}
	return role + ": " + t.Content
}

// BuildContext fills a budget of maxLength runes. History is taken newest to
// oldest and may use at most half of the budget; it stops at the first turn
// that does not fit. The remaining budget goes to the hits in score order. A
// hit that does not fit is skipped, except the first one, which is truncated.
func BuildContext(history []models.Turn, hits []schema.ScoredChunk, maxLength int) Context {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}
	var out Context

	historyBudget := maxLength / 2
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(historyLine(history[i]))
		if out.Used+n > historyBudget {
			break
		}
		out.Used += n
		start = i
	}
	if start < len(history) {
		out.History = append([]models.Turn(nil), history[start:]...)
	}

	remaining := maxLength - out.Used
	for i, hit := range hits {
		text := hit.Metadata.Text
		n := utf8.RuneCountInString(text)
		switch {
		case n <= remaining:
			out.Chunks = append(out.Chunks, ContextChunk{ChunkID: hit.ChunkID, DocumentID: hit.Metadata.DocumentID, Text: text})
			remaining -= n
			out.Used += n
		case i == 0 && remaining > 0:
			cut := string([]rune(text)[:remaining])
			out.Chunks = append(out.Chunks, ContextChunk{ChunkID: hit.ChunkID, DocumentID: hit.Metadata.DocumentID, Text: cut, Truncated: true})
			out.Used += remaining
			remaining = 0
		}
	}
	return out
}
