package splitters

import (
	"fmt"
	"strings"
	"unicode"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/schema"
)

const (
	terminators = ".!?"
	closers     = "\"'”’»)]}"
)

// Semantic groups whole sentences into chunks of roughly Max runes. A chunk is
// only closed early once it holds at least Min runes, so apart from the last one
// no chunk is shorter than Min, and chunks can exceed Max when Min forces it.
type Semantic struct {
	Min int
	Max int
}

// NewSemantic builds a Semantic chunker. min 0 selects DefaultMinChunkSize and
// max 0 selects 2*target.
func NewSemantic(target, minSize, maxSize int) (*Semantic, error) {
	if target <= 0 && maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", target, apperr.ErrInvalidConfig)
	}
	if minSize < 0 || maxSize < 0 {
		return nil, fmt.Errorf("chunk size bounds must not be negative: %w", apperr.ErrInvalidConfig)
	}
	if minSize == 0 {
		minSize = DefaultMinChunkSize
	}
	if maxSize == 0 {
		maxSize = 2 * target
	}
	return &Semantic{Min: minSize, Max: maxSize}, nil
}

type span struct{ start, end int }

func (s span) len() int { return s.end - s.start }

// Chunk implements interfaces.Chunker.
func (s *Semantic) Chunk(documentID, text string) ([]schema.Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}

	runes := []rune(text)
	var (
		chunks []schema.Chunk
		cur    span
		open   bool
	)
	flush := func() {
		chunks = append(chunks, newChunk(documentID, len(chunks), runes, cur.start, cur.end, schema.StrategySemantic))
		open = false
	}

	for _, sent := range sentences(runes) {
		switch {
		case !open:
			cur, open = sent, true
		case sent.end-cur.start <= s.Max:
			cur.end = sent.end
		case cur.len() >= s.Min:
			flush()
			cur, open = sent, true
		default:
			cur.end = sent.end
		}
		if cur.len() > s.Max && cur.len() >= s.Min {
			flush()
		}
	}
	if open {
		flush()
	}
	return chunks, nil
}

// sentences returns the sentence spans of runes with surrounding whitespace
// trimmed. A sentence ends after terminal punctuation (plus closing quotes or
// brackets) that is followed by whitespace or the end of text, or at a blank line.
func sentences(runes []rune) []span {
	n := len(runes)
	var out []span

	skipSpace := func(i int) int {
		for i < n && unicode.IsSpace(runes[i]) {
			i++
		}
		return i
	}
	emit := func(start, end int) {
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if end > start {
			out = append(out, span{start, end})
		}
	}

	start := skipSpace(0)
	for i := start; i < n; {
		r := runes[i]
		switch {
		case strings.ContainsRune(terminators, r):
			j := i
			for j < n && strings.ContainsRune(terminators, runes[j]) {
				j++
			}
			for j < n && strings.ContainsRune(closers, runes[j]) {
				j++
			}
			if j == n || unicode.IsSpace(runes[j]) {
				emit(start, j)
				start = skipSpace(j)
				i = start
				continue
			}
			i = j
		case r == '\n' && blankLineAt(runes, i):
			emit(start, i)
			start = skipSpace(i)
			i = start
		default:
			i++
		}
	}
	if start < n {
		emit(start, n)
	}
	return out
}

// blankLineAt reports whether the newline at i is followed by an empty line.
func blankLineAt(runes []rune, i int) bool {
	for k := i + 1; k < len(runes); k++ {
		switch runes[k] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return false
}

var _ interfaces.Chunker = (*Semantic)(nil)
