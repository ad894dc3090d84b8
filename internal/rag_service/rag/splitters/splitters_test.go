package splitters

import (
	"errors"
	"strings"
	"testing"

	"palm-rag/internal/apperr"
	"palm-rag/internal/rag_service/rag/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsets(chunks []schema.Chunk) [][2]int {
	out := make([][2]int, len(chunks))
	for i, c := range chunks {
		out[i] = [2]int{c.Start, c.End}
	}
	return out
}

func TestFixedSizeWindows(t *testing.T) {
	text := strings.Repeat("a", 1000)
	chunks, err := Chunk("doc", text, schema.StrategyFixedSize, Options{ChunkSize: 500, ChunkOverlap: 50})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{0, 500}, {450, 950}, {900, 1000}}, offsets(chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "doc", c.DocumentID)
		assert.Equal(t, schema.StrategyFixedSize, c.Strategy)
		assert.Equal(t, schema.ChunkID("doc", i), c.ID)
	}
}

func TestFixedSizeNoOverlapReconstructs(t *testing.T) {
	text := "Héllo wörld, ünïcode text\n\n  with   odd spacing and emoji 🙂 at the end."
	fs, err := NewFixedSize(7, 0)
	require.NoError(t, err)

	out, err := fs.Chunk("doc", text)
	require.NoError(t, err)

	var sb strings.Builder
	prevEnd := 0
	for _, c := range out {
		sb.WriteString(c.Text)
		assert.Equal(t, prevEnd, c.Start, "chunks must be adjacent")
		assert.LessOrEqual(t, c.Start, c.End)
		prevEnd = c.End
	}
	assert.Equal(t, text, sb.String())
	assert.Equal(t, len([]rune(text)), prevEnd)
}

func TestFixedSizeInvalidConfig(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{0, 0}, {-1, 0}, {10, -1}, {10, 10}, {10, 20}} {
		_, err := NewFixedSize(tc.size, tc.overlap)
		assert.True(t, errors.Is(err, apperr.ErrInvalidConfig), "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestBlankTextYieldsNoChunks(t *testing.T) {
	for _, strategy := range []string{schema.StrategyFixedSize, schema.StrategySemantic} {
		chunks, err := Chunk("doc", " \n\t ", strategy, Options{ChunkSize: 100, ChunkOverlap: 10})
		require.NoError(t, err)
		assert.Empty(t, chunks, strategy)
	}
}

func TestUnknownStrategy(t *testing.T) {
	_, err := Chunk("doc", "text", "paragraph", Options{ChunkSize: 10})
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfig))
}

func TestSentences(t *testing.T) {
	text := `  He said "stop." Then he left! Did it work?  Version 1.5 is out
next line continues

New paragraph without period`
	runes := []rune(text)
	var got []string
	for _, s := range sentences(runes) {
		got = append(got, string(runes[s.start:s.end]))
	}
	assert.Equal(t, []string{
		`He said "stop."`,
		"Then he left!",
		"Did it work?",
		"Version 1.5 is out\nnext line continues",
		"New paragraph without period",
	}, got)
}

func TestSemanticTinyMaxWithHighMinYieldsOneChunk(t *testing.T) {
	chunks, err := Chunk("doc", "A. B. C.", schema.StrategySemantic, Options{MaxChunkSize: 2, MinChunkSize: 200, ChunkSize: 1})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A. B. C.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 8, chunks[0].End)
}

func TestSemanticShortTextSingleChunk(t *testing.T) {
	chunks, err := Chunk("doc", "Only one short sentence here.", schema.StrategySemantic, Options{ChunkSize: 500})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Only one short sentence here.", chunks[0].Text)
}

func TestSemanticNeverSplitsSentences(t *testing.T) {
	sentence := "This sentence ends with runes."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 30))

	s, err := NewSemantic(0, 50, 120)
	require.NoError(t, err)
	chunks, err := s.Chunk("doc", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	runes := []rune(text)
	for i, c := range chunks {
		assert.Equal(t, string(runes[c.Start:c.End]), c.Text)
		assert.True(t, strings.HasPrefix(c.Text, "This"), "chunk %d starts mid-sentence: %q", i, c.Text)
		assert.True(t, strings.HasSuffix(c.Text, "runes."), "chunk %d ends mid-sentence: %q", i, c.Text)
		assert.LessOrEqual(t, len([]rune(c.Text)), 120)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, len([]rune(c.Text)), 50)
		}
		if i > 0 {
			assert.Greater(t, c.Start, chunks[i-1].End-1, "chunks overlap")
			assert.Equal(t, i, c.Index)
		}
	}
}

func TestSemanticLongSentenceIsOwnChunk(t *testing.T) {
	long := strings.Repeat("word ", 60) + "end."
	text := "Short intro that is long enough. " + long + " Tail sentence."

	s, err := NewSemantic(0, 10, 50)
	require.NoError(t, err)
	chunks, err := s.Chunk("doc", text)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Short intro that is long enough.", chunks[0].Text)
	assert.Equal(t, long, chunks[1].Text)
	assert.Equal(t, "Tail sentence.", chunks[2].Text)
}

func TestSemanticKeepsAccumulatingBelowMin(t *testing.T) {
	text := "One. Two. Three. Four."
	s, err := NewSemantic(0, 15, 8)
	require.NoError(t, err)
	chunks, err := s.Chunk("doc", text)
	require.NoError(t, err)

	// "One. Two." is over max but under min, so it keeps growing past max.
	assert.Equal(t, []string{"One. Two. Three.", "Four."}, []string{chunks[0].Text, chunks[1].Text})
}

func TestSemanticDefaults(t *testing.T) {
	s, err := NewSemantic(500, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinChunkSize, s.Min)
	assert.Equal(t, 1000, s.Max)

	_, err = NewSemantic(0, 0, 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfig))
	_, err = NewSemantic(100, -1, 0)
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfig))
}

func TestChunkIDsAreDeterministic(t *testing.T) {
	a, _ := Chunk("doc-1", "same text. again.", schema.StrategySemantic, Options{ChunkSize: 500})
	b, _ := Chunk("doc-1", "same text. again.", schema.StrategySemantic, Options{ChunkSize: 500})
	c, _ := Chunk("doc-2", "same text. again.", schema.StrategySemantic, Options{ChunkSize: 500})
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, c[0].ID)
}
