package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Chunking strategies.
const (
	StrategyFixedSize = "fixed_size"
	StrategySemantic  = "semantic"
)

// Payload keys stored next to every vector.
const (
	MetadataKeyDocumentID = "document_id"
	MetadataKeyChunkIndex = "chunk_index"
	MetadataKeyText       = "text"
	MetadataKeyStart      = "start"
	MetadataKeyEnd        = "end"
	MetadataKeyStrategy   = "strategy"
	MetadataKeyFileName   = "file_name"
)

// chunkNamespace seeds the deterministic chunk ids.
var chunkNamespace = uuid.MustParse("6f0d1c8e-4a53-4d5e-9a0b-3c2f7e1b9d42")

// Document is the parsed content of one upload. It is immutable once created.
type Document struct {
	ID         string
	FileName   string
	Text       string
	IngestedAt time.Time
}

// Chunk is a contiguous span of a document. Start and End are rune offsets, End exclusive.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Text       string
	Start      int
	End        int
	Strategy   string
}

// ChunkID returns the id of chunk index of documentID. Re-ingesting the same document
// produces the same ids, so upserts overwrite instead of duplicating.
func ChunkID(documentID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(index))).String()
}

// ChunkMetadata is the payload stored with a chunk vector.
type ChunkMetadata struct {
	DocumentID string
	ChunkIndex int
	Text       string
	Start      int
	End        int
	Strategy   string
	FileName   string
}

// MetadataFor builds the payload of c.
func MetadataFor(c Chunk, fileName string) ChunkMetadata {
	return ChunkMetadata{
		DocumentID: c.DocumentID,
		ChunkIndex: c.Index,
		Text:       c.Text,
		Start:      c.Start,
		End:        c.End,
		Strategy:   c.Strategy,
		FileName:   fileName,
	}
}

// ToMap converts the metadata to a JSON friendly map.
func (m ChunkMetadata) ToMap() map[string]any {
	return map[string]any{
		MetadataKeyDocumentID: m.DocumentID,
		MetadataKeyChunkIndex: m.ChunkIndex,
		MetadataKeyText:       m.Text,
		MetadataKeyStart:      m.Start,
		MetadataKeyEnd:        m.End,
		MetadataKeyStrategy:   m.Strategy,
		MetadataKeyFileName:   m.FileName,
	}
}

// MetadataFromMap is the inverse of ToMap. Numbers may arrive as float64 (JSON),
// int or decimal strings.
func MetadataFromMap(m map[string]any) ChunkMetadata {
	return ChunkMetadata{
		DocumentID: str(m[MetadataKeyDocumentID]),
		ChunkIndex: num(m[MetadataKeyChunkIndex]),
		Text:       str(m[MetadataKeyText]),
		Start:      num(m[MetadataKeyStart]),
		End:        num(m[MetadataKeyEnd]),
		Strategy:   str(m[MetadataKeyStrategy]),
		FileName:   str(m[MetadataKeyFileName]),
	}
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}

// ScoredChunk is one retrieval hit.
type ScoredChunk struct {
	ChunkID  string
	Score    float64
	Metadata ChunkMetadata
}

// Filter narrows a vector query. A zero Filter matches everything.
type Filter struct {
	DocumentID string
}
