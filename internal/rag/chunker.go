// Package rag turns documents into retrievable knowledge: extracting
// text from files, splitting it into overlapping chunks, embedding and
// indexing them, and answering similarity searches over the index.
package rag

import "strings"

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200
)

// boundaries are tried in order when deciding where to end a chunk.
var boundaries = []string{"\n\n", "\n", ". "}

// Segment is one piece of split text. Index is the 0-based position of
// the segment within its document.
type Segment struct {
	Text  string
	Index int
}

// Chunker splits text into overlapping segments of roughly size
// characters, preferring to break at paragraph, line, or sentence
// boundaries near the end of each window.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. Non-positive size falls back to the
// default; overlap is clamped into [0, size).
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split divides text into segments. Line endings are normalized to \n
// first. Whitespace-only windows are dropped; surviving segments get
// contiguous 0-based indices. Empty input yields no segments.
func (c *Chunker) Split(text string) []Segment {
	text = normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var segments []Segment
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.breakAt(text, start, end)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			segments = append(segments, Segment{Text: piece, Index: len(segments)})
		}

		if end == len(text) {
			break
		}
		start = end - c.overlap
	}
	return segments
}

// breakAt picks the end of the window starting at start. It prefers the
// last boundary inside the window, but only when breaking there still
// moves the next window forward; otherwise it keeps the raw cut, which
// always advances by size minus overlap.
func (c *Chunker) breakAt(text string, start, end int) int {
	window := text[start:end]
	for _, b := range boundaries {
		if i := strings.LastIndex(window, b); i != -1 {
			candidate := start + i + 1
			if candidate > start+c.overlap {
				return candidate
			}
		}
	}
	return end
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
