// Package chunker splits documents into overlapping, size-bounded windows
// for the extractor. Chunk offsets always index the parent document's
// original text: span grounding downstream depends on that mapping never
// drifting through a re-encoded copy.
package chunker

import (
	"strings"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

type Chunker struct {
	config types.ChunkerConfig
}

func NewWithConfig(config types.ChunkerConfig) Chunker {
	if config.Size == 0 {
		config.Size = 6000
	}
	if config.Overlap < 0 || config.Overlap >= config.Size {
		config.Overlap = config.Size / 10
	}
	if config.MaxChunks == 0 {
		config.MaxChunks = 12
	}
	return Chunker{config: config}
}

// Split produces the ordered chunk sequence for doc. Invariants:
//   - no chunk exceeds Size characters
//   - consecutive chunks overlap by exactly Overlap characters (the final
//     chunk may be shorter and carry reduced trailing overlap)
//   - the union of chunk ranges covers the full text unless Truncated
//
// When the document would exceed MaxChunks, later chunks are dropped and
// the result is marked truncated; extraction proceeds on the prefix.
func (c Chunker) Split(doc models.Document) models.ChunkSet {
	text := doc.Text
	size := c.config.Size
	overlap := c.config.Overlap

	var set models.ChunkSet
	if text == "" {
		return set
	}

	pos := 0
	for index := 0; ; index++ {
		if index >= c.config.MaxChunks {
			set.Truncated = true
			break
		}

		end := pos + size
		if end >= len(text) {
			end = len(text)
		} else {
			// Soft-break at the last whitespace inside the window, as long
			// as it still advances past the overlap region.
			if ws := strings.LastIndexAny(text[pos:end], " \t\n"); ws > overlap {
				end = pos + ws
			}
		}

		set.Chunks = append(set.Chunks, models.Chunk{
			DocumentFingerprint: doc.Fingerprint,
			Index:               index,
			Start:               pos,
			End:                 end,
			Text:                text[pos:end],
		})

		if end >= len(text) {
			break
		}
		pos = end - overlap
	}

	return set
}
