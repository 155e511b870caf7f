package text

import "strings"

// DefaultChunkSize and DefaultOverlap are tuned so a chunk typically
// spans several sentences while neighbours share enough context for
// retrieval to survive boundary cuts.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Split walks text in windows of chunkSize bytes. A window that does not
// reach the end of the text is shortened to the last sentence boundary
// ('.') at or before the window end, falling back to the last word
// boundary (' '), in both cases only when the boundary lies past the
// window midpoint. Consecutive windows share overlap bytes of context.
//
// Chunks are trimmed and empty results dropped. The walk always advances:
// even a degenerate overlap (>= chunkSize) terminates, at the cost of
// losing the overlap for that step.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 || text == "" {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + chunkSize

		if end < len(text) {
			// Boundary search includes the character at the window end,
			// matching nearest-at-or-before semantics.
			window := text[:end+1]
			lastPeriod := strings.LastIndex(window, ".")
			lastSpace := strings.LastIndex(window, " ")

			mid := start + chunkSize/2
			if lastPeriod > mid {
				end = lastPeriod + 1
			} else if lastSpace > mid {
				end = lastSpace
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
