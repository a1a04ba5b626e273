package chunks

import (
	"strings"
	"unicode"
)

// PageBreak separates pages in extracted text. Extraction emits one
// between consecutive pages; the chunker strips it from chunk content
// while using it to attribute each chunk to a page.
const PageBreak = '\f'

// Split cuts extractedText into chunks of approximately target runes.
// The last overlap runes of chunk i are repeated at the start of chunk
// i+1 so context survives the boundary. A window end never lands inside
// a word: it retreats to just past the previous space, except when a
// single word exceeds the whole window, which is hard-split.
//
// Identical inputs always produce identical chunk boundaries, contents
// and indices, so re-running ingestion is idempotent.
func Split(documentID, extractedText string, target, overlap int) ([]Chunk, error) {
	if overlap < 0 || target <= 0 || overlap >= target {
		return nil, ErrInvalidConfig
	}
	if strings.TrimSpace(extractedText) == "" {
		return nil, ErrEmptyInput
	}

	runes, pages := stripPageBreaks(extractedText)
	if len(runes) == 0 {
		return nil, ErrEmptyInput
	}

	var out []Chunk
	start := 0
	for start < len(runes) {
		end := start + target
		if end >= len(runes) {
			end = len(runes)
		} else if splitsWord(runes, end) {
			if b := lastBoundary(runes, start, end); b > start {
				end = b
			}
		}

		out = append(out, Chunk{
			DocumentID: documentID,
			Index:      len(out),
			Page:       majorityPage(pages, start, end),
			Content:    string(runes[start:end]),
		})

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		} else if splitsWord(runes, next) {
			next = nextBoundary(runes, next, end)
		}
		start = next
	}
	return out, nil
}

// stripPageBreaks removes page-break markers and returns the remaining
// runes with the 1-based page each rune came from.
func stripPageBreaks(text string) ([]rune, []int) {
	runes := make([]rune, 0, len(text))
	pages := make([]int, 0, len(text))
	page := 1
	for _, r := range text {
		if r == PageBreak {
			page++
			continue
		}
		runes = append(runes, r)
		pages = append(pages, page)
	}
	return runes, pages
}

// splitsWord reports whether cutting before index end would land inside
// a word.
func splitsWord(runes []rune, end int) bool {
	return !unicode.IsSpace(runes[end]) && !unicode.IsSpace(runes[end-1])
}

// lastBoundary returns the cut position just past the last space in
// (start, end), or start when the window holds a single unbroken word.
func lastBoundary(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return start
}

// nextBoundary returns the first word start in [from, end), or end when
// the remainder of the window is a single unbroken word.
func nextBoundary(runes []rune, from, end int) int {
	for i := from; i < end; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

// majorityPage picks the page containing most of the span's runes,
// breaking ties toward the earlier page.
func majorityPage(pages []int, start, end int) int {
	counts := make(map[int]int)
	for i := start; i < end; i++ {
		counts[pages[i]]++
	}
	best, bestCount := 0, -1
	for page, count := range counts {
		if count > bestCount || (count == bestCount && page < best) {
			best, bestCount = page, count
		}
	}
	if best == 0 {
		best = 1
	}
	return best
}

// VerifyDense checks that indices form exactly 0..N-1 in order.
func VerifyDense(list []Chunk) error {
	for i, c := range list {
		if c.Index != i {
			return ErrCorrupt
		}
	}
	return nil
}
