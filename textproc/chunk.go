package textproc

import (
	"strings"
)

const (
	// DefaultChunkSize is the default chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
	DefaultChunkOverlap = 200
	// DefaultHighlightRadius is the default number of context words on each side of a match.
	DefaultHighlightRadius = 10
	// MaxHighlights bounds the number of snippets returned by Highlights.
	MaxHighlights = 5

	minHighlightWordLength = 3
)

// Chunk splits text into overlapping chunks of at most size characters.
// A chunk that does not reach the end of the text is cut after the last period
// inside its window, when there is one. Consecutive chunks share overlap characters.
func Chunk(text string, size, overlap int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	total := len(runes)
	var chunks []string

	start := 0
	for start < total {
		end := start + size
		if end < total {
			if dot := lastIndexRune(runes[start:end], '.'); dot > 0 {
				end = start + dot + 1
			}
		} else {
			end = total
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= total {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// Highlights returns up to MaxHighlights snippets of text surrounding
// occurrences of the query words. Query words shorter than three characters are
// ignored. Each snippet spans radius words on each side of the matching word.
func Highlights(text, query string, radius int) []string {
	if text == "" || query == "" {
		return nil
	}
	if radius < 0 {
		radius = DefaultHighlightRadius
	}

	words := strings.Fields(text)
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}

	var highlights []string
	for _, qw := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(qw)) < minHighlightWordLength {
			continue
		}
		for i, w := range lowered {
			if !strings.Contains(w, qw) {
				continue
			}
			from := max(0, i-radius)
			to := min(len(words), i+radius+1)
			highlights = appendUnique(highlights, strings.Join(words[from:to], " "))
			if len(highlights) >= MaxHighlights {
				return highlights
			}
		}
	}

	return highlights
}
