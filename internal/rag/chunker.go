package rag

import "strings"

// Chunk splits text into overlapping word windows of chunkSize words,
// advancing chunkSize-overlap words per step. The final partial window is
// emitted. If splitting yields nothing (e.g. empty input), the original text
// is returned as a single chunk.
//
// Callers must validate overlap < chunkSize first; a non-positive step would
// never terminate.
func Chunk(text string, chunkSize, overlap int) []string {
	words := strings.Fields(text)

	var chunks []string
	for i := 0; i < len(words); i += chunkSize - overlap {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		// Once a window reaches the final word the text is fully covered;
		// stepping again would emit a redundant overlap-only window.
		if end == len(words) {
			break
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
