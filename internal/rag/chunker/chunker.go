package chunker

import "strings"

// Window is one text span produced by Split, positioned at Offset within the
// original document text. Offset counts runes, not bytes.
type Window struct {
	Text   string
	Offset int
}

// Split slides a window of size characters across text with stride
// size-overlap, starting at offset 0. Windows are measured in runes so
// multi-byte text never gets cut mid-character. Fully blank windows are
// skipped. Degenerate input (empty text, or nothing but blank windows)
// yields a single window holding the original text at offset 0, so every
// document indexes at least one chunk.
//
// Split is a pure function of (text, size, overlap); chunk identity is
// assigned later by the indexer.
func Split(text string, size, overlap int) []Window {
	stride := size - overlap
	if stride <= 0 {
		stride = size
	}

	runes := []rune(text)
	var windows []Window
	for offset := 0; offset < len(runes); offset += stride {
		end := offset + size
		if end > len(runes) {
			end = len(runes)
		}
		span := string(runes[offset:end])
		if strings.TrimSpace(span) == "" {
			continue
		}
		windows = append(windows, Window{Text: span, Offset: offset})
	}

	if len(windows) == 0 {
		return []Window{{Text: text, Offset: 0}}
	}
	return windows
}
