// Package segment splits assistant response text into playback-ready
// utterances: roughly one sentence each, never shorter than a minimum
// length so synthesis calls stay natural.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinUtteranceLen is the minimum rune length of a standalone utterance.
// Shorter fragments are merged into the preceding one.
const MinUtteranceLen = 8

// Split breaks text at sentence-terminal punctuation. Fragments shorter
// than MinUtteranceLen runes are merged into the preceding utterance; a
// trailing unterminated remainder is appended if long enough, otherwise
// merged as well.
func Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var parts []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if !isTerminal(runes[i]) {
			continue
		}
		// Swallow immediate closers and repeats ("?!", "...", quotes).
		for i+1 < len(runes) && (isTerminal(runes[i+1]) || isCloser(runes[i+1])) {
			i++
			b.WriteRune(runes[i])
		}
		// Skip the whitespace between sentences.
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		flush(&parts, &b)
	}
	// Trailing remainder without terminal punctuation.
	flush(&parts, &b)
	return parts
}

// flush appends the builder's content as an utterance, merging fragments
// below the minimum length into the previous one.
func flush(parts *[]string, b *strings.Builder) {
	s := strings.TrimSpace(b.String())
	b.Reset()
	if s == "" {
		return
	}
	if utf8.RuneCountInString(s) < MinUtteranceLen && len(*parts) > 0 {
		last := len(*parts) - 1
		(*parts)[last] = (*parts)[last] + " " + s
		return
	}
	*parts = append(*parts, s)
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '”', '’':
		return true
	}
	return false
}
