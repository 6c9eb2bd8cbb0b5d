// Package moderation censors banned words in message content before it is
// stored and broadcast. Matching is case-insensitive via an Aho-Corasick
// automaton so a single pass covers the whole wordlist.
package moderation

import (
	"bufio"
	"os"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	apperrors "message-room/errors"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the given wordlist. Words are
// matched case-insensitively.
func NewModerator(censoredWords []string, replacement rune) (*Moderator, error) {
	if len(censoredWords) == 0 {
		return nil, apperrors.ErrEmptyWords
	}
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = []rune(strings.ToLower(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every banned span with the replacement rune, preserving
// the length and the surrounding text.
func (m *Moderator) Censor(original string) string {
	runes := []rune(original)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	spans := m.matcher.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(runes) {
			continue
		}
		for i := start; i < end; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

// ReadWordsFile loads one banned word per line, skipping blanks and
// '#' comments.
func ReadWordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words, scanner.Err()
}
