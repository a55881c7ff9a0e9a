// Package keyword holds the monitored keyword sets and the substring matcher.
package keyword

import (
	"errors"
	"strings"
)

// Scope identifies the chat a keyword set applies to. Global is used when
// keywords are shared by every chat.
type Scope int64

const Global Scope = 0

var ErrEmpty = errors.New("keyword is empty")

// Normalize lowercases s, trims it and collapses inner whitespace runs so that
// "  Foo   Bar " and "foo bar" are the same keyword.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Match returns the words that occur anywhere in text, in the order of words.
// There is no word boundary check: "cat" matches "concatenate".
// words are expected to be normalized already; text is normalized the same
// way, so "big  sale" and "big\nsale" both contain "big sale".
func Match(text string, words []string) []string {
	if len(words) == 0 || text == "" {
		return nil
	}
	lower := Normalize(text)

	var found []string
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	return found
}
