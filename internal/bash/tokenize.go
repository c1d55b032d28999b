package bash

import "strings"

const (
	// Delimiters separate tokens. Runs of delimiters count as one.
	Delimiters = " \t\r\n"

	// CommentMarker starts a comment when it begins a token.
	CommentMarker = "#"
)

// Tokenize splits line on Delimiters and drops the first token starting
// with CommentMarker together with everything after it. There is no quoting
// or escaping.
func Tokenize(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return strings.ContainsRune(Delimiters, r)
	})
	for i, field := range fields {
		if strings.HasPrefix(field, CommentMarker) {
			return fields[:i]
		}
	}
	return fields
}
