// Package casp implements the textual CASP wire format spoken by CachewDB.
// A frame is "CASP/<body>/\n": a fixed prefix, slash-delimited parts and a
// newline suffix. Double quotes protect payload text that contains the
// delimiter, with backslash escaping a literal quote.
package casp

import "strings"

const (
	Prefix    = "CASP"
	Delimiter = '/'
	Suffix    = "\n"

	okIdentifier    = "OK"
	warnIdentifier  = "WARN"
	errorIdentifier = "ERROR"

	// MaxRawResponse bounds a single raw exchange read. Longer responses
	// are truncated on that path.
	MaxRawResponse = 1024
)

// Frame wraps a command body in the CASP envelope. The body is sent as-is:
// an unquoted "/" inside it makes the frame ambiguous for the peer.
func Frame(command string) string {
	return Prefix + string(Delimiter) + command + string(Delimiter) + Suffix
}

// SplitAtDelimiter splits s at delim unless the delimiter sits inside a
// double-quoted substring. A quote preceded by a backslash does not toggle
// quoting. Parts keep their quotes but lose surrounding spaces.
func SplitAtDelimiter(s string, delim byte) []string {
	parts := make([]string, 0, 8)
	start := 0
	insideQuotes := false
	var prev byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			if prev != '\\' {
				insideQuotes = !insideQuotes
			}
		case ch == delim && !insideQuotes:
			parts = append(parts, strings.Trim(s[start:i], " "))
			start = i + 1
		}
		prev = ch
	}
	parts = append(parts, strings.Trim(s[start:], " "))
	return parts
}
