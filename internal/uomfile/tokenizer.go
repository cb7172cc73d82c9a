package uomfile

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/curated"
)

// Entry is one logical unit entry folded from one or more source lines.
type Entry struct {
	Text string
	// Line is the 1-based source line the entry starts on.
	Line int
	// Historical is the system tag of the historical section the entry was
	// found in, empty outside one.
	Historical string
}

var quotedPattern = regexp.MustCompile(`"[^"]*"`)

// Fold splits a units block into complete entries. A historical marker
// comment tags every entry after it until the end of the block. The second
// return value is the entry still open when the block ended, if any.
func Fold(src Source, markers []curated.Marker) ([]Entry, *Entry) {
	var (
		entries    []Entry
		historical string
		cur        strings.Builder
		curLine    int
	)

	for i, line := range strings.Split(src.Block, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if m, ok := matchMarker(stripped, markers); ok {
			historical = m.System
			continue
		}
		if strings.HasPrefix(stripped, "//") {
			continue
		}

		code := StripComment(stripped)
		if cur.Len() == 0 {
			curLine = src.BlockLine + i
		} else {
			cur.WriteByte(' ')
		}
		cur.WriteString(code)

		if text := cur.String(); IsComplete(text) {
			entries = append(entries, Entry{Text: text, Line: curLine, Historical: historical})
			cur.Reset()
		}
	}

	if cur.Len() > 0 {
		return entries, &Entry{Text: cur.String(), Line: curLine, Historical: historical}
	}
	return entries, nil
}

func matchMarker(line string, markers []curated.Marker) (curated.Marker, bool) {
	for _, m := range markers {
		if m.Pattern.MatchString(line) {
			return m, true
		}
	}
	return curated.Marker{}, false
}

// StripComment removes a trailing // comment that is not inside a quoted
// string.
func StripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inString = !inString
		case !inString && line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}

// IsComplete reports whether text holds a whole entry: at least three quoted
// strings and a final semicolon outside any string at parenthesis depth 0.
func IsComplete(text string) bool {
	if len(quotedPattern.FindAllStringIndex(text, 3)) < 3 {
		return false
	}
	trimmed := strings.TrimRightFunc(text, isBlank)
	if !strings.HasSuffix(trimmed, ";") {
		return false
	}
	return IndexTop(trimmed, ';', len(trimmed)-1) == len(trimmed)-1
}

// IndexTop returns the index of the first sep at or after from that is
// outside quoted strings and at parenthesis depth 0, or -1.
func IndexTop(s string, sep byte, from int) int {
	inString := false
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0 && i >= from:
			return i
		}
	}
	return -1
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
