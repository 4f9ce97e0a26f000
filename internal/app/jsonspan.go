package app

import "strings"

// bracketSpan returns the substring from the first open bracket to the
// bracket that closes it. Brackets inside JSON strings are ignored. ok is
// false when there is no open bracket or it is never closed.
func bracketSpan(text string, open, close byte) (span string, ok bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
