package scan

import "strings"

// SkipNonCode reports where the non-code span starting at i ends.
//
// If text[i:] begins a line comment, block comment, quoted string or
// template literal, the index immediately after that span is returned.
// Otherwise i itself is returned, meaning text[i] is ordinary code.
//
// Rules are tested in priority order:
//  1. "//" runs to the end of the line (the newline is not consumed).
//  2. "/*" runs through the matching "*/".
//  3. ' and " run to the matching unescaped quote. A backslash always
//     consumes the byte after it, whatever it is.
//  4. ` runs to the matching back-quote. Each ${...} substitution is
//     scanned as ordinary code with its own brace counter, so braces and
//     literals inside it cannot desynchronize the caller's depth count.
//
// An unterminated span consumes the rest of the text. SkipNonCode never
// panics; an out-of-range i is returned unchanged.
func SkipNonCode(text string, i int) int {
	n := len(text)
	if i < 0 || i >= n {
		return i
	}

	switch text[i] {
	case '/':
		if i+1 >= n {
			return i
		}
		switch text[i+1] {
		case '/':
			if k := strings.IndexByte(text[i+2:], '\n'); k >= 0 {
				return i + 2 + k
			}
			return n
		case '*':
			if k := strings.Index(text[i+2:], "*/"); k >= 0 {
				return i + 2 + k + 2
			}
			return n
		}
	case '\'', '"':
		return skipQuoted(text, i)
	case '`':
		return skipTemplate(text, i)
	}
	return i
}

// InCode reports whether pos lies outside every non-code span of text.
// A span that starts exactly at pos does not count, so the opening quote
// of a quoted property key is in code.
func InCode(text string, pos int) bool {
	for i := 0; i < pos && i < len(text); {
		if j := SkipNonCode(text, i); j > i {
			if j > pos {
				return false
			}
			i = j
			continue
		}
		i++
	}
	return true
}

func skipQuoted(text string, i int) int {
	quote := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(text)
}

func skipTemplate(text string, i int) int {
	n := len(text)
	j := i + 1
	for j < n {
		switch {
		case text[j] == '\\':
			j += 2
		case text[j] == '`':
			return j + 1
		case text[j] == '$' && j+1 < n && text[j+1] == '{':
			j = skipSubstitution(text, j+2)
		default:
			j++
		}
	}
	return n
}

// skipSubstitution scans the body of a ${...} substitution starting just
// after the "${" and returns the index after its closing brace.
func skipSubstitution(text string, j int) int {
	depth := 1
	for j < len(text) {
		if k := SkipNonCode(text, j); k > j {
			j = k
			continue
		}
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
		j++
	}
	return len(text)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isCommentStart(text string, i int) bool {
	return i+1 < len(text) && text[i] == '/' && (text[i+1] == '/' || text[i+1] == '*')
}

// skipSpace skips whitespace only.
func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

// skipSpaceAndComments skips whitespace and comments, but not strings.
func skipSpaceAndComments(text string, i int) int {
	for i < len(text) {
		switch {
		case isSpace(text[i]):
			i++
		case isCommentStart(text, i):
			i = SkipNonCode(text, i)
		default:
			return i
		}
	}
	return i
}
