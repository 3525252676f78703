package scan

import "strings"

// Block is a located `key: { ... }` region.
//
// KeyStart is the offset of the key token (the opening quote for a quoted
// key), Open the offset of the opening brace and End one past the matching
// closing brace. Raw is text[Open:End], delimiters included. Replacing
// text[KeyStart:End] replaces the whole property.
type Block struct {
	KeyStart int
	Open     int
	End      int
	Raw      string
}

// ArrayBlock is a located `key: [ ... ]` region. The fields have the same
// meaning as in Block, with brackets instead of braces.
type ArrayBlock Block

// CallExpression is a located `name( ... )` call.
//
// Start/End bound the whole call text, Raw == text[Start:End]. InnerStart and
// InnerEnd bound the first `{ ... }` argument (braces included) and Inner is
// its text. InnerStart is -1 when the call has no object argument.
type CallExpression struct {
	Start      int
	End        int
	Raw        string
	InnerStart int
	InnerEnd   int
	Inner      string
}

// HasInner reports whether the call has an object argument.
func (c CallExpression) HasInner() bool {
	return c.InnerStart >= 0
}

// FindNamedBlock locates the first `key: { ... }` property in text whose key
// is not inside a string, template literal or comment. The key may be a bare
// identifier or a single/double quoted string.
func FindNamedBlock(text, key string) (Block, bool) {
	return findKeyed(text, key, '{', '}')
}

// FindNamedArray locates the first `key: [ ... ]` property in text, with the
// same rules as FindNamedBlock.
func FindNamedArray(text, key string) (ArrayBlock, bool) {
	b, ok := findKeyed(text, key, '[', ']')
	return ArrayBlock(b), ok
}

// FindCallExpression locates the first call `name(...)` in code and, within
// it, the first object-literal argument. Function declarations named name
// are not calls and are skipped.
func FindCallExpression(text, name string) (CallExpression, bool) {
	n := len(text)
	for i := 0; i < n; {
		if end, ok := matchIdent(text, i, name); ok && !precededByWord(text, i, "function") {
			j := skipSpace(text, end)
			if j < n && text[j] == '(' {
				return walkCall(text, i, j)
			}
		}
		if j := SkipNonCode(text, i); j > i {
			i = j
			continue
		}
		i++
	}
	return CallExpression{}, false
}

// LineIndent returns the leading whitespace of the line containing pos.
func LineIndent(text string, pos int) string {
	if pos > len(text) {
		pos = len(text)
	}
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

func findKeyed(text, key string, openCh, closeCh byte) (Block, bool) {
	n := len(text)
	for i := 0; i < n; {
		if end, ok := matchKey(text, i, key); ok {
			j := skipSpace(text, end)
			if j < n && text[j] == ':' {
				j = skipSpace(text, j+1)
				if j < n && text[j] == openCh {
					stop := matchClose(text, j, openCh, closeCh)
					if stop < 0 {
						// Unbalanced to the end of the file: nothing after
						// this point can be located reliably.
						return Block{}, false
					}
					return Block{KeyStart: i, Open: j, End: stop, Raw: text[j:stop]}, true
				}
			}
		}
		if j := SkipNonCode(text, i); j > i {
			i = j
			continue
		}
		i++
	}
	return Block{}, false
}

// matchClose walks forward from the opening delimiter at open and returns
// the index one past its matching close, or -1.
func matchClose(text string, open int, openCh, closeCh byte) int {
	depth := 1
	for j := open + 1; j < len(text); {
		if k := SkipNonCode(text, j); k > j {
			j = k
			continue
		}
		switch text[j] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return j + 1
			}
		}
		j++
	}
	return -1
}

func walkCall(text string, start, paren int) (CallExpression, bool) {
	depth := 1
	innerStart, innerEnd := -1, -1
	for j := paren + 1; j < len(text); {
		if k := SkipNonCode(text, j); k > j {
			j = k
			continue
		}
		switch text[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				call := CallExpression{
					Start:      start,
					End:        j + 1,
					Raw:        text[start : j+1],
					InnerStart: innerStart,
					InnerEnd:   innerEnd,
				}
				if innerStart >= 0 {
					call.Inner = text[innerStart:innerEnd]
				}
				return call, true
			}
		case '{':
			if depth == 1 && innerStart < 0 {
				stop := matchClose(text, j, '{', '}')
				if stop < 0 {
					return CallExpression{}, false
				}
				innerStart, innerEnd = j, stop
				j = stop
				continue
			}
		}
		j++
	}
	return CallExpression{}, false
}

// matchKey reports whether a property key spelling key starts at i, either
// bare or quoted, and returns the index just past the key token.
func matchKey(text string, i int, key string) (int, bool) {
	if c := text[i]; c == '"' || c == '\'' {
		end := i + 1 + len(key)
		if end < len(text) && text[i+1:end] == key && text[end] == c {
			return end + 1, true
		}
		return 0, false
	}
	return matchIdent(text, i, key)
}

// matchIdent reports whether the identifier name starts at i on an
// identifier boundary.
func matchIdent(text string, i int, name string) (int, bool) {
	if name == "" || !strings.HasPrefix(text[i:], name) {
		return 0, false
	}
	if i > 0 && isIdentByte(text[i-1]) {
		return 0, false
	}
	end := i + len(name)
	if end < len(text) && isIdentByte(text[end]) {
		return 0, false
	}
	return end, true
}

// precededByWord reports whether the identifier before position i
// (ignoring whitespace) is word.
func precededByWord(text string, i int, word string) bool {
	j := i
	for j > 0 && isSpace(text[j-1]) {
		j--
	}
	k := j
	for k > 0 && isIdentByte(text[k-1]) {
		k--
	}
	return text[k:j] == word
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
