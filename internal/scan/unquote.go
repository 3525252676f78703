package scan

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unquote decodes a single string literal: '...', "..." or a back-quoted
// template without substitutions. The whole of lit must be exactly one
// literal; anything else reports ok == false.
//
// Supported escapes are \n \r \t \b \f \v \0 \xHH \uHHHH \u{H...}, line
// continuations, and the identity escape (backslash followed by any other
// character stands for that character, e.g. \" \\ \` \$).
func Unquote(lit string) (string, bool) {
	if len(lit) < 2 {
		return "", false
	}
	quote := lit[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return "", false
	}
	if SkipNonCode(lit, 0) != len(lit) || lit[len(lit)-1] != quote {
		return "", false
	}

	body := lit[1 : len(lit)-1]
	if quote == '`' && hasSubstitution(body) {
		return "", false
	}
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			// Line continuation; \r\n counts as one line terminator.
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 >= len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			r, next, ok := decodeUnicodeEscape(body, i+1)
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i = next - 1
		default:
			// Identity escape. Copy the whole UTF-8 sequence.
			_, size := utf8.DecodeRuneInString(body[i:])
			b.WriteString(body[i : i+size])
			i += size - 1
		}
	}
	return b.String(), true
}

// decodeUnicodeEscape decodes the part of a \u escape starting at i (just
// after the 'u'), combining surrogate pairs written as two escapes.
func decodeUnicodeEscape(body string, i int) (rune, int, bool) {
	if i < len(body) && body[i] == '{' {
		end := strings.IndexByte(body[i:], '}')
		if end < 2 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(body[i+1:i+end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), i + end + 1, true
	}

	if i+4 > len(body) {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(body[i:i+4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	r := rune(v)
	next := i + 4
	if utf16.IsSurrogate(r) && next+6 <= len(body) && body[next] == '\\' && body[next+1] == 'u' {
		if lo, err := strconv.ParseUint(body[next+2:next+6], 16, 16); err == nil {
			if pair := utf16.DecodeRune(r, rune(lo)); pair != utf8.RuneError {
				return pair, next + 6, true
			}
		}
	}
	return r, next, true
}

// hasSubstitution reports whether a template body contains an unescaped "${".
func hasSubstitution(body string) bool {
	for i := 0; i+1 < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '$':
			if body[i+1] == '{' {
				return true
			}
		}
	}
	return false
}
