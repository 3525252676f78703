package scan

// Property is one top-level `key: value` pair of an object literal.
//
// All offsets are relative to the raw object text passed to Properties.
// Value is raw[ValueStart:ValueEnd]: the exact value text with surrounding
// whitespace and trailing comments trimmed.
type Property struct {
	Key        string
	KeyStart   int
	ValueStart int
	ValueEnd   int
	Value      string
}

// Properties lists the top-level properties of the object literal raw
// (braces included), in source order.
//
// Only literal keys are reported: bare identifiers, numbers and quoted
// strings. Spread elements, computed keys, shorthand properties and methods
// are stepped over without being reported. Nested objects are never
// descended into, so their field names cannot be mistaken for top-level
// keys. On malformed input the listing simply stops early.
func Properties(raw string) []Property {
	n := len(raw)
	if n < 2 || raw[0] != '{' {
		return nil
	}

	var props []Property
	i := 1
	for i < n {
		i = skipSeparators(raw, i)
		if i >= n || raw[i] == '}' {
			break
		}

		keyStart := i
		key, keyEnd, ok := readKey(raw, i)
		if !ok {
			i = skipEntry(raw, i)
			continue
		}

		j := skipSpaceAndComments(raw, keyEnd)
		if j >= n || raw[j] != ':' {
			// Shorthand property or method.
			i = skipEntry(raw, keyEnd)
			continue
		}

		valueStart := skipSpaceAndComments(raw, j+1)
		valueEnd, next := scanValue(raw, valueStart)
		props = append(props, Property{
			Key:        key,
			KeyStart:   keyStart,
			ValueStart: valueStart,
			ValueEnd:   valueEnd,
			Value:      raw[valueStart:valueEnd],
		})
		if next <= i {
			break
		}
		i = next
	}
	return props
}

// Lookup returns the first property named key.
func Lookup(props []Property, key string) (Property, bool) {
	for _, p := range props {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// ArrayElements lists the top-level element values of the array literal raw
// (brackets included), trimmed the same way as Property values.
func ArrayElements(raw string) []string {
	n := len(raw)
	if n < 2 || raw[0] != '[' {
		return nil
	}

	var elems []string
	i := 1
	for i < n {
		i = skipSeparators(raw, i)
		if i >= n || raw[i] == ']' {
			break
		}
		end, next := scanValue(raw, i)
		if end > i {
			elems = append(elems, raw[i:end])
		}
		if next <= i {
			break
		}
		i = next
	}
	return elems
}

// Entries counts the top-level entries of the object or array literal raw,
// including the spread, computed, shorthand and method entries that
// Properties steps over.
func Entries(raw string) int {
	n := len(raw)
	if n < 2 || (raw[0] != '{' && raw[0] != '[') {
		return 0
	}
	closing := byte('}')
	if raw[0] == '[' {
		closing = ']'
	}

	count := 0
	for i := 1; i < n; {
		i = skipSeparators(raw, i)
		if i >= n || raw[i] == closing {
			break
		}
		end, next := scanValue(raw, i)
		if end > i {
			count++
		}
		if next <= i {
			break
		}
		i = next
	}
	return count
}

// readKey reads a literal property key at i.
func readKey(raw string, i int) (key string, end int, ok bool) {
	c := raw[i]
	switch {
	case c == '"' || c == '\'':
		end = SkipNonCode(raw, i)
		key, ok = Unquote(raw[i:end])
		return key, end, ok
	case isIdentByte(c):
		end = i
		for end < len(raw) && isIdentByte(raw[end]) {
			end++
		}
		return raw[i:end], end, true
	default:
		return "", i, false
	}
}

// scanValue walks a value starting at i and stops at the first top-level
// ',' or at a closing delimiter that would end the enclosing literal.
// end is one past the last code or literal byte of the value, next is where
// scanning of the enclosing literal resumes.
func scanValue(raw string, i int) (end, next int) {
	depth := 0
	end = i
	j := i
	for j < len(raw) {
		if isCommentStart(raw, j) {
			j = SkipNonCode(raw, j)
			continue
		}
		if k := SkipNonCode(raw, j); k > j {
			j, end = k, k
			continue
		}
		switch raw[j] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			if depth == 0 {
				return end, j
			}
			depth--
		case ',':
			if depth == 0 {
				return end, j + 1
			}
		}
		if !isSpace(raw[j]) {
			end = j + 1
		}
		j++
	}
	return end, j
}

// skipEntry steps over an entry that is not reported.
func skipEntry(raw string, i int) int {
	_, next := scanValue(raw, i)
	if next <= i {
		return i + 1
	}
	return next
}

func skipSeparators(raw string, i int) int {
	for i < len(raw) {
		switch {
		case isSpace(raw[i]) || raw[i] == ',':
			i++
		case isCommentStart(raw, i):
			i = SkipNonCode(raw, i)
		default:
			return i
		}
	}
	return i
}
