// Package diffview renders the change a rewrite makes to a config file as a
// unified diff, for --dry-run output.
package diffview

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// op is one line of a line-level diff: ' ' equal, '-' removed, '+' added.
type op struct {
	kind byte
	text string
}

// Unified returns a unified diff from oldText to newText, labelled with
// path. It returns "" when the texts are equal.
func Unified(path, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	ops := lineOps(oldText, newText)

	// oldBefore[i] and newBefore[i] count the old/new lines in ops[:i].
	oldBefore := make([]int, len(ops)+1)
	newBefore := make([]int, len(ops)+1)
	for i, o := range ops {
		oldBefore[i+1] = oldBefore[i]
		newBefore[i+1] = newBefore[i]
		if o.kind != '+' {
			oldBefore[i+1]++
		}
		if o.kind != '-' {
			newBefore[i+1]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", path, path)

	for i := 0; i < len(ops); {
		for i < len(ops) && ops[i].kind == ' ' {
			i++
		}
		if i == len(ops) {
			break
		}

		start := max(i-contextLines, 0)
		end := i + 1
		for j := i + 1; j < len(ops); {
			if ops[j].kind != ' ' {
				j++
				end = j
				continue
			}
			k := j
			for k < len(ops) && ops[k].kind == ' ' {
				k++
			}
			// Changes separated by little enough context share a hunk.
			if k == len(ops) || k-j > 2*contextLines {
				break
			}
			j = k
		}
		stop := min(end+contextLines, len(ops))

		writeHunk(&b, ops[start:stop], oldBefore[start], newBefore[start])
		i = stop
	}
	return b.String()
}

func writeHunk(b *strings.Builder, ops []op, oldSkipped, newSkipped int) {
	oldCount, newCount := 0, 0
	for _, o := range ops {
		if o.kind != '+' {
			oldCount++
		}
		if o.kind != '-' {
			newCount++
		}
	}
	oldStart, newStart := oldSkipped, newSkipped
	if oldCount > 0 {
		oldStart++
	}
	if newCount > 0 {
		newStart++
	}

	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
	for _, o := range ops {
		b.WriteByte(o.kind)
		if line, ok := strings.CutSuffix(o.text, "\n"); ok {
			b.WriteString(line)
			b.WriteByte('\n')
		} else {
			b.WriteString(o.text)
			b.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// lineOps computes a line-level diff with diff-match-patch.
func lineOps(oldText, newText string) []op {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var ops []op
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				ops = append(ops, op{kind: kind, text: line})
			}
		}
	}
	return ops
}
