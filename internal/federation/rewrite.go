package federation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/scan"
)

// Outcome reports how a rewrite changed the text. Outcomes are ordered by
// how invasive they are, and a multi-part Apply reports the largest one.
type Outcome int

const (
	// OutcomeUnchanged means the text already had the requested content.
	OutcomeUnchanged Outcome = iota
	// OutcomeReplaced means an existing region was replaced in place.
	OutcomeReplaced
	// OutcomeInjected means a new property or call was inserted.
	OutcomeInjected
	// OutcomeRegenerated means the whole file was rendered from scratch.
	OutcomeRegenerated
)

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeReplaced:
		return "replaced"
	case OutcomeInjected:
		return "injected"
	case OutcomeRegenerated:
		return "regenerated"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

var (
	// ErrOptionsNotLiteral is returned when a setting has to be written into
	// the federation call's options but the call is given something other
	// than an object literal, such as `federation(opts)`.
	ErrOptionsNotLiteral = errors.New("federation options are not an object literal")

	// ErrUnreadableEntries is returned when replacing a block would drop
	// entries the extractors cannot read, such as spreads or extra fields.
	ErrUnreadableEntries = errors.New("block has entries that cannot be carried over")
)

// Part selects which settings Apply writes. Parts combine as a bit set.
type Part uint

const (
	PartName Part = 1 << iota
	PartFilename
	PartExposes
	PartRemotes
	PartShared
	PartAdvanced

	PartAll = PartName | PartFilename | PartExposes | PartRemotes | PartShared | PartAdvanced
)

// PartsOf returns the parts cfg carries content for. Exposes and remotes
// are included for the matching role even when empty, so that a remote
// always ends up with an exposes block and a host with a remotes block.
func PartsOf(cfg *model.FederationConfig) Part {
	var p Part
	if cfg.Name != "" {
		p |= PartName
	}
	if filenameOf(cfg) != "" {
		p |= PartFilename
	}
	if hasExposes(cfg) {
		p |= PartExposes
	}
	if hasRemotes(cfg) {
		p |= PartRemotes
	}
	if len(cfg.Shared) > 0 {
		p |= PartShared
	}
	if len(cfg.Advanced) > 0 {
		p |= PartAdvanced
	}
	return p
}

// Splice returns text with text[start:end] replaced by newText.
func Splice(text string, start, end int, newText string) string {
	return text[:start] + newText + text[end:]
}

// ReplaceBlock replaces the whole located property (from its key to its
// closing brace) with newText. Every byte outside that range is preserved.
func ReplaceBlock(text string, block scan.Block, newText string) string {
	return Splice(text, block.KeyStart, block.End, newText)
}

// SetExposes writes cfg.Exposes into text.
func SetExposes(text string, cfg *model.FederationConfig) (string, Outcome, error) {
	return Apply(text, cfg, PartExposes)
}

// SetRemotes writes cfg.Remotes into text.
func SetRemotes(text string, cfg *model.FederationConfig) (string, Outcome, error) {
	return Apply(text, cfg, PartRemotes)
}

// SetShared writes cfg.Shared into text.
func SetShared(text string, cfg *model.FederationConfig) (string, Outcome, error) {
	return Apply(text, cfg, PartShared)
}

// SetName writes cfg.Name into text.
func SetName(text string, cfg *model.FederationConfig) (string, Outcome, error) {
	return Apply(text, cfg, PartName)
}

// Apply writes the selected parts of cfg into text, changing as little as
// possible.
//
// For each part, an existing region is replaced in place. A missing one is
// injected into the federation call's object. When the file has no
// federation call, a complete call is inserted at the top of the plugins
// array and the plugin import is added. When it has no plugins array
// either, the whole file is regenerated from cfg.
//
// A call whose argument is not an object literal, such as `federation(opts)`,
// is left in place: blocks found elsewhere in the file are still replaced,
// but anything that would go into the call's options fails with
// ErrOptionsNotLiteral. Replacing a block that holds entries the extractors
// cannot read fails with ErrUnreadableEntries.
//
// Applying the same cfg to the output again returns OutcomeUnchanged.
func Apply(text string, cfg *model.FederationConfig, parts Part) (string, Outcome, error) {
	if parts == 0 {
		return text, OutcomeUnchanged, nil
	}

	call, hasCall := scan.FindCallExpression(text, CallName)
	switch {
	case hasCall && !call.HasInner() && emptyArguments(call):
		// federation() without options: replace the call as a whole.
		rendered, err := RenderBlock(KindFederationCall, cfg, scan.LineIndent(text, call.Start))
		if err != nil {
			return "", OutcomeUnchanged, err
		}
		return Splice(text, call.Start, call.End, rendered), OutcomeReplaced, nil

	case !hasCall:
		if plugins, ok := scan.FindNamedArray(text, KeyPlugins); ok {
			return insertCall(text, plugins, cfg)
		}
		out, err := RenderBlock(KindConfigFile, cfg, "")
		if err != nil {
			return "", OutcomeUnchanged, err
		}
		return out, OutcomeRegenerated, nil
	}

	out := text
	outcome := OutcomeUnchanged
	for _, step := range applySteps {
		if parts&step.part == 0 {
			continue
		}
		next, o, err := step.apply(out, cfg)
		if err != nil {
			return "", OutcomeUnchanged, fmt.Errorf("%s: %w", step.name, err)
		}
		out = next
		outcome = max(outcome, o)
	}
	return out, outcome, nil
}

// applySteps lists the parts in the order they are written. Each step
// locates its region again, so earlier edits never leave stale offsets.
var applySteps = []struct {
	part  Part
	name  string
	apply func(string, *model.FederationConfig) (string, Outcome, error)
}{
	{PartName, KeyName, func(text string, cfg *model.FederationConfig) (string, Outcome, error) {
		return setCallOption(text, KeyName, QuoteString(cfg.Name))
	}},
	{PartFilename, KeyFilename, func(text string, cfg *model.FederationConfig) (string, Outcome, error) {
		return setCallOption(text, KeyFilename, QuoteString(filenameOf(cfg)))
	}},
	{PartExposes, KeyExposes, func(text string, cfg *model.FederationConfig) (string, Outcome, error) {
		return setBlock(text, KeyExposes, KindExposes, cfg)
	}},
	{PartRemotes, KeyRemotes, func(text string, cfg *model.FederationConfig) (string, Outcome, error) {
		return setBlock(text, KeyRemotes, KindRemotes, cfg)
	}},
	{PartShared, KeyShared, func(text string, cfg *model.FederationConfig) (string, Outcome, error) {
		return setBlock(text, KeyShared, KindShared, cfg)
	}},
	{PartAdvanced, "advanced", setAdvanced},
}

// OptionsEditable reports whether Apply can write into the federation
// call's options: text has no call yet, or the call takes an object literal
// or no argument at all.
func OptionsEditable(text string) bool {
	call, ok := scan.FindCallExpression(text, CallName)
	return !ok || call.HasInner() || emptyArguments(call)
}

// emptyArguments reports whether only whitespace sits between the call's
// parentheses.
func emptyArguments(call scan.CallExpression) bool {
	open := strings.IndexByte(call.Raw, '(')
	return open >= 0 && strings.TrimSpace(call.Raw[open+1:len(call.Raw)-1]) == ""
}

// optionsCall finds the federation call whose options can be edited.
func optionsCall(text string) (scan.CallExpression, error) {
	call, ok := scan.FindCallExpression(text, CallName)
	if !ok || !call.HasInner() {
		return scan.CallExpression{}, ErrOptionsNotLiteral
	}
	return call, nil
}

// setBlock replaces the key block in place, or injects it into the
// federation call when it does not exist.
func setBlock(text, key string, kind Kind, cfg *model.FederationConfig) (string, Outcome, error) {
	if block, ok := locateProperty(text, key); ok {
		rendered, err := RenderBlock(kind, cfg, scan.LineIndent(text, block.KeyStart))
		if err != nil {
			return "", OutcomeUnchanged, err
		}
		if text[block.KeyStart:block.End] == rendered {
			return text, OutcomeUnchanged, nil
		}
		if lost := UnreadableEntries(key, block.Raw); len(lost) > 0 {
			return "", OutcomeUnchanged, fmt.Errorf("%w: %s", ErrUnreadableEntries, strings.Join(lost, ", "))
		}
		return ReplaceBlock(text, block, rendered), OutcomeReplaced, nil
	}

	return injectIntoCall(text, func(indent string) (string, error) {
		return RenderBlock(kind, cfg, indent)
	})
}

// locateProperty finds the key block, or for shared also the array form.
func locateProperty(text, key string) (scan.Block, bool) {
	if block, found := scan.FindNamedBlock(text, key); found {
		return block, true
	}
	if key == KeyShared {
		if arr, found := scan.FindNamedArray(text, key); found {
			return scan.Block(arr), true
		}
	}
	return scan.Block{}, false
}

func setAdvanced(text string, cfg *model.FederationConfig) (string, Outcome, error) {
	outcome := OutcomeUnchanged
	for _, key := range sortedKeys(cfg.Advanced) {
		call, err := optionsCall(text)
		if err != nil {
			return "", OutcomeUnchanged, err
		}
		indent := scan.LineIndent(text, call.InnerStart) + indentUnit
		value, err := renderValue(cfg.Advanced[key], indent)
		if err != nil {
			return "", OutcomeUnchanged, fmt.Errorf("%s: %w", key, err)
		}
		next, o, err := setCallOption(text, key, value)
		if err != nil {
			return "", OutcomeUnchanged, err
		}
		text = next
		outcome = max(outcome, o)
	}
	return text, outcome, nil
}

// setCallOption sets a top-level option of the federation call to the
// literal value, replacing only the value text when the option exists.
func setCallOption(text, key, value string) (string, Outcome, error) {
	call, err := optionsCall(text)
	if err != nil {
		return "", OutcomeUnchanged, err
	}
	if p, found := scan.Lookup(scan.Properties(call.Inner), key); found {
		if p.Value == value {
			return text, OutcomeUnchanged, nil
		}
		start := call.InnerStart + p.ValueStart
		end := call.InnerStart + p.ValueEnd
		return Splice(text, start, end, value), OutcomeReplaced, nil
	}
	return injectIntoCall(text, func(string) (string, error) {
		return renderKey(key) + ": " + value, nil
	})
}

// injectIntoCall inserts a property as the first entry of the federation
// call's object. render receives the indentation of the property's line.
func injectIntoCall(text string, render func(indent string) (string, error)) (string, Outcome, error) {
	call, err := optionsCall(text)
	if err != nil {
		return "", OutcomeUnchanged, err
	}

	base := scan.LineIndent(text, call.InnerStart)
	indent := base + indentUnit
	if props := scan.Properties(call.Inner); len(props) > 0 {
		if first := call.InnerStart + props[0].KeyStart; startsLine(text, first) {
			indent = scan.LineIndent(text, first)
		}
	}

	rendered, err := render(indent)
	if err != nil {
		return "", OutcomeUnchanged, err
	}
	return insertAfterOpen(text, call.InnerStart, base, indent, rendered), OutcomeInjected, nil
}

// insertCall inserts a complete federation call as the first element of
// the plugins array and makes sure the plugin is imported.
func insertCall(text string, plugins scan.ArrayBlock, cfg *model.FederationConfig) (string, Outcome, error) {
	base := scan.LineIndent(text, plugins.KeyStart)
	indent := base + indentUnit
	if first := skipInlineSpace(text, plugins.Open+1); first < plugins.End-1 {
		next := skipBlank(text, first)
		if next < plugins.End-1 && startsLine(text, next) {
			indent = scan.LineIndent(text, next)
		}
	}

	rendered, err := RenderBlock(KindFederationCall, cfg, indent)
	if err != nil {
		return "", OutcomeUnchanged, err
	}
	out := insertAfterOpen(text, plugins.Open, base, indent, rendered)
	return ensureImport(out), OutcomeInjected, nil
}

// insertAfterOpen inserts rendered as a new first entry right after the
// opening delimiter at open. Spaces between the delimiter and the next token
// are absorbed so a one-line container becomes multi-line cleanly.
func insertAfterOpen(text string, open int, base, indent, rendered string) string {
	after := open + 1
	ws := skipInlineSpace(text, after)

	insertion := "\n" + indent + rendered + ","
	if ws >= len(text) || (text[ws] != '\n' && text[ws] != '\r') {
		if ws < len(text) && (text[ws] == '}' || text[ws] == ']') {
			insertion += "\n" + base
		} else {
			insertion += "\n" + indent
		}
	}
	return Splice(text, after, ws, insertion)
}

// federationIdent matches the plugin binding inside an import statement.
var federationIdent = regexp.MustCompile(`\bfederation\b`)

// ensureImport adds FederationImport after the last import statement unless
// an import already binds federation. Without imports it goes first.
func ensureImport(text string) string {
	imports := importStatements(text)
	for _, imp := range imports {
		if federationIdent.MatchString(text[imp[0]:imp[1]]) {
			return text
		}
	}
	if len(imports) == 0 {
		return FederationImport + "\n" + text
	}
	end := imports[len(imports)-1][1]
	return Splice(text, end, end, "\n"+FederationImport)
}

// importStatements returns the [start, end) spans of the top-level import
// statements in text. A statement ends after its module specifier string
// and an optional semicolon.
func importStatements(text string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(text); {
		if j := scan.SkipNonCode(text, i); j != i {
			i = j
			continue
		}
		if !startsLine(text, i) || !strings.HasPrefix(text[i:], "import") {
			i++
			continue
		}
		rest := i + len("import")
		if rest < len(text) && (isWordByte(text[rest]) || text[rest] == '.') {
			i = rest
			continue
		}
		end, ok := importEnd(text, rest)
		if !ok {
			i = rest
			continue
		}
		spans = append(spans, [2]int{i, end})
		i = end
	}
	return spans
}

// importEnd finds the end of the import statement whose body starts at i.
func importEnd(text string, i int) (int, bool) {
	for i < len(text) {
		c := text[i]
		if c == '"' || c == '\'' {
			end := scan.SkipNonCode(text, i)
			if end < len(text) && text[end] == ';' {
				end++
			}
			return end, true
		}
		if c == ';' || c == '(' {
			// Dynamic import() or a statement without a specifier.
			return 0, false
		}
		if j := scan.SkipNonCode(text, i); j != i {
			i = j
			continue
		}
		i++
	}
	return 0, false
}

// startsLine reports whether only spaces or tabs precede pos on its line.
func startsLine(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func skipInlineSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i
}

func skipBlank(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
