package federation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/scan"
)

// Names of the source constructs the package looks for.
const (
	CallName    = "federation"
	KeyExposes  = "exposes"
	KeyRemotes  = "remotes"
	KeyShared   = "shared"
	KeyName     = "name"
	KeyFilename = "filename"
	KeyPlugins  = "plugins"
)

// remoteFieldNames are the fields of a remote's own object. They are never
// remote identifiers, even if a malformed file makes them look like one.
var remoteFieldNames = map[string]bool{
	"type":  true,
	"name":  true,
	"entry": true,
}

// knownCallKeys are the federation options with a dedicated model field.
// Every other literal option is reported in FederationConfig.Advanced.
var knownCallKeys = map[string]bool{
	KeyName:     true,
	KeyFilename: true,
	KeyExposes:  true,
	KeyRemotes:  true,
	KeyShared:   true,
}

// UnquoteString decodes one string literal as written in a configuration
// file. It is the inverse of QuoteString.
func UnquoteString(lit string) (string, bool) {
	return scan.Unquote(lit)
}

// ParseExposeMap locates the exposes block in text and extracts it.
// It returns nil when there is no exposes block.
func ParseExposeMap(text string) model.ExposeMap {
	block, ok := scan.FindNamedBlock(text, KeyExposes)
	if !ok {
		return nil
	}
	return ExtractExposeMap(block.Raw)
}

// ExtractExposeMap turns the raw text of an exposes object into an
// ExposeMap, in source order.
//
// Values are either a string literal or an object with an `import` string
// field. Entries with any other value are skipped. A duplicated key keeps
// the position of its first occurrence and the value of its last.
func ExtractExposeMap(raw string) model.ExposeMap {
	m := model.ExposeMap{}
	for _, p := range scan.Properties(raw) {
		file, ok := exposeFile(p.Value)
		if !ok {
			continue
		}
		m = m.Set(p.Key, file)
	}
	return m
}

func exposeFile(value string) (string, bool) {
	if s, ok := scan.Unquote(value); ok {
		return s, true
	}
	if strings.HasPrefix(value, "{") {
		if p, ok := scan.Lookup(scan.Properties(value), "import"); ok {
			return scan.Unquote(p.Value)
		}
	}
	return "", false
}

// ParseRemoteMap locates the remotes block in text and extracts it.
// It returns nil when there is no remotes block.
func ParseRemoteMap(text string) model.RemoteMap {
	block, ok := scan.FindNamedBlock(text, KeyRemotes)
	if !ok {
		return nil
	}
	return ExtractRemoteMap(block.Raw)
}

// ExtractRemoteMap turns the raw text of a remotes object into a RemoteMap.
//
// Each top-level entry is one remote. Its value may be:
//
//	remote1: { type: "module", name: "remote1", entry: "http://..." }
//	remote1: "http://localhost:5001/remoteEntry.js"
//	remote1: "remote1@http://localhost:5001/remoteEntry.js"
//
// Only top-level keys are considered, so the nested type/name/entry fields
// can never be read as additional remotes.
func ExtractRemoteMap(raw string) model.RemoteMap {
	m := model.RemoteMap{}
	for _, p := range scan.Properties(raw) {
		if remoteFieldNames[p.Key] {
			continue
		}
		entry, ok := remoteEntry(p.Key, p.Value)
		if !ok {
			continue
		}
		m[p.Key] = entry
	}
	return m
}

func remoteEntry(id, value string) (model.RemoteEntry, bool) {
	if s, ok := scan.Unquote(value); ok {
		entry := model.RemoteEntry{Name: id, Entry: s}
		// Webpack style "name@url".
		if at := strings.IndexByte(s, '@'); at > 0 && !strings.Contains(s[:at], "/") {
			entry.Name = s[:at]
			entry.Entry = s[at+1:]
		}
		return entry, true
	}

	if !strings.HasPrefix(value, "{") {
		return model.RemoteEntry{}, false
	}

	props := scan.Properties(value)
	entry := model.RemoteEntry{
		Name:  stringField(props, "name"),
		Entry: stringField(props, "entry"),
		Type:  stringField(props, "type"),
	}
	if entry.Name == "" {
		entry.Name = id
	}
	return entry, true
}

// ParseShared locates the shared setting in text. Both the object form
// (`shared: { react: { singleton: true } }`) and the array form
// (`shared: ["react"]`) are understood. It returns nil when there is none.
func ParseShared(text string) model.SharedMap {
	if block, ok := scan.FindNamedBlock(text, KeyShared); ok {
		m := model.SharedMap{}
		for _, p := range scan.Properties(block.Raw) {
			m[p.Key] = sharedDep(p.Value)
		}
		return m
	}

	if arr, ok := scan.FindNamedArray(text, KeyShared); ok {
		m := model.SharedMap{}
		for _, elem := range scan.ArrayElements(arr.Raw) {
			if name, ok := scan.Unquote(elem); ok {
				m[name] = model.SharedDep{}
			}
		}
		return m
	}
	return nil
}

func sharedDep(value string) model.SharedDep {
	if version, ok := scan.Unquote(value); ok {
		return model.SharedDep{RequiredVersion: version}
	}
	props := scan.Properties(value)
	return model.SharedDep{
		Singleton:       boolField(props, "singleton"),
		RequiredVersion: stringField(props, "requiredVersion"),
		Eager:           boolField(props, "eager"),
	}
}

// fieldKind is the literal type a nested field is read as.
type fieldKind int

const (
	stringKind fieldKind = iota
	boolKind
)

// Nested fields the extractors read, per block.
var (
	exposeFields = map[string]fieldKind{"import": stringKind}
	remoteFields = map[string]fieldKind{"type": stringKind, "name": stringKind, "entry": stringKind}
	sharedFields = map[string]fieldKind{"singleton": boolKind, "requiredVersion": stringKind, "eager": boolKind}
)

// UnreadableEntries lists the entries of a raw exposes, remotes or shared
// literal (named by key) that the extractors skip or read only in part.
// Rendering the block again from extracted settings would lose them, so a
// block with unreadable entries must not be replaced.
func UnreadableEntries(key, raw string) []string {
	var lost []string
	if strings.HasPrefix(raw, "[") {
		for _, elem := range scan.ArrayElements(raw) {
			if _, ok := scan.Unquote(elem); !ok {
				lost = append(lost, elem)
			}
		}
		return lost
	}

	props := scan.Properties(raw)
	if n := scan.Entries(raw) - len(props); n > 0 {
		lost = append(lost, fmt.Sprintf("%d entries without a literal key", n))
	}
	for _, p := range props {
		if !entryReadable(key, p) {
			lost = append(lost, p.Key)
		}
	}
	return lost
}

func entryReadable(key string, p scan.Property) bool {
	switch key {
	case KeyExposes:
		_, ok := exposeFile(p.Value)
		return ok && (!strings.HasPrefix(p.Value, "{") || onlyFields(p.Value, exposeFields))
	case KeyRemotes:
		if remoteFieldNames[p.Key] {
			return false
		}
		if _, ok := scan.Unquote(p.Value); ok {
			return true
		}
		return onlyFields(p.Value, remoteFields)
	case KeyShared:
		if _, ok := scan.Unquote(p.Value); ok {
			return true
		}
		return onlyFields(p.Value, sharedFields)
	}
	return true
}

// onlyFields reports whether value is an object literal made of known
// fields holding literals of their expected type.
func onlyFields(value string, fields map[string]fieldKind) bool {
	if !strings.HasPrefix(value, "{") {
		return false
	}
	props := scan.Properties(value)
	if scan.Entries(value) != len(props) {
		return false
	}
	for _, p := range props {
		kind, ok := fields[p.Key]
		if !ok {
			return false
		}
		switch kind {
		case stringKind:
			if _, ok := scan.Unquote(p.Value); !ok {
				return false
			}
		case boolKind:
			if p.Value != "true" && p.Value != "false" {
				return false
			}
		}
	}
	return true
}

// ParseName returns the `name` option of the federation call, or "".
func ParseName(text string) string {
	return callStringOption(text, KeyName)
}

// ParseFilename returns the `filename` option of the federation call, or "".
func ParseFilename(text string) string {
	return callStringOption(text, KeyFilename)
}

// ParseConfig extracts everything fedpatch understands from text.
// Advanced collects the remaining literal options of the federation call
// (strings, booleans, numbers and null); other expressions are left out.
func ParseConfig(text string) model.FederationConfig {
	cfg := model.FederationConfig{
		Role:    ClassifyRole(text),
		Exposes: ParseExposeMap(text),
		Remotes: ParseRemoteMap(text),
		Shared:  ParseShared(text),
	}

	call, ok := scan.FindCallExpression(text, CallName)
	if !ok || !call.HasInner() {
		return cfg
	}
	props := scan.Properties(call.Inner)
	cfg.Name = stringField(props, KeyName)
	cfg.Filename = stringField(props, KeyFilename)
	for _, p := range props {
		if knownCallKeys[p.Key] {
			continue
		}
		if v, ok := parseLiteral(p.Value); ok {
			if cfg.Advanced == nil {
				cfg.Advanced = make(map[string]any)
			}
			cfg.Advanced[p.Key] = v
		}
	}
	return cfg
}

func callStringOption(text, key string) string {
	call, ok := scan.FindCallExpression(text, CallName)
	if !ok || !call.HasInner() {
		return ""
	}
	return stringField(scan.Properties(call.Inner), key)
}

func stringField(props []scan.Property, key string) string {
	p, ok := scan.Lookup(props, key)
	if !ok {
		return ""
	}
	s, _ := scan.Unquote(p.Value)
	return s
}

func boolField(props []scan.Property, key string) bool {
	p, ok := scan.Lookup(props, key)
	return ok && p.Value == "true"
}

// parseLiteral decodes a scalar literal value.
func parseLiteral(value string) (any, bool) {
	switch value {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	if s, ok := scan.Unquote(value); ok {
		return s, true
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}
	return nil, false
}
