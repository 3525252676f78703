package federation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// indentUnit is the indentation added per nesting level in rendered code.
const indentUnit = "  "

// DefaultFilename is the remote entry file name used when a remote config
// does not specify one.
const DefaultFilename = "remoteEntry.js"

// FederationImport is the import line added when a federation call is
// inserted into a file that does not import the plugin yet.
const FederationImport = `import { federation } from "@module-federation/vite";`

// Kind selects what RenderBlock produces.
type Kind int

const (
	// KindExposes renders the `exposes: { ... }` property.
	KindExposes Kind = iota
	// KindRemotes renders the `remotes: { ... }` property.
	KindRemotes
	// KindShared renders the `shared: { ... }` property.
	KindShared
	// KindFederationCall renders a complete `federation({ ... })` call.
	KindFederationCall
	// KindConfigFile renders a whole vite.config file.
	KindConfigFile
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindExposes:
		return "exposes"
	case KindRemotes:
		return "remotes"
	case KindShared:
		return "shared"
	case KindFederationCall:
		return "federation call"
	case KindConfigFile:
		return "config file"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// framework describes the Vite plugin of a UI framework.
type framework struct {
	importLine string
	call       string
}

var frameworks = map[string]framework{
	"react":  {`import react from "@vitejs/plugin-react";`, "react()"},
	"vue":    {`import vue from "@vitejs/plugin-vue";`, "vue()"},
	"svelte": {`import { svelte } from "@sveltejs/vite-plugin-svelte";`, "svelte()"},
}

// IsKnownFramework reports whether name is a framework that whole-file
// generation can emit a plugin for. The empty name means no framework.
func IsKnownFramework(name string) bool {
	if name == "" {
		return true
	}
	_, ok := frameworks[name]
	return ok
}

// identRegex matches keys that can be written without quotes.
var identRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// EscapeString escapes s for use between double quotes. Backslashes,
// double quotes, newlines, carriage returns, backticks and `${` are escaped
// so the result is also safe inside a template literal.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '`':
			b.WriteString("\\`")
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// QuoteString returns s as a double-quoted, escaped string literal.
func QuoteString(s string) string {
	return `"` + EscapeString(s) + `"`
}

// renderKey writes a property key bare when it is an identifier and quoted
// otherwise.
func renderKey(key string) string {
	if identRegex.MatchString(key) {
		return key
	}
	return QuoteString(key)
}

// RenderBlock renders kind from cfg. indent is the indentation of the line
// the rendered text starts on; nested lines are indented relative to it and
// the first line carries no indentation of its own.
//
// Output is deterministic: remotes, shared and advanced options are emitted
// in key order and exposes in their ExposeMap order.
func RenderBlock(kind Kind, cfg *model.FederationConfig, indent string) (string, error) {
	switch kind {
	case KindExposes:
		return renderExposes(cfg.Exposes, indent), nil
	case KindRemotes:
		return renderRemotes(cfg.Remotes, indent), nil
	case KindShared:
		return renderShared(cfg.Shared, indent), nil
	case KindFederationCall:
		return renderFederationCall(cfg, indent)
	case KindConfigFile:
		return renderConfigFile(cfg)
	}
	return "", fmt.Errorf("unknown render kind %d", int(kind))
}

func renderExposes(m model.ExposeMap, indent string) string {
	if len(m) == 0 {
		return KeyExposes + ": {}"
	}
	inner := indent + indentUnit
	var b strings.Builder
	b.WriteString(KeyExposes + ": {\n")
	for _, e := range m {
		fmt.Fprintf(&b, "%s%s: %s,\n", inner, QuoteString(e.Path), QuoteString(e.File))
	}
	b.WriteString(indent + "}")
	return b.String()
}

func renderRemotes(m model.RemoteMap, indent string) string {
	if len(m) == 0 {
		return KeyRemotes + ": {}"
	}
	inner := indent + indentUnit
	field := inner + indentUnit
	var b strings.Builder
	b.WriteString(KeyRemotes + ": {\n")
	for _, id := range m.IDs() {
		r := m[id]
		name := r.Name
		if name == "" {
			name = id
		}
		typ := r.Type
		if typ == "" {
			typ = model.DefaultRemoteType
		}
		fmt.Fprintf(&b, "%s%s: {\n", inner, renderKey(id))
		fmt.Fprintf(&b, "%stype: %s,\n", field, QuoteString(typ))
		fmt.Fprintf(&b, "%sname: %s,\n", field, QuoteString(name))
		fmt.Fprintf(&b, "%sentry: %s,\n", field, QuoteString(r.Entry))
		fmt.Fprintf(&b, "%s},\n", inner)
	}
	b.WriteString(indent + "}")
	return b.String()
}

func renderShared(m model.SharedMap, indent string) string {
	if len(m) == 0 {
		return KeyShared + ": {}"
	}
	inner := indent + indentUnit
	var b strings.Builder
	b.WriteString(KeyShared + ": {\n")
	for _, name := range m.Names() {
		dep := m[name]
		var fields []string
		if dep.Singleton {
			fields = append(fields, "singleton: true")
		}
		if dep.RequiredVersion != "" {
			fields = append(fields, "requiredVersion: "+QuoteString(dep.RequiredVersion))
		}
		if dep.Eager {
			fields = append(fields, "eager: true")
		}
		value := "{}"
		if len(fields) > 0 {
			value = "{ " + strings.Join(fields, ", ") + " }"
		}
		fmt.Fprintf(&b, "%s%s: %s,\n", inner, renderKey(name), value)
	}
	b.WriteString(indent + "}")
	return b.String()
}

// hasExposes reports whether the exposes property belongs in a rendered call.
func hasExposes(cfg *model.FederationConfig) bool {
	return cfg.Role == model.RoleRemote || len(cfg.Exposes) > 0
}

// hasRemotes reports whether the remotes property belongs in a rendered call.
func hasRemotes(cfg *model.FederationConfig) bool {
	return cfg.Role == model.RoleHost || len(cfg.Remotes) > 0
}

// filenameOf returns the filename to render, defaulting it for remotes.
func filenameOf(cfg *model.FederationConfig) string {
	if cfg.Filename == "" && cfg.Role == model.RoleRemote {
		return DefaultFilename
	}
	return cfg.Filename
}

func renderFederationCall(cfg *model.FederationConfig, indent string) (string, error) {
	inner := indent + indentUnit
	var props []string

	props = append(props, "name: "+QuoteString(cfg.Name))
	if filename := filenameOf(cfg); filename != "" {
		props = append(props, "filename: "+QuoteString(filename))
	}
	if hasExposes(cfg) {
		props = append(props, renderExposes(cfg.Exposes, inner))
	}
	if hasRemotes(cfg) {
		props = append(props, renderRemotes(cfg.Remotes, inner))
	}
	if len(cfg.Shared) > 0 {
		props = append(props, renderShared(cfg.Shared, inner))
	}
	for _, key := range sortedKeys(cfg.Advanced) {
		value, err := renderValue(cfg.Advanced[key], inner)
		if err != nil {
			return "", fmt.Errorf("advanced option %q: %w", key, err)
		}
		props = append(props, renderKey(key)+": "+value)
	}

	var b strings.Builder
	b.WriteString(CallName + "({\n")
	for _, p := range props {
		b.WriteString(inner + p + ",\n")
	}
	b.WriteString(indent + "})")
	return b.String(), nil
}

func renderConfigFile(cfg *model.FederationConfig) (string, error) {
	fw, ok := frameworks[cfg.Framework]
	if !ok && cfg.Framework != "" {
		return "", fmt.Errorf("unknown framework %q", cfg.Framework)
	}

	const (
		l1 = indentUnit
		l2 = indentUnit + indentUnit
	)

	call, err := renderFederationCall(cfg, l2)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`import { defineConfig } from "vite";` + "\n")
	if ok {
		b.WriteString(fw.importLine + "\n")
	}
	b.WriteString(FederationImport + "\n\n")
	b.WriteString("export default defineConfig({\n")
	if cfg.Port > 0 {
		origin := QuoteString(fmt.Sprintf("http://localhost:%d", cfg.Port))
		b.WriteString(l1 + "server: {\n")
		fmt.Fprintf(&b, "%sport: %d,\n", l2, cfg.Port)
		fmt.Fprintf(&b, "%sstrictPort: true,\n", l2)
		fmt.Fprintf(&b, "%sorigin: %s,\n", l2, origin)
		b.WriteString(l1 + "},\n")
		fmt.Fprintf(&b, "%sbase: %s,\n", l1, origin)
	}
	b.WriteString(l1 + KeyPlugins + ": [\n")
	if ok {
		b.WriteString(l2 + fw.call + ",\n")
	}
	b.WriteString(l2 + call + ",\n")
	b.WriteString(l1 + "],\n")
	b.WriteString(l1 + "build: {\n")
	b.WriteString(l2 + `target: "chrome89",` + "\n")
	b.WriteString(l1 + "},\n")
	b.WriteString("});\n")
	return b.String(), nil
}

// renderValue renders a plain data value (as decoded from a plan file) as a
// literal. Maps are emitted in key order.
func renderValue(v any, indent string) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return QuoteString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case []any:
		elems := make([]string, 0, len(val))
		for _, e := range val {
			s, err := renderValue(e, indent)
			if err != nil {
				return "", err
			}
			elems = append(elems, s)
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case map[string]any:
		if len(val) == 0 {
			return "{}", nil
		}
		inner := indent + indentUnit
		var b strings.Builder
		b.WriteString("{\n")
		for _, key := range sortedKeys(val) {
			s, err := renderValue(val[key], inner)
			if err != nil {
				return "", fmt.Errorf("%s: %w", key, err)
			}
			fmt.Fprintf(&b, "%s%s: %s,\n", inner, renderKey(key), s)
		}
		b.WriteString(indent + "}")
		return b.String(), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
