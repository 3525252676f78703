// Package plan loads federation plans: YAML or JSON(C) files describing the
// federation settings fedpatch should write into one or more configs.
//
// A plan looks like:
//
//	name: remote1
//	role: remote
//	exposes:
//	  ./Button: ./src/components/Button.tsx
//	  ./Header: ./src/components/Header.tsx
//	shared:
//	  react: { singleton: true, requiredVersion: "^18.2.0" }
//
// Mapping order is kept for exposes, so the rendered block lists them in
// the order the plan author wrote them. JSON plans may contain comments and
// trailing commas; they are cleaned with tidwall/jsonc and then decoded by
// the same YAML decoder, since JSON is valid YAML.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// AutoEntry is the remote entry value asking fedpatch to allocate a port
// and derive the entry URL itself. An empty entry means the same.
const AutoEntry = "auto"

// Format is the encoding of a plan file.
type Format int

const (
	// FormatYAML is a YAML plan (.yaml, .yml).
	FormatYAML Format = iota
	// FormatJSON is a JSON or JSONC plan (.json, .jsonc).
	FormatJSON
)

// DetectFormat picks the plan format from the file extension. Unknown
// extensions are read as YAML, which also accepts plain JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	}
	return FormatYAML
}

// rawPlan is the on-disk shape of a plan.
type rawPlan struct {
	Name      string                `yaml:"name"`
	Role      string                `yaml:"role"`
	Port      int                   `yaml:"port"`
	Framework string                `yaml:"framework"`
	Filename  string                `yaml:"filename"`
	Exposes   exposeList            `yaml:"exposes"`
	Remotes   map[string]remoteSpec `yaml:"remotes"`
	Shared    sharedSpec            `yaml:"shared"`
	Advanced  map[string]any        `yaml:"advanced"`
}

// Load reads and parses the plan file at path.
//
// Returns a CLIError with ExitInvalidPlan if the file cannot be read or
// does not describe a valid plan.
func Load(path string) (*model.FederationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidPlan, fmt.Sprintf("failed to read plan %s", path), err)
	}
	cfg, err := Parse(data, DetectFormat(path))
	if err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			cliErr.Message = fmt.Sprintf("%s: %s", path, cliErr.Message)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a plan. Unknown top-level fields are rejected so that typos
// do not silently drop settings.
//
// Remote entries that are empty or "auto" are returned with an empty Entry
// for the caller to fill in with an allocated port.
func Parse(data []byte, format Format) (*model.FederationConfig, error) {
	if format == FormatJSON {
		data = jsonc.ToJSON(data)
	}

	var raw rawPlan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewCLIError(model.ExitInvalidPlan, "plan is empty")
		}
		return nil, model.WrapCLIError(model.ExitInvalidPlan, "failed to parse plan", err)
	}

	role, err := model.ParseRole(raw.Role)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidPlan, "invalid plan", err)
	}

	cfg := &model.FederationConfig{
		Name:      raw.Name,
		Role:      role,
		Filename:  raw.Filename,
		Port:      raw.Port,
		Framework: raw.Framework,
		Exposes:   model.ExposeMap(raw.Exposes),
		Shared:    model.SharedMap(raw.Shared),
		Advanced:  raw.Advanced,
	}
	if len(raw.Remotes) > 0 {
		cfg.Remotes = make(model.RemoteMap, len(raw.Remotes))
		for id, r := range raw.Remotes {
			cfg.Remotes[id] = model.RemoteEntry(r)
		}
	}

	// The role can be left out when the content makes it obvious.
	if cfg.Role == model.RoleUnknown {
		switch {
		case len(cfg.Exposes) > 0:
			cfg.Role = model.RoleRemote
		case len(cfg.Remotes) > 0:
			cfg.Role = model.RoleHost
		}
	}
	return cfg, nil
}

// exposeList decodes exposes from a mapping (in document order) or from a
// list of {path, file} items.
type exposeList model.ExposeMap

func (l *exposeList) UnmarshalYAML(node *yaml.Node) error {
	var m model.ExposeMap
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			file, err := exposeFile(value)
			if err != nil {
				return fmt.Errorf("exposes %q: %w", key.Value, err)
			}
			m = m.Set(key.Value, file)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := checkFields(item, "expose", "path", "file"); err != nil {
				return err
			}
		}
		var items []model.Expose
		if err := node.Decode(&items); err != nil {
			return err
		}
		for _, e := range items {
			m = m.Set(e.Path, e.File)
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("line %d: exposes must be a mapping or a list", node.Line)
		}
	default:
		return fmt.Errorf("line %d: exposes must be a mapping or a list", node.Line)
	}
	*l = exposeList(m)
	return nil
}

func exposeFile(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.MappingNode:
		if err := checkFields(node, "expose", "import"); err != nil {
			return "", err
		}
		var v struct {
			Import string `yaml:"import"`
		}
		if err := node.Decode(&v); err != nil {
			return "", err
		}
		return v.Import, nil
	}
	return "", fmt.Errorf("line %d: expected a file path", node.Line)
}

// remoteSpec decodes a remote given either as its entry URL or as an object.
type remoteSpec model.RemoteEntry

func (r *remoteSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Entry = node.Value
	case yaml.MappingNode:
		if err := checkFields(node, "remote", "name", "entry", "type"); err != nil {
			return err
		}
		var v model.RemoteEntry
		if err := node.Decode(&v); err != nil {
			return err
		}
		*r = remoteSpec(v)
	default:
		return fmt.Errorf("line %d: remote must be an entry URL or a mapping", node.Line)
	}
	if r.Entry == AutoEntry {
		r.Entry = ""
	}
	return nil
}

// sharedSpec decodes shared as a mapping of package options or as a list of
// package names.
type sharedSpec model.SharedMap

func (s *sharedSpec) UnmarshalYAML(node *yaml.Node) error {
	m := model.SharedMap{}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			name, value := node.Content[i].Value, node.Content[i+1]
			var dep model.SharedDep
			switch {
			case value.Kind == yaml.ScalarNode && value.Tag == "!!null":
			case value.Kind == yaml.ScalarNode:
				dep.RequiredVersion = value.Value
			default:
				if err := checkFields(value, "shared package", "singleton", "requiredVersion", "eager"); err != nil {
					return fmt.Errorf("shared %q: %w", name, err)
				}
				if err := value.Decode(&dep); err != nil {
					return fmt.Errorf("shared %q: %w", name, err)
				}
			}
			m[name] = dep
		}
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		for _, name := range names {
			m[name] = model.SharedDep{}
		}
	default:
		return fmt.Errorf("line %d: shared must be a mapping or a list", node.Line)
	}
	*s = sharedSpec(m)
	return nil
}

// checkFields rejects keys of the mapping node other than fields.
// Node.Decode ignores the decoder's KnownFields setting, so nested mappings
// are checked here instead.
func checkFields(node *yaml.Node, what string, fields ...string) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(fields, key.Value) {
			return fmt.Errorf("line %d: field %s not found in %s", key.Line, key.Value, what)
		}
	}
	return nil
}
