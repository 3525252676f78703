// Package model defines the domain types for the fedpatch CLI.
//
// All entities in this package describe the module-federation section of a
// Vite configuration file. They are used throughout the application for
// passing data between the scanner, the renderer, the plan loader and the
// CLI layer.
package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Role describes whether a configuration file exposes modules to other
// applications ("remote") or consumes modules from them ("host").
//
// A Role is never stored in a configuration file. It is recomputed from
// which federation block is present every time the file is read.
type Role string

const (
	// RoleRemote indicates the file contains an exposes block.
	RoleRemote Role = "remote"

	// RoleHost indicates the file contains a remotes block and no exposes block.
	RoleHost Role = "host"

	// RoleUnknown indicates neither block was found.
	RoleUnknown Role = ""
)

// String returns the string representation of Role.
// RoleUnknown prints as "unknown" so it is never rendered as an empty string
// in CLI output.
func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// IsValid checks whether the Role value is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleRemote, RoleHost, RoleUnknown:
		return true
	default:
		return false
	}
}

// ParseRole converts a string to a Role.
// "unknown" and the empty string both map to RoleUnknown.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return RoleRemote, nil
	case "host":
		return RoleHost, nil
	case "", "unknown":
		return RoleUnknown, nil
	default:
		return "", fmt.Errorf("invalid role: %q (valid: remote, host)", s)
	}
}

// Expose is a single exposed module: the public path other applications
// import (e.g. "./Button") and the local file that implements it.
type Expose struct {
	Path string `json:"path" yaml:"path"`
	File string `json:"file" yaml:"file"`
}

// ExposeMap is an ordered mapping from expose path to local file path.
// Order matters because it is preserved when the map is rendered back into
// the configuration file, keeping diffs minimal. Keys are unique.
type ExposeMap []Expose

// Get returns the file exposed under path.
func (m ExposeMap) Get(path string) (string, bool) {
	for _, e := range m {
		if e.Path == path {
			return e.File, true
		}
	}
	return "", false
}

// Set returns a copy of the map with path mapped to file. An existing entry
// keeps its position; a new entry is appended.
func (m ExposeMap) Set(path, file string) ExposeMap {
	out := make(ExposeMap, len(m), len(m)+1)
	copy(out, m)
	for i := range out {
		if out[i].Path == path {
			out[i].File = file
			return out
		}
	}
	return append(out, Expose{Path: path, File: file})
}

// Remove returns a copy of the map without path, and whether it was present.
func (m ExposeMap) Remove(path string) (ExposeMap, bool) {
	out := make(ExposeMap, 0, len(m))
	found := false
	for _, e := range m {
		if e.Path == path {
			found = true
			continue
		}
		out = append(out, e)
	}
	return out, found
}

// Paths returns the expose paths in map order.
func (m ExposeMap) Paths() []string {
	paths := make([]string, len(m))
	for i, e := range m {
		paths[i] = e.Path
	}
	return paths
}

// DefaultRemoteType is the entry module type rendered when none is set.
const DefaultRemoteType = "module"

// RemoteEntry describes one remote application consumed by a host.
type RemoteEntry struct {
	// Name is the remote's federation name (its own `name` setting).
	Name string `json:"name" yaml:"name,omitempty"`

	// Entry is the URL of the remote's entry file,
	// e.g. "http://localhost:5001/remoteEntry.js".
	Entry string `json:"entry" yaml:"entry,omitempty"`

	// Type is the module type of the entry. Defaults to "module" when rendered.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// RemoteMap maps a remote identifier (the key used in import specifiers)
// to its entry.
type RemoteMap map[string]RemoteEntry

// IDs returns the remote identifiers in sorted order.
// Map iteration order is non-deterministic in Go, so every consumer that
// renders or prints remotes goes through IDs.
func (m RemoteMap) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SharedDep holds the sharing options for one dependency.
type SharedDep struct {
	Singleton       bool   `json:"singleton,omitempty" yaml:"singleton,omitempty"`
	RequiredVersion string `json:"requiredVersion,omitempty" yaml:"requiredVersion,omitempty"`
	Eager           bool   `json:"eager,omitempty" yaml:"eager,omitempty"`
}

// SharedMap maps a package name to its sharing options.
type SharedMap map[string]SharedDep

// Names returns the shared package names in sorted order.
func (m SharedMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FederationConfig is the structured form of a federation plugin call plus
// the few surrounding settings needed to regenerate a whole file.
type FederationConfig struct {
	// Name is the federation name of this application.
	Name string `json:"name"`

	// Role is remote or host. It decides which of Exposes/Remotes is required.
	Role Role `json:"role"`

	// Filename is the generated entry file name (e.g. "remoteEntry.js").
	Filename string `json:"filename,omitempty"`

	// Port is the dev-server port. Only used when a whole file is generated.
	Port int `json:"port,omitempty"`

	// Framework selects the framework plugin import for whole-file generation
	// ("react", "vue", "svelte" or empty).
	Framework string `json:"framework,omitempty"`

	Exposes ExposeMap `json:"exposes,omitempty"`
	Remotes RemoteMap `json:"remotes,omitempty"`
	Shared  SharedMap `json:"shared,omitempty"`

	// Advanced holds free-form plugin options rendered verbatim as literals
	// into the federation call (e.g. {"dts": false}).
	Advanced map[string]any `json:"advanced,omitempty"`
}

// nameRegex validates federation names. The name ends up as a JavaScript
// global, so it must start with a letter, underscore or dollar sign.
var nameRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$-]*$`)

// ValidateName checks if the given name is a valid federation name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("federation name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid federation name %q: must start with a letter, '_' or '$' and contain only letters, digits, '_', '$' and '-'", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no Vite configuration file was found.
	ExitConfigNotFound ExitCode = 2

	// ExitInvalidPlan indicates the plan file could not be loaded or failed
	// validation.
	ExitInvalidPlan ExitCode = 3

	// ExitPortAllocationFailed indicates no free port was found for a new remote.
	ExitPortAllocationFailed ExitCode = 4

	// ExitWriteFailed indicates the configuration file could not be written.
	ExitWriteFailed ExitCode = 5

	// ExitBlockNotFound indicates the requested federation block or entry
	// does not exist in the file.
	ExitBlockNotFound ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
