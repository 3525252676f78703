// validate.go checks federation settings before they are rendered, and
// checks rewritten text before it is written back.
//
// Both checks return every problem found instead of stopping at the first
// one, so a plan author sees all of them in a single run.
package federation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// ValidationError represents one validation failure in a federation config.
type ValidationError struct {
	// Field is the setting that failed validation (e.g. "exposes[./Button]").
	Field string

	// Message describes what's wrong with the value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("federation config validation error: %s: %s", e.Field, e.Message)
}

// ValidateConfig checks cfg for problems that would produce a broken or
// ambiguous configuration file. An empty result means cfg is valid.
//
// Checks performed:
//   - name: must be a valid federation name
//   - role: must be remote or host
//   - exposes: a remote exposes at least one module; every path starts
//     with "./" and every file is non-empty
//   - remotes: every entry is an http(s) URL
//   - filename/framework: must be usable for rendering
func ValidateConfig(cfg *model.FederationConfig) []ValidationError {
	var errs []ValidationError

	if err := model.ValidateName(cfg.Name); err != nil {
		errs = append(errs, ValidationError{Field: "name", Message: err.Error()})
	}

	switch cfg.Role {
	case model.RoleRemote:
		if len(cfg.Exposes) == 0 {
			errs = append(errs, ValidationError{
				Field:   "exposes",
				Message: "a remote must expose at least one module",
			})
		}
	case model.RoleHost:
	default:
		errs = append(errs, ValidationError{
			Field:   "role",
			Message: fmt.Sprintf("role must be %q or %q, got %q", model.RoleRemote, model.RoleHost, string(cfg.Role)),
		})
	}

	for _, e := range cfg.Exposes {
		field := "exposes[" + e.Path + "]"
		if !strings.HasPrefix(e.Path, "./") {
			errs = append(errs, ValidationError{Field: field, Message: `expose path must start with "./"`})
		}
		if strings.TrimSpace(e.File) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "expose file must not be empty"})
		}
	}

	for _, id := range cfg.Remotes.IDs() {
		field := "remotes." + id
		if id == "" {
			errs = append(errs, ValidationError{Field: "remotes", Message: "remote id must not be empty"})
			continue
		}
		if err := ValidateEntryURL(cfg.Remotes[id].Entry); err != nil {
			errs = append(errs, ValidationError{Field: field + ".entry", Message: err.Error()})
		}
	}

	if strings.ContainsAny(cfg.Filename, "/\\") {
		errs = append(errs, ValidationError{Field: "filename", Message: "filename must be a bare file name"})
	}

	if !IsKnownFramework(cfg.Framework) {
		errs = append(errs, ValidationError{
			Field:   "framework",
			Message: fmt.Sprintf("unknown framework %q (supported: react, vue, svelte)", cfg.Framework),
		})
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "port",
			Message: fmt.Sprintf("port %d is out of range (0-65535)", cfg.Port),
		})
	}

	return errs
}

// ValidateEntryURL checks that entry is an absolute http(s) URL with a host.
func ValidateEntryURL(entry string) error {
	if entry == "" {
		return fmt.Errorf("entry URL must not be empty")
	}
	u, err := url.Parse(entry)
	if err != nil {
		return fmt.Errorf("invalid entry URL %q: %w", entry, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("entry URL %q must use http or https", entry)
	}
	if u.Host == "" {
		return fmt.Errorf("entry URL %q has no host", entry)
	}
	return nil
}

// ValidateRewritten parses text back and reports where it does not carry
// the parts of cfg that were written. It catches rewrites that produced text
// the extractors no longer understand.
func ValidateRewritten(text string, cfg *model.FederationConfig, parts Part) []ValidationError {
	var errs []ValidationError
	got := ParseConfig(text)

	if parts&PartName != 0 && got.Name != cfg.Name {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("expected %q after rewrite, found %q", cfg.Name, got.Name),
		})
	}

	if parts&PartExposes != 0 {
		if len(got.Exposes) != len(cfg.Exposes) {
			errs = append(errs, ValidationError{
				Field:   "exposes",
				Message: fmt.Sprintf("expected %d entries after rewrite, found %d", len(cfg.Exposes), len(got.Exposes)),
			})
		}
		for _, e := range cfg.Exposes {
			if file, ok := got.Exposes.Get(e.Path); !ok || file != e.File {
				errs = append(errs, ValidationError{
					Field:   "exposes[" + e.Path + "]",
					Message: fmt.Sprintf("expected %q after rewrite, found %q", e.File, file),
				})
			}
		}
	}

	if parts&PartRemotes != 0 {
		if len(got.Remotes) != len(cfg.Remotes) {
			errs = append(errs, ValidationError{
				Field:   "remotes",
				Message: fmt.Sprintf("expected %d entries after rewrite, found %d", len(cfg.Remotes), len(got.Remotes)),
			})
		}
		for _, id := range cfg.Remotes.IDs() {
			if r, ok := got.Remotes[id]; !ok || r.Entry != cfg.Remotes[id].Entry {
				errs = append(errs, ValidationError{
					Field:   "remotes." + id,
					Message: fmt.Sprintf("expected entry %q after rewrite, found %q", cfg.Remotes[id].Entry, r.Entry),
				})
			}
		}
	}

	if parts&PartShared != 0 && len(got.Shared) != len(cfg.Shared) {
		errs = append(errs, ValidationError{
			Field:   "shared",
			Message: fmt.Sprintf("expected %d entries after rewrite, found %d", len(cfg.Shared), len(got.Shared)),
		})
	}

	return errs
}
