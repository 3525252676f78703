// Package cli — patch.go holds the load → edit → verify → write pipeline
// shared by every command that changes a config file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/diffview"
	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
	"github.com/mmr-tortoise/fedpatch/internal/workspace"
)

// writeFlags are the flags common to mutating commands.
type writeFlags struct {
	// dryRun prints a diff instead of writing the file.
	dryRun bool

	// noBackup skips the ".bak" copy made before overwriting.
	noBackup bool
}

// addWriteFlags registers --dry-run and --no-backup on cmd.
func addWriteFlags(cmd *cobra.Command, flags *writeFlags) {
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print a diff instead of writing the file")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "Do not keep a .bak copy of overwritten files")
}

// buildFunc derives the desired federation settings from the settings
// currently in a file and reports which parts of them to write.
type buildFunc func(current *model.FederationConfig) (*model.FederationConfig, federation.Part, error)

// resolveTarget picks the config file a single-file command operates on:
// the positional argument, then --file, then the current directory.
func resolveTarget(args []string) (string, error) {
	target := configFile
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		target = "."
	}
	return viteconfig.Resolve(target)
}

// loadFederation reads path and parses its federation settings.
func loadFederation(path string) (*viteconfig.File, *model.FederationConfig, error) {
	file, err := viteconfig.Load(path)
	if err != nil {
		return nil, nil, err
	}
	cfg := federation.ParseConfig(file.Text)
	return file, &cfg, nil
}

// patchFile rewrites the federation settings of the config at path.
//
// The rewritten text is parsed back before anything is written; a rewrite
// that does not carry the requested settings is refused. With dryRun the
// file is left alone and the Result carries a unified diff instead.
func patchFile(path string, build buildFunc, flags writeFlags) (workspace.Result, error) {
	res := workspace.Result{Path: path}

	file, current, err := loadFederation(path)
	if err != nil {
		return res, err
	}
	named := current.Name != ""
	if !named {
		current.Name = defaultFederationName(path)
	}

	cfg, parts, err := build(current)
	if err != nil {
		return res, err
	}
	if !named && parts != 0 && federation.OptionsEditable(file.Text) {
		parts |= federation.PartName
	}

	out, outcome, err := federation.Apply(file.Text, cfg, parts)
	if err != nil {
		return res, rewriteError(path, err)
	}
	res.Outcome = outcome
	if outcome == federation.OutcomeUnchanged {
		return res, nil
	}

	if errs := federation.ValidateRewritten(out, cfg, parts); len(errs) > 0 {
		return res, model.NewCLIError(model.ExitWriteFailed,
			fmt.Sprintf("refusing to write %s: rewritten file does not parse back (%s)", path, joinValidation(errs)))
	}

	if flags.dryRun {
		res.Diff = diffview.Unified(path, file.Text, out)
		return res, nil
	}

	file.Text = out
	if err := file.Save(!flags.noBackup); err != nil {
		return res, err
	}
	logger.Sugar().Debugf("wrote %s (%s)", path, outcome)
	return res, nil
}

// rewriteError maps a failed rewrite to its exit code.
func rewriteError(path string, err error) error {
	code := model.ExitGeneralError
	switch {
	case errors.Is(err, federation.ErrOptionsNotLiteral):
		code = model.ExitBlockNotFound
	case errors.Is(err, federation.ErrUnreadableEntries):
		code = model.ExitWriteFailed
	}
	return model.WrapCLIError(code, fmt.Sprintf("failed to rewrite %s", path), err)
}

// editFunc adapts patchFile to workspace.Run.
func editFunc(build buildFunc, flags writeFlags) workspace.EditFunc {
	return func(_ context.Context, path string) (workspace.Result, error) {
		return patchFile(path, build, flags)
	}
}

// defaultFederationName derives a federation name from the directory that
// holds the config file, for files that do not declare one yet.
func defaultFederationName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		dir = filepath.Base(abs)
	}
	return sanitizeFederationName(dir)
}

// sanitizeFederationName converts a directory name into a valid federation
// name. Separators become underscores, other invalid characters are
// dropped, and a leading digit gets an underscore prefix.
//
// Examples:
//
//	"remote-app"    → "remote_app"
//	"@scope/ui kit" → "scope_ui_kit"
//	"2nd"           → "_2nd"
func sanitizeFederationName(dir string) string {
	var result strings.Builder
	for _, r := range dir {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '$':
			result.WriteRune(r)
		case r == '-' || r == '/' || r == '.' || r == ' ':
			result.WriteRune('_')
		}
	}

	name := strings.Trim(result.String(), "_")
	if name == "" {
		return "app"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// joinValidation formats validation errors on one line.
func joinValidation(errs []federation.ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// resultJSON is the JSON form of one patched file.
type resultJSON struct {
	Path    string `json:"path"`
	Outcome string `json:"outcome"`
	Diff    string `json:"diff,omitempty"`
	Error   string `json:"error,omitempty"`
}

// printResults writes the outcome of every patched file, followed by the
// diffs of a dry run.
func printResults(w io.Writer, results []workspace.Result) error {
	if IsJSONOutput() {
		out := struct {
			Files []resultJSON `json:"files"`
		}{Files: make([]resultJSON, 0, len(results))}
		for _, r := range results {
			entry := resultJSON{Path: r.Path, Outcome: r.Outcome.String(), Diff: r.Diff}
			if r.Err != nil {
				entry.Outcome = "failed"
				entry.Error = r.Err.Error()
			}
			out.Files = append(out.Files, entry)
		}
		return printJSON(w, out)
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%-12s %s: %v\n", "failed", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", r.Outcome, r.Path)
	}
	for _, r := range results {
		if r.Diff != "" {
			fmt.Fprint(w, r.Diff)
		}
	}
	return nil
}

// printSingleResult reports the outcome of a single-file edit.
func printSingleResult(w io.Writer, res workspace.Result) error {
	return printResults(w, []workspace.Result{res})
}

// firstFailure returns the error of the first failed result, keeping its
// exit code when it has one.
func firstFailure(results []workspace.Result) error {
	failed := workspace.Failed(results)
	if failed == 0 {
		return nil
	}
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		code := model.ExitGeneralError
		if cliErr, ok := asCLIError(r.Err); ok {
			code = cliErr.Code
		}
		return model.WrapCLIError(code, fmt.Sprintf("%d of %d files failed", failed, len(results)), r.Err)
	}
	return nil
}
