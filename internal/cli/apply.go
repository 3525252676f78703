// Package cli — apply.go implements the "fedpatch apply" command.
//
// The apply command writes the federation settings described by a plan
// file (YAML or JSON) into one or more Vite configs. Files are patched in
// parallel; each is rewritten only where its settings differ from the
// plan, so applying the same plan twice leaves the files unchanged.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/plan"
	"github.com/mmr-tortoise/fedpatch/internal/port"
	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
	"github.com/mmr-tortoise/fedpatch/internal/workspace"
)

// applyFlags holds the flag values for the apply command.
type applyFlags struct {
	writeFlags

	// plan is the path of the plan file.
	plan string

	// jobs limits how many files are patched at once.
	jobs int

	// basePort is the first port tried for remotes with an "auto" entry.
	basePort int
}

// NewApplyCommand creates the "apply" cobra command.
func NewApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply --plan <file> [config-or-dir...]",
		Short: "Write a federation plan into Vite configs",
		Long: `Write the federation settings of a plan file into one or more Vite configs.

Only the settings the plan names are touched. A config without a federation
call gets one inserted at the top of its plugins array; a config without a
plugins array is regenerated from the plan.

Remotes whose entry is empty or "auto" are given local entry URLs on free
ports starting at --base-port.

Examples:
  fedpatch apply --plan federation.yaml
  fedpatch apply --plan federation.yaml apps/shell apps/admin --dry-run
  fedpatch apply --plan federation.json --jobs 4 --no-backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.plan, "plan", "", "Plan file (YAML or JSON)")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "Files patched at once (default: number of CPUs)")
	cmd.Flags().IntVar(&flags.basePort, "base-port", port.DefaultBasePort, "First port tried for auto remote entries")
	addWriteFlags(cmd, &flags.writeFlags)
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

// loadPlan reads a plan, fills in auto remote entries and validates it.
func loadPlan(path string, basePort int) (*model.FederationConfig, error) {
	cfg, err := plan.Load(path)
	if err != nil {
		return nil, err
	}

	filled, err := port.NewAllocator(portChecker).FillEntries(cfg.Remotes, basePort)
	if err != nil {
		return nil, err
	}
	for _, id := range filled {
		VerboseLog("allocated %s for remote %q", cfg.Remotes[id].Entry, id)
	}

	if errs := federation.ValidateConfig(cfg); len(errs) > 0 {
		return nil, model.NewCLIError(model.ExitInvalidPlan,
			fmt.Sprintf("invalid plan %s: %s", path, joinValidation(errs)))
	}
	return cfg, nil
}

// resolveTargets resolves every argument to a config file, dropping
// duplicates. Without arguments it falls back to resolveTarget.
func resolveTargets(args []string) ([]string, error) {
	if len(args) == 0 {
		path, err := resolveTarget(nil)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	seen := make(map[string]bool, len(args))
	targets := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := viteconfig.Resolve(arg)
		if err != nil {
			return nil, err
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		targets = append(targets, path)
	}
	return targets, nil
}

func runApply(ctx context.Context, w io.Writer, args []string, flags *applyFlags) error {
	cfg, err := loadPlan(flags.plan, flags.basePort)
	if err != nil {
		return err
	}
	targets, err := resolveTargets(args)
	if err != nil {
		return err
	}

	parts := federation.PartsOf(cfg)
	VerboseLog("applying plan %s to %d file(s)", flags.plan, len(targets))

	build := func(*model.FederationConfig) (*model.FederationConfig, federation.Part, error) {
		return cfg, parts, nil
	}
	results, err := workspace.Run(ctx, targets, editFunc(build, flags.writeFlags), workspace.Options{
		Jobs:   flags.jobs,
		Logger: logger,
	})
	if printErr := printResults(w, results); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}
	return firstFailure(results)
}
