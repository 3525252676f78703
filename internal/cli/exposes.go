// Package cli — exposes.go implements the "fedpatch exposes" command group.
//
// Exposes are the modules a remote publishes, keyed by the path hosts import
// them under ("./Button") and pointing at a local source file. Editing them
// replaces only the exposes block of the config; a config without one gets
// the block injected into its federation call.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// NewExposesCommand creates the "exposes" command group.
func NewExposesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exposes",
		Short: "List and edit the modules a remote exposes",
		Long: `List and edit the exposes block of a federation remote.

Examples:
  fedpatch exposes list
  fedpatch exposes set ./Button ./src/components/Button.tsx
  fedpatch exposes remove ./Button --dry-run`,
	}

	cmd.AddCommand(newExposesListCommand())
	cmd.AddCommand(newExposesSetCommand())
	cmd.AddCommand(newExposesRemoveCommand())
	return cmd
}

func newExposesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exposed modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExposesList(cmd.OutOrStdout())
		},
	}
}

func runExposesList(w io.Writer) error {
	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}
	_, cfg, err := loadFederation(path)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		exposes := cfg.Exposes
		if exposes == nil {
			exposes = model.ExposeMap{}
		}
		return printJSON(w, map[string]interface{}{"path": path, "exposes": exposes})
	}

	if len(cfg.Exposes) == 0 {
		fmt.Fprintf(w, "No exposes in %s\n", path)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tFILE")
	for _, e := range cfg.Exposes {
		fmt.Fprintf(tw, "%s\t%s\n", e.Path, e.File)
	}
	return tw.Flush()
}

func newExposesSetCommand() *cobra.Command {
	flags := &writeFlags{}

	cmd := &cobra.Command{
		Use:   "set <expose-path> <file>",
		Short: "Add or change an exposed module",
		Long: `Add an exposed module, or point an existing one at a different file.

New exposes are appended; changing an existing one keeps its position.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExposesSet(cmd.OutOrStdout(), args[0], args[1], *flags)
		},
	}
	addWriteFlags(cmd, flags)
	return cmd
}

func runExposesSet(w io.Writer, exposePath, file string, flags writeFlags) error {
	if !strings.HasPrefix(exposePath, "./") {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf(`invalid expose path %q: must start with "./"`, exposePath))
	}
	if strings.TrimSpace(file) == "" {
		return model.NewCLIError(model.ExitGeneralError, "expose file must not be empty")
	}

	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}

	res, err := patchFile(path, func(cfg *model.FederationConfig) (*model.FederationConfig, federation.Part, error) {
		parts := federation.PartExposes
		if cfg.Role != model.RoleRemote {
			cfg.Role = model.RoleRemote
			parts |= federation.PartFilename
		}
		cfg.Exposes = cfg.Exposes.Set(exposePath, file)
		return cfg, parts, nil
	}, flags)
	if err != nil {
		return err
	}
	return printSingleResult(w, res)
}

func newExposesRemoveCommand() *cobra.Command {
	flags := &writeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <expose-path>",
		Short: "Remove an exposed module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExposesRemove(cmd.OutOrStdout(), args[0], *flags)
		},
	}
	addWriteFlags(cmd, flags)
	return cmd
}

func runExposesRemove(w io.Writer, exposePath string, flags writeFlags) error {
	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}

	res, err := patchFile(path, func(cfg *model.FederationConfig) (*model.FederationConfig, federation.Part, error) {
		exposes, found := cfg.Exposes.Remove(exposePath)
		if !found {
			return nil, 0, model.NewCLIError(model.ExitBlockNotFound,
				fmt.Sprintf("expose %q not found in %s", exposePath, path))
		}
		cfg.Exposes = exposes
		return cfg, federation.PartExposes, nil
	}, flags)
	if err != nil {
		return err
	}
	return printSingleResult(w, res)
}
