// Package cli — role.go implements the "fedpatch role" command.
//
// The role command reports whether a Vite config is a federation remote
// (it declares exposes), a host (it declares remotes) or neither.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
)

// NewRoleCommand creates the "role" cobra command.
func NewRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "role [config-or-dir]",
		Short: "Print whether a config is a remote or a host",
		Long: `Print the module-federation role of a Vite config.

A config that declares an exposes block is a remote; one that declares a
remotes block is a host. Anything else is reported as unknown.

Examples:
  fedpatch role
  fedpatch role apps/shell
  fedpatch role apps/shell/vite.config.ts --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRole(cmd.OutOrStdout(), args)
		},
	}
}

func runRole(w io.Writer, args []string) error {
	path, err := resolveTarget(args)
	if err != nil {
		return err
	}
	file, _, err := loadFederation(path)
	if err != nil {
		return err
	}

	role := federation.ClassifyRole(file.Text)
	VerboseLog("classified %s as %s", path, role)

	if IsJSONOutput() {
		return printJSON(w, map[string]string{"path": path, "role": role.String()})
	}
	fmt.Fprintln(w, role)
	return nil
}
