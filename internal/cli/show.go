// Package cli — show.go implements the "fedpatch show" command.
//
// The show command prints every federation setting fedpatch understands in
// a config: name, role, filename, exposes, remotes, shared dependencies and
// any other literal options of the federation call.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

// NewShowCommand creates the "show" cobra command.
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [config-or-dir]",
		Short: "Print the federation settings of a config",
		Long: `Print the module-federation settings found in a Vite config.

Examples:
  fedpatch show
  fedpatch show apps/remote --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.OutOrStdout(), args)
		},
	}
}

// showJSON is the JSON output structure of the show command.
type showJSON struct {
	Path string `json:"path"`
	*model.FederationConfig
}

func runShow(w io.Writer, args []string) error {
	path, err := resolveTarget(args)
	if err != nil {
		return err
	}
	_, cfg, err := loadFederation(path)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, showJSON{Path: path, FederationConfig: cfg})
	}
	printShowText(w, path, cfg)
	return nil
}

func printShowText(w io.Writer, path string, cfg *model.FederationConfig) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	fmt.Fprintf(tw, "Config:\t%s\n", path)
	fmt.Fprintf(tw, "Role:\t%s\n", cfg.Role)
	fmt.Fprintf(tw, "Name:\t%s\n", dash(cfg.Name))
	fmt.Fprintf(tw, "Filename:\t%s\n", dash(cfg.Filename))

	if len(cfg.Exposes) > 0 {
		fmt.Fprintln(tw, "Exposes:")
		for _, e := range cfg.Exposes {
			fmt.Fprintf(tw, "  %s\t%s\n", e.Path, e.File)
		}
	}

	if len(cfg.Remotes) > 0 {
		fmt.Fprintln(tw, "Remotes:")
		for _, id := range cfg.Remotes.IDs() {
			r := cfg.Remotes[id]
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", id, r.Name, r.Entry)
		}
	}

	if len(cfg.Shared) > 0 {
		fmt.Fprintln(tw, "Shared:")
		for _, name := range cfg.Shared.Names() {
			fmt.Fprintf(tw, "  %s\t%s\n", name, describeShared(cfg.Shared[name]))
		}
	}
}

// describeShared lists the options set on a shared dependency.
func describeShared(dep model.SharedDep) string {
	var opts []string
	if dep.Singleton {
		opts = append(opts, "singleton")
	}
	if dep.Eager {
		opts = append(opts, "eager")
	}
	if dep.RequiredVersion != "" {
		opts = append(opts, "requiredVersion="+dep.RequiredVersion)
	}
	if len(opts) == 0 {
		return "-"
	}
	return strings.Join(opts, " ")
}

// dash returns s, or "-" when s is empty.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
