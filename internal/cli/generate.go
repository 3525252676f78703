// Package cli — generate.go implements the "fedpatch generate" command.
//
// The generate command renders a complete Vite config from a plan. It is
// the same rendering apply falls back to for configs it cannot patch.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/port"
	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
)

// generateFlags holds the flag values for the generate command.
type generateFlags struct {
	// plan is the path of the plan file.
	plan string

	// output is the file written; "-" writes to stdout.
	output string

	// force allows overwriting an existing file.
	force bool

	// noBackup skips the ".bak" copy when overwriting.
	noBackup bool

	// basePort is the first port tried for auto remote entries.
	basePort int
}

// NewGenerateCommand creates the "generate" cobra command.
func NewGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate --plan <file>",
		Short: "Render a complete Vite config from a plan",
		Long: `Render a complete Vite config (imports, dev server, plugins and build
settings) from a plan file.

Examples:
  fedpatch generate --plan federation.yaml
  fedpatch generate --plan federation.yaml -o apps/cart/vite.config.ts
  fedpatch generate --plan federation.yaml -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.plan, "plan", "", "Plan file (YAML or JSON)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", viteconfig.CandidateNames[0], `Output file ("-" for stdout)`)
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "Do not keep a .bak copy of an overwritten file")
	cmd.Flags().IntVar(&flags.basePort, "base-port", port.DefaultBasePort, "First port tried for auto remote entries")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runGenerate(w io.Writer, flags *generateFlags) error {
	cfg, err := loadPlan(flags.plan, flags.basePort)
	if err != nil {
		return err
	}

	text, err := federation.RenderBlock(federation.KindConfigFile, cfg, "")
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidPlan, "failed to render config", err)
	}

	if flags.output == "-" {
		_, err := fmt.Fprint(w, text)
		return err
	}

	_, statErr := os.Stat(flags.output)
	exists := statErr == nil
	if exists && !flags.force {
		return model.NewCLIError(model.ExitWriteFailed,
			fmt.Sprintf("%s already exists (use --force to overwrite)", flags.output))
	}

	if err := viteconfig.Write(flags.output, text, viteconfig.WriteOptions{Backup: exists && !flags.noBackup}); err != nil {
		return err
	}
	VerboseLog("generated %s for %s %q", flags.output, cfg.Role, cfg.Name)

	if IsJSONOutput() {
		return printJSON(w, map[string]string{"path": flags.output, "role": cfg.Role.String(), "name": cfg.Name})
	}
	fmt.Fprintf(w, "Generated %s\n", flags.output)
	return nil
}
