// Package cli — scan.go implements the "fedpatch scan" command.
//
// The scan command finds every Vite config in a repository and reports the
// federation role and name of each, giving an overview of a monorepo's
// remotes and hosts.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/viteconfig"
	"github.com/mmr-tortoise/fedpatch/internal/workspace"
)

// NewScanCommand creates the "scan" cobra command.
func NewScanCommand() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "List the federation role of every Vite config in a repository",
		Long: `Find the Vite configs under root and print the federation role, name,
exposes and remotes of each. The default root is the top of the current Git
working tree, or the current directory outside Git.

Inside a Git repository the search follows Git: ignored files are skipped.
Elsewhere the directory tree is walked, skipping node_modules, dist and .git.

Examples:
  fedpatch scan
  fedpatch scan ~/src/storefront --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			} else if top, err := workspace.RepoRoot(cmd.Context(), root); err == nil {
				root = top
			}
			return runScan(cmd.Context(), cmd.OutOrStdout(), root, jobs)
		},
	}

	cmd.Flags().IntVar(&jobs, "jobs", 0, "Files read at once (default: number of CPUs)")
	return cmd
}

// scanEntryJSON is the JSON output structure for one config in a scan.
type scanEntryJSON struct {
	Path    string   `json:"path"`
	Role    string   `json:"role"`
	Name    string   `json:"name,omitempty"`
	Exposes []string `json:"exposes,omitempty"`
	Remotes []string `json:"remotes,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func runScan(ctx context.Context, w io.Writer, root string, jobs int) error {
	files, err := workspace.Discover(ctx, root)
	if err != nil {
		return err
	}
	VerboseLog("found %d config file(s) under %s", len(files), root)

	var mu sync.Mutex
	configs := make(map[string]model.FederationConfig, len(files))

	read := func(_ context.Context, path string) (workspace.Result, error) {
		file, err := viteconfig.Load(path)
		if err != nil {
			return workspace.Result{}, err
		}
		cfg := federation.ParseConfig(file.Text)

		mu.Lock()
		configs[path] = cfg
		mu.Unlock()
		return workspace.Result{}, nil
	}

	results, err := workspace.Run(ctx, files, read, workspace.Options{Jobs: jobs, Logger: logger})
	if err != nil {
		return err
	}

	entries := make([]scanEntryJSON, 0, len(results))
	for _, r := range results {
		entry := scanEntryJSON{Path: displayPath(root, r.Path), Role: model.RoleUnknown.String()}
		if r.Err != nil {
			entry.Error = r.Err.Error()
			entries = append(entries, entry)
			continue
		}
		cfg := configs[r.Path]
		entry.Role = cfg.Role.String()
		entry.Name = cfg.Name
		entry.Exposes = cfg.Exposes.Paths()
		entry.Remotes = cfg.Remotes.IDs()
		entries = append(entries, entry)
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"configs": entries})
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "No Vite configs found under %s\n", root)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tROLE\tNAME\tEXPOSES\tREMOTES")
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\terror: %s\t-\t-\n", e.Path, e.Role, e.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.Path, e.Role, dash(e.Name), len(e.Exposes), len(e.Remotes))
	}
	return tw.Flush()
}

// displayPath shows path relative to root when possible.
func displayPath(root, path string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(abs, path); err == nil {
		return rel
	}
	return path
}
