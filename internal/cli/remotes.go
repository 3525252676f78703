// Package cli — remotes.go implements the "fedpatch remotes" command group.
//
// Remotes are the federation remotes a host consumes, keyed by the id the
// host imports them under. A remote added without an explicit entry URL gets
// a local dev-server port that is neither used by another remote in the
// config nor busy on this machine.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/mmr-tortoise/fedpatch/internal/port"
)

// portChecker probes local ports for allocation. Tests replace it.
var portChecker port.Checker = port.NewScanner()

// isListening reports whether a remote dev server answers on a port.
// Tests replace it.
var isListening = port.NewScanner().IsListening

// NewRemotesCommand creates the "remotes" command group.
func NewRemotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remotes",
		Short: "List and edit the remotes a host consumes",
		Long: `List and edit the remotes block of a federation host.

Examples:
  fedpatch remotes list
  fedpatch remotes add cart
  fedpatch remotes add cart --entry https://cdn.example.com/cart/remoteEntry.js
  fedpatch remotes remove cart`,
	}

	cmd.AddCommand(newRemotesListCommand())
	cmd.AddCommand(newRemotesAddCommand())
	cmd.AddCommand(newRemotesRemoveCommand())
	return cmd
}

func newRemotesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List remotes and whether their dev servers are up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemotesList(cmd.OutOrStdout())
		},
	}
}

// remoteJSON is the JSON output structure for one remote.
type remoteJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Entry  string `json:"entry"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status"`
}

// remoteStatus reports "up" or "down" for entries with an explicit port and
// "-" for entries it cannot probe.
func remoteStatus(entry string) string {
	p, ok := port.EntryPort(entry)
	if !ok {
		return "-"
	}
	if isListening(p) {
		return "up"
	}
	return "down"
}

func runRemotesList(w io.Writer) error {
	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}
	_, cfg, err := loadFederation(path)
	if err != nil {
		return err
	}

	remotes := make([]remoteJSON, 0, len(cfg.Remotes))
	for _, id := range cfg.Remotes.IDs() {
		r := cfg.Remotes[id]
		remotes = append(remotes, remoteJSON{
			ID:     id,
			Name:   r.Name,
			Entry:  r.Entry,
			Type:   r.Type,
			Status: remoteStatus(r.Entry),
		})
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"path": path, "remotes": remotes})
	}

	if len(remotes) == 0 {
		fmt.Fprintf(w, "No remotes in %s\n", path)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tENTRY\tSTATUS")
	for _, r := range remotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Entry, r.Status)
	}
	return tw.Flush()
}

// remotesAddFlags holds the flag values for "remotes add".
type remotesAddFlags struct {
	writeFlags

	// entry is the remote's entry URL. Empty allocates a local port.
	entry string

	// name is the remote's federation name. Empty means the id.
	name string

	// remoteType is the remote's module type ("module", "var", ...).
	remoteType string

	// basePort is the first port tried when allocating.
	basePort int
}

func newRemotesAddCommand() *cobra.Command {
	flags := &remotesAddFlags{}

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a remote",
		Long: `Add a remote to the host config, or update an existing one.

Without --entry the remote is given a local entry URL on the first free
port at or above --base-port that no other remote in the config uses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemotesAdd(cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.entry, "entry", "", "Entry URL of the remote (default: allocate a local port)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Federation name of the remote (default: the id)")
	cmd.Flags().StringVar(&flags.remoteType, "type", "", "Module type of the remote (default: module)")
	cmd.Flags().IntVar(&flags.basePort, "base-port", port.DefaultBasePort, "First port tried when allocating an entry")
	addWriteFlags(cmd, &flags.writeFlags)

	return cmd
}

func runRemotesAdd(w io.Writer, id string, flags *remotesAddFlags) error {
	if strings.TrimSpace(id) == "" {
		return model.NewCLIError(model.ExitGeneralError, "remote id must not be empty")
	}
	if flags.name != "" {
		if err := model.ValidateName(flags.name); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid remote name", err)
		}
	}
	if flags.entry != "" && flags.entry != "auto" {
		if err := federation.ValidateEntryURL(flags.entry); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid entry URL", err)
		}
	}

	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}

	res, err := patchFile(path, func(cfg *model.FederationConfig) (*model.FederationConfig, federation.Part, error) {
		if cfg.Role == model.RoleUnknown {
			cfg.Role = model.RoleHost
		}
		if cfg.Remotes == nil {
			cfg.Remotes = model.RemoteMap{}
		}

		entry := flags.entry
		if entry == "auto" {
			entry = ""
		}
		cfg.Remotes[id] = model.RemoteEntry{Name: flags.name, Entry: entry, Type: flags.remoteType}

		filled, err := port.NewAllocator(portChecker).FillEntries(cfg.Remotes, flags.basePort)
		if err != nil {
			return nil, 0, err
		}
		for _, f := range filled {
			VerboseLog("allocated %s for remote %q", cfg.Remotes[f].Entry, f)
		}
		return cfg, federation.PartRemotes, nil
	}, flags.writeFlags)
	if err != nil {
		return err
	}
	return printSingleResult(w, res)
}

func newRemotesRemoveCommand() *cobra.Command {
	flags := &writeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemotesRemove(cmd.OutOrStdout(), args[0], *flags)
		},
	}
	addWriteFlags(cmd, flags)
	return cmd
}

func runRemotesRemove(w io.Writer, id string, flags writeFlags) error {
	path, err := resolveTarget(nil)
	if err != nil {
		return err
	}

	res, err := patchFile(path, func(cfg *model.FederationConfig) (*model.FederationConfig, federation.Part, error) {
		if _, ok := cfg.Remotes[id]; !ok {
			return nil, 0, model.NewCLIError(model.ExitBlockNotFound,
				fmt.Sprintf("remote %q not found in %s", id, path))
		}
		delete(cfg.Remotes, id)
		return cfg, federation.PartRemotes, nil
	}, flags)
	if err != nil {
		return err
	}
	return printSingleResult(w, res)
}
