package port

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmr-tortoise/fedpatch/internal/model"
)

const (
	// DefaultBasePort is the first port handed out to remotes. Vite itself
	// defaults to 5173 for the host, so remotes start well below it.
	DefaultBasePort = 5001

	// maxPort is the highest valid TCP/UDP port number (2^16 - 1).
	maxPort = 65535

	// entryFilename is the entry file name used in derived entry URLs.
	entryFilename = "remoteEntry.js"
)

// Allocator hands out dev-server ports for remotes.
//
// A port is only handed out if it is not reserved and the Checker reports it
// free. Reserved ports come from entries already present in the config and
// from earlier allocations by the same Allocator, so one run never gives two
// remotes the same port.
type Allocator struct {
	// checker probes the OS for actual port availability.
	checker Checker

	// reserved tracks ports that are taken by known remote entries.
	reserved map[int]bool
}

// NewAllocator creates a new Allocator with the given Checker.
func NewAllocator(checker Checker) *Allocator {
	return &Allocator{
		checker:  checker,
		reserved: make(map[int]bool),
	}
}

// Reserve marks ports as taken.
func (a *Allocator) Reserve(ports ...int) {
	for _, p := range ports {
		a.reserved[p] = true
	}
}

// ReserveEntries reserves the ports of every remote entry that names one.
func (a *Allocator) ReserveEntries(remotes model.RemoteMap) {
	for _, r := range remotes {
		if p, ok := EntryPort(r.Entry); ok {
			a.Reserve(p)
		}
	}
}

// Allocate returns the first port >= base that is free, and reserves it.
// A base of zero or less means DefaultBasePort.
//
// Returns a CLIError with ExitPortAllocationFailed if every port up to 65535
// is taken.
func (a *Allocator) Allocate(base int) (int, error) {
	if base <= 0 {
		base = DefaultBasePort
	}
	if base > maxPort {
		return 0, model.NewCLIError(model.ExitPortAllocationFailed,
			fmt.Sprintf("base port %d exceeds %d", base, maxPort))
	}

	for p := base; p <= maxPort; p++ {
		if a.reserved[p] {
			continue
		}
		if !a.checker.IsPortAvailable(p, "tcp") {
			continue
		}
		a.reserved[p] = true
		return p, nil
	}
	return 0, model.NewCLIError(model.ExitPortAllocationFailed,
		fmt.Sprintf("no available port found in range %d-%d", base, maxPort))
}

// FillEntries gives every remote without an entry an allocated port and the
// matching entry URL. Remotes are processed in ID order so the result does
// not depend on map iteration. The ports of remotes that already have an
// entry are reserved first.
//
// It returns the IDs that received an entry.
func (a *Allocator) FillEntries(remotes model.RemoteMap, base int) ([]string, error) {
	a.ReserveEntries(remotes)

	var filled []string
	for _, id := range remotes.IDs() {
		r := remotes[id]
		if r.Entry != "" {
			continue
		}
		p, err := a.Allocate(base)
		if err != nil {
			return filled, fmt.Errorf("remote %q: %w", id, err)
		}
		r.Entry = EntryURL(p)
		remotes[id] = r
		filled = append(filled, id)
	}
	return filled, nil
}

// EntryURL returns the conventional entry URL of a remote served on port.
func EntryURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/%s", port, entryFilename)
}

// EntryPort extracts the explicit port of an entry URL. URLs without a port
// (which would use 80/443) report false.
func EntryPort(entry string) (int, bool) {
	u, err := url.Parse(entry)
	if err != nil || u.Port() == "" {
		return 0, false
	}
	p, err := strconv.Atoi(u.Port())
	if err != nil || p <= 0 || p > maxPort {
		return 0, false
	}
	return p, true
}
