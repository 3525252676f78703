package port

import (
	"errors"
	"testing"

	"github.com/mmr-tortoise/fedpatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// busyChecker reports a fixed set of ports as in use.
type busyChecker map[int]bool

func (b busyChecker) IsPortAvailable(port int, _ string) bool {
	return !b[port]
}

// --- Allocate tests ---

func TestAllocate_Base(t *testing.T) {
	a := NewAllocator(busyChecker{})

	p, err := a.Allocate(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBasePort, p)

	p, err = a.Allocate(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBasePort+1, p, "an allocated port is not handed out twice")
}

// TestAllocate_SkipsBusyAndReserved steps over ports bound on the host and
// ports used by existing entries.
func TestAllocate_SkipsBusyAndReserved(t *testing.T) {
	a := NewAllocator(busyChecker{5001: true, 5003: true})
	a.Reserve(5002)

	p, err := a.Allocate(5001)
	require.NoError(t, err)
	assert.Equal(t, 5004, p)
}

func TestAllocate_Exhausted(t *testing.T) {
	a := NewAllocator(busyChecker{65535: true})

	_, err := a.Allocate(65535)
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitPortAllocationFailed, cliErr.Code)

	_, err = a.Allocate(70000)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitPortAllocationFailed, cliErr.Code)
}

// TestAllocate_RealScanner allocates a port that the OS reports free.
func TestAllocate_RealScanner(t *testing.T) {
	taken := listenTCP(t)

	a := NewAllocator(NewScanner())
	p, err := a.Allocate(taken)
	require.NoError(t, err)
	assert.Greater(t, p, taken, "the bound port is skipped")
}

// --- FillEntries tests ---

// TestFillEntries assigns ports in remote ID order and avoids the ports of
// entries that are already set.
func TestFillEntries(t *testing.T) {
	remotes := model.RemoteMap{
		"zeta":  {},
		"alpha": {},
		"fixed": {Entry: "http://localhost:5001/remoteEntry.js"},
	}

	a := NewAllocator(busyChecker{})
	filled, err := a.FillEntries(remotes, 5001)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, filled)
	assert.Equal(t, "http://localhost:5002/remoteEntry.js", remotes["alpha"].Entry)
	assert.Equal(t, "http://localhost:5003/remoteEntry.js", remotes["zeta"].Entry)
	assert.Equal(t, "http://localhost:5001/remoteEntry.js", remotes["fixed"].Entry)
}

func TestFillEntries_Failure(t *testing.T) {
	remotes := model.RemoteMap{"a": {}}

	a := NewAllocator(busyChecker{65535: true})
	filled, err := a.FillEntries(remotes, 65535)
	require.Error(t, err)
	assert.Empty(t, filled)
	assert.Contains(t, err.Error(), `remote "a"`)
}

// --- Entry URL tests ---

func TestEntryURL(t *testing.T) {
	assert.Equal(t, "http://localhost:5005/remoteEntry.js", EntryURL(5005))
}

func TestEntryPort(t *testing.T) {
	tests := []struct {
		entry string
		port  int
		ok    bool
	}{
		{"http://localhost:5001/remoteEntry.js", 5001, true},
		{"https://cdn.example.com:8443/app/remoteEntry.js", 8443, true},
		{"https://cdn.example.com/remoteEntry.js", 0, false},
		{"http://localhost:99999/remoteEntry.js", 0, false},
		{"not a url", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			p, ok := EntryPort(tt.entry)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.port, p)
		})
	}
}
