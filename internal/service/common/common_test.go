//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

var errTestProcTable = errors.New("proc table unavailable")

// fakeProcess implements ps.Process.
type fakeProcess struct {
	// pid is the process id.
	pid int
	// name is the executable name.
	name string
}

// Pid returns the process id.
func (p fakeProcess) Pid() int { return p.pid }

// PPid returns zero.
func (p fakeProcess) PPid() int { return 0 }

// Executable returns the executable name.
func (p fakeProcess) Executable() string { return p.name }

// TestDetectHost ensures hostname and username are detected and non-empty.
func TestDetectHost(t *testing.T) {
	t.Parallel()

	h, err := DetectHost()
	require.NoError(t, err)
	require.NotEmpty(t, h.Hostname)
	require.NotEmpty(t, h.Username)
	require.Equal(t, h.Username+"@"+h.Hostname, h.String())
	require.Equal(t, "<unknown>", (*Host)(nil).String())
}

// TestEnsureSingleInstance covers self-skipping, duplicates and process table errors.
func TestEnsureSingleInstance(t *testing.T) {
	t.Parallel()

	table := func(procs ...ps.Process) processLister {
		return func() ([]ps.Process, error) { return procs, nil }
	}

	err := ensureSingleInstance("room-monitor", 10, table(
		fakeProcess{pid: 10, name: "room-monitor"},
		fakeProcess{pid: 11, name: "bash"},
	))
	require.NoError(t, err)

	err = ensureSingleInstance("room-monitor", 10, table(
		fakeProcess{pid: 10, name: "room-monitor"},
		fakeProcess{pid: 12, name: "room-monitor"},
	))
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "pid 12")

	err = ensureSingleInstance("room-monitor", 10, func() ([]ps.Process, error) { return nil, errTestProcTable })
	require.ErrorIs(t, err, errTestProcTable)
}

// TestEnsureSingleInstance_RealTable runs against the live process table with an unused name.
func TestEnsureSingleInstance_RealTable(t *testing.T) {
	t.Parallel()

	require.NoError(t, EnsureSingleInstance("no-such-room-monitor-binary"))
	require.NotEmpty(t, CurrentExecutable())
}
