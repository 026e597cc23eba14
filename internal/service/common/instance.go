//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process with the same executable name exists.
var ErrAlreadyRunning = errors.New("another instance is already running")

// processLister matches ps.Processes so tests can substitute the process table.
type processLister func() ([]ps.Process, error)

// EnsureSingleInstance fails when a process other than this one runs the
// given executable name. An empty name means the current executable.
func EnsureSingleInstance(executable string) error {
	return ensureSingleInstance(executable, os.Getpid(), ps.Processes)
}

func ensureSingleInstance(executable string, selfPID int, list processLister) error {
	if executable == "" {
		executable = CurrentExecutable()
	}

	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, executable, process.Pid())
	}

	return nil
}

// CurrentExecutable returns the base name of the running binary.
func CurrentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}

	return filepath.Base(path)
}
