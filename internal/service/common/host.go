//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Host identifies the machine and account running the monitor.
type Host struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the account the process runs as.
	Username string
}

// DetectHost gathers host and user information for notifications and logs.
func DetectHost() (*Host, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Host{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the host as username@hostname.
func (h *Host) String() string {
	if h == nil {
		return "<unknown>"
	}

	return h.Username + "@" + h.Hostname
}
