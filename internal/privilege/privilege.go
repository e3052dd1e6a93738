// Package privilege resolves the invoking user when connstats runs under
// sudo. Collecting other users' sockets needs root, but the store and config
// belong in the invoking user's home so unprivileged queries can read them.
package privilege

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// UserContext represents the identity of the original user when running under
// privilege escalation.
type UserContext struct {
	Username string
	UID      int
	GID      int
	HomeDir  string
}

// DetectOriginalUser returns the user who invoked sudo, from SUDO_USER,
// SUDO_UID and SUDO_GID, or the current user when not under sudo.
func DetectOriginalUser() (*UserContext, error) {
	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser == "" {
		return currentUser()
	}

	uidStr := os.Getenv("SUDO_UID")
	gidStr := os.Getenv("SUDO_GID")
	if uidStr == "" || gidStr == "" {
		return nil, fmt.Errorf("SUDO_USER set but SUDO_UID or SUDO_GID missing")
	}

	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SUDO_UID: %w", err)
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SUDO_GID: %w", err)
	}

	u, err := user.Lookup(sudoUser)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user %s: %w", sudoUser, err)
	}

	return &UserContext{Username: sudoUser, UID: uid, GID: gid, HomeDir: u.HomeDir}, nil
}

func currentUser() (*UserContext, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &UserContext{Username: u.Username, UID: os.Getuid(), GID: os.Getgid(), HomeDir: u.HomeDir}, nil
}

// IsRoot checks if the current process is running with root privileges (euid
// == 0).
func IsRoot() bool {
	return os.Geteuid() == 0
}

// IsRunningUnderSudo checks if the process is running under sudo by checking
// for the SUDO_USER environment variable.
func IsRunningUnderSudo() bool {
	return os.Getenv("SUDO_USER") != ""
}

// HomeDir returns the home directory of the original user, falling back to
// the current user's.
func HomeDir() (string, error) {
	if IsRunningUnderSudo() {
		if u, err := DetectOriginalUser(); err == nil && u.HomeDir != "" {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// FixFileOwnership hands paths back to the original user when running as
// root under sudo. Paths that do not exist are skipped. Outside sudo this
// is a no-op.
func FixFileOwnership(paths ...string) error {
	if !IsRoot() || !IsRunningUnderSudo() {
		return nil
	}

	u, err := DetectOriginalUser()
	if err != nil {
		return fmt.Errorf("failed to detect original user: %w", err)
	}

	for _, path := range paths {
		if err := os.Chown(path, u.UID, u.GID); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to chown %s to %d:%d: %w", path, u.UID, u.GID, err)
		}
	}
	return nil
}
