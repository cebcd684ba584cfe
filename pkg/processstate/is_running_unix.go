//go:build !windows

package processstate

import (
	"errors"
	"syscall"

	domainerrors "github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

// IsProcessRunning reports whether a detached tool is still alive.
// EPERM means the PID exists but belongs to another user.
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, domainerrors.NewValidationError("pid must be positive", nil).WithContext("pid", pid)
	}

	switch err := syscall.Kill(pid, 0); {
	case err == nil, errors.Is(err, syscall.EPERM):
		return true, nil
	case errors.Is(err, syscall.ESRCH):
		return false, nil
	default:
		return false, domainerrors.NewIOError("probe process", err).WithContext("pid", pid)
	}
}
