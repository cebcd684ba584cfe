//go:build windows

package processstate

import (
	"syscall"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

const (
	stillActive                    = 259
	processQueryLimitedInformation = 0x1000
)

// IsProcessRunning reports whether pid is alive. A detached tool that
// timed out is expected to still be running when this is called.
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, errors.NewValidationError("pid must be positive", nil).WithContext("pid", pid)
	}

	handle, err := syscall.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		// Gone, or not ours to inspect
		return false, nil
	}
	defer syscall.CloseHandle(handle)

	var exitCode uint32
	if err := syscall.GetExitCodeProcess(handle, &exitCode); err != nil {
		return false, errors.NewIOError("query exit code", err).WithContext("pid", pid)
	}
	return exitCode == stillActive, nil
}
