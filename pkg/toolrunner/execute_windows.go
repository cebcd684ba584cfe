//go:build windows

package toolrunner

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// setupProcessAttributes puts the tool into its own process group so it can be terminated as a whole
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessTree terminates the process and its children via taskkill, falling back to Kill
func killProcessTree(process *os.Process) error {
	if err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(process.Pid)).Run(); err != nil {
		return process.Kill()
	}
	return nil
}
