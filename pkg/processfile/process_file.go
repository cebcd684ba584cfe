package processfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

// WritePIDFile records the PID of a process left running in the background,
// creating the parent directory when needed
func WritePIDFile(path string, pid int) error {
	if pid <= 0 {
		return errors.NewValidationError("pid must be positive", nil).WithContext("pid", pid)
	}
	if err := ValidatePIDFileDirectory(path); err != nil {
		return err
	}

	content := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.NewIOError("failed to write PID file", err).WithContext("pid_file", path).WithContext("pid", pid)
	}
	return nil
}

func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("pid_file", path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid PID file content", err).WithContext("pid_file", path)
	}
	return pid, nil
}

// ValidatePIDFileDirectory makes sure the directory of path exists and is a directory
func ValidatePIDFileDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewValidationError("PID file path cannot be empty", nil)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError("cannot create PID file directory", err).WithContext("directory", dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewIOError("cannot access PID file directory", err).WithContext("directory", dir)
	}
	if !info.IsDir() {
		return errors.NewValidationError("PID file parent is not a directory", nil).WithContext("directory", dir)
	}
	return nil
}
