package monitor

import (
	"fmt"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidatePort validates port number
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return errors.NewValidationError(fmt.Sprintf("invalid port number: %d", port), nil).
			WithContext("valid_range", "1-65535")
	}
	return nil
}

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout < 0 {
		return errors.NewValidationError(name+" timeout cannot be negative", nil)
	}
	if timeout == 0 {
		return errors.NewValidationError(name+" timeout cannot be zero", nil)
	}
	return nil
}

func ValidateLogLevel(level string) error {
	for _, valid := range validLogLevels {
		if level == valid {
			return nil
		}
	}
	return errors.NewValidationError(fmt.Sprintf("invalid log level: %s", level), nil).
		WithContext("valid_levels", "debug, info, warn, error")
}

// ValidateVariableName accepts POSIX-style environment variable names
func ValidateVariableName(name string) error {
	if name == "" {
		return errors.NewValidationError("variable name cannot be empty", nil)
	}
	for i, char := range name {
		if !isValidVariableChar(char) || (i == 0 && char >= '0' && char <= '9') {
			return errors.NewValidationError("variable name contains invalid characters: "+name, nil)
		}
	}
	return nil
}

func isValidVariableChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == '_'
}
