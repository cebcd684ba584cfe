package toolrunner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

// Invocation describes one run of an external tool
type Invocation struct {
	Command          string        `yaml:"command" toml:"command"`
	Args             []string      `yaml:"args,omitempty" toml:"args"`
	Environment      []string      `yaml:"environment,omitempty" toml:"environment"`
	WorkingDirectory string        `yaml:"working_directory,omitempty" toml:"working_directory"`
	Timeout          time.Duration `yaml:"timeout,omitempty" toml:"timeout"`

	// DetachOnTimeout leaves the process running when the timeout fires
	// instead of killing its process group. Output is written to
	// OutputPath (or discarded) because nobody is left to collect it.
	DetachOnTimeout bool   `yaml:"detach_on_timeout,omitempty" toml:"detach_on_timeout"`
	OutputPath      string `yaml:"output_path,omitempty" toml:"output_path"`
	// PIDFile receives the PID of a process left running after its timeout
	PIDFile string `yaml:"pid_file,omitempty" toml:"pid_file"`
}

// CommandLine renders the invocation for log lines
func (i Invocation) CommandLine() string {
	if len(i.Args) == 0 {
		return i.Command
	}
	return i.Command + " " + strings.Join(i.Args, " ")
}

// Status is the closed set of tool outcomes
type Status string

const (
	StatusSuccess     Status = "success"
	StatusNonZeroExit Status = "non_zero_exit"
	StatusTimedOut    Status = "timed_out"
	StatusSpawnFailed Status = "spawn_failed"
)

type Result struct {
	Status   Status
	Stdout   string
	Stderr   string
	ExitCode int
	Detail   string
	PID      int
	Detached bool
	Duration time.Duration
}

func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Err converts a non-success result into a tool error; nil on success
func (r Result) Err() error {
	switch r.Status {
	case StatusSuccess:
		return nil
	case StatusNonZeroExit:
		return errors.NewToolError(fmt.Sprintf("exited with code %d", r.ExitCode), nil).WithContext("exit_code", r.ExitCode)
	case StatusTimedOut:
		return errors.NewToolError("timed out", nil).WithContext("detail", r.Detail)
	default:
		return errors.NewToolError("failed to start", nil).WithContext("detail", r.Detail)
	}
}

func (r Result) String() string {
	switch r.Status {
	case StatusNonZeroExit:
		return fmt.Sprintf("%s (exit code %d)", r.Status, r.ExitCode)
	case StatusTimedOut, StatusSpawnFailed:
		if r.Detail != "" {
			return fmt.Sprintf("%s (%s)", r.Status, r.Detail)
		}
	}
	return string(r.Status)
}

// Runner executes external tools. Implementations never retry.
type Runner interface {
	Run(ctx context.Context, invocation Invocation) Result
}

// RunnerFunc adapts a plain function to Runner
type RunnerFunc func(ctx context.Context, invocation Invocation) Result

func (f RunnerFunc) Run(ctx context.Context, invocation Invocation) Result {
	return f(ctx, invocation)
}

// ValidateInvocation validates an invocation before spawning
func ValidateInvocation(invocation Invocation) error {
	if strings.TrimSpace(invocation.Command) == "" {
		return errors.NewValidationError("command cannot be empty", nil)
	}
	if invocation.Timeout <= 0 {
		return errors.NewValidationError("timeout must be positive", nil).WithContext("command", invocation.Command)
	}
	if invocation.OutputPath != "" && !invocation.DetachOnTimeout {
		return errors.NewValidationError("output path is only used by detached invocations", nil).WithContext("command", invocation.Command)
	}
	if invocation.PIDFile != "" && !invocation.DetachOnTimeout {
		return errors.NewValidationError("pid file is only used by detached invocations", nil).WithContext("command", invocation.Command)
	}
	return nil
}
