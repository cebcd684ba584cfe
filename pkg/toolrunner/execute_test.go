package toolrunner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/processfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test: the runner tests re-execute the
// test binary with GO_WANT_HELPER_PROCESS=1 to get a portable fake tool.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) == 0 {
		os.Exit(2)
	}

	switch args[0] {
	case "echo":
		fmt.Fprint(os.Stdout, args[1])
		fmt.Fprint(os.Stderr, args[2])
		os.Exit(0)
	case "exit":
		code, _ := strconv.Atoi(args[1])
		fmt.Fprint(os.Stderr, "src/a.ts(1,1): error TS2322: bad\nsrc/b.ts(2,2): error TS7006: worse\n")
		os.Exit(code)
	case "sleep":
		d, _ := time.ParseDuration(args[1])
		fmt.Fprintln(os.Stdout, "starting")
		time.Sleep(d)
		os.Exit(0)
	}
	os.Exit(2)
}

func helperInvocation(t *testing.T, timeout time.Duration, args ...string) Invocation {
	return Invocation{
		Command:          os.Args[0],
		Args:             append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Environment:      []string{"GO_WANT_HELPER_PROCESS=1"},
		WorkingDirectory: t.TempDir(),
		Timeout:          timeout,
	}
}

func newTestRunner() Runner {
	return NewRunner(logging.NewNopLogger())
}

func TestRunSuccessCapturesStreams(t *testing.T) {
	result := newTestRunner().Run(context.Background(), helperInvocation(t, 30*time.Second, "echo", "out-text", "err-text"))

	require.Equal(t, StatusSuccess, result.Status, result.Detail)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "out-text", result.Stdout)
	assert.Equal(t, "err-text", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
	assert.Positive(t, result.PID)
	assert.NoError(t, result.Err())
}

func TestRunNonZeroExit(t *testing.T) {
	result := newTestRunner().Run(context.Background(), helperInvocation(t, 30*time.Second, "exit", "3"))

	require.Equal(t, StatusNonZeroExit, result.Status)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Stderr, "error TS2322")
	assert.True(t, errors.IsToolError(result.Err()))
	assert.Equal(t, "non_zero_exit (exit code 3)", result.String())
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	started := time.Now()
	result := newTestRunner().Run(context.Background(), helperInvocation(t, 200*time.Millisecond, "sleep", "30s"))

	require.Equal(t, StatusTimedOut, result.Status)
	assert.False(t, result.Detached)
	assert.Contains(t, result.Detail, "timeout")
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestRunDetachOnTimeoutLeavesProcessRunning(t *testing.T) {
	invocation := helperInvocation(t, 100*time.Millisecond, "sleep", "2s")
	invocation.DetachOnTimeout = true
	invocation.OutputPath = filepath.Join(t.TempDir(), "start.log")

	result := newTestRunner().Run(context.Background(), invocation)

	require.Equal(t, StatusTimedOut, result.Status)
	assert.True(t, result.Detached)
	assert.Positive(t, result.PID)
	assert.Empty(t, result.Stdout)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(invocation.OutputPath)
		return err == nil && len(data) > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRunDetachWritesPIDFile(t *testing.T) {
	invocation := helperInvocation(t, 100*time.Millisecond, "sleep", "2s")
	invocation.DetachOnTimeout = true
	invocation.PIDFile = filepath.Join(t.TempDir(), "run", "server.pid")

	result := newTestRunner().Run(context.Background(), invocation)

	require.Equal(t, StatusTimedOut, result.Status)
	pid, err := processfile.ReadPIDFile(invocation.PIDFile)
	require.NoError(t, err)
	assert.Equal(t, result.PID, pid)
}

func TestRunDetachedWithoutOutputPathWritesToConsole(t *testing.T) {
	var stdout, stderr bytes.Buffer
	runner := &execRunner{
		logger:     logging.NewNopLogger(),
		waitDelay:  DefaultWaitDelay,
		consoleOut: &stdout,
		consoleErr: &stderr,
	}
	invocation := helperInvocation(t, 30*time.Second, "exit", "1")
	invocation.DetachOnTimeout = true

	result := runner.Run(context.Background(), invocation)

	require.Equal(t, StatusNonZeroExit, result.Status)
	assert.Equal(t, 1, result.ExitCode)
	assert.False(t, result.Detached)
	assert.Contains(t, stderr.String(), "error TS2322")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestRunner().Run(ctx, helperInvocation(t, 30*time.Second, "sleep", "30s"))

	require.Equal(t, StatusTimedOut, result.Status)
	assert.Contains(t, result.Detail, "cancelled")
}

func TestRunSpawnFailures(t *testing.T) {
	tests := []struct {
		name       string
		invocation func(t *testing.T) Invocation
	}{
		{
			name: "missing_binary",
			invocation: func(t *testing.T) Invocation {
				return Invocation{Command: filepath.Join(t.TempDir(), "no-such-tool"), Timeout: time.Second}
			},
		},
		{
			name: "missing_working_directory",
			invocation: func(t *testing.T) Invocation {
				invocation := helperInvocation(t, time.Second, "echo", "a", "b")
				invocation.WorkingDirectory = filepath.Join(t.TempDir(), "missing")
				return invocation
			},
		},
		{
			name: "empty_command",
			invocation: func(t *testing.T) Invocation {
				return Invocation{Timeout: time.Second}
			},
		},
		{
			name: "zero_timeout",
			invocation: func(t *testing.T) Invocation {
				return helperInvocation(t, 0, "echo", "a", "b")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestRunner().Run(context.Background(), tt.invocation(t))
			assert.Equal(t, StatusSpawnFailed, result.Status)
			assert.NotEmpty(t, result.Detail)
			assert.True(t, errors.IsToolError(result.Err()))
		})
	}
}

func TestValidateInvocation(t *testing.T) {
	tests := []struct {
		name       string
		invocation Invocation
		shouldErr  bool
	}{
		{"valid", Invocation{Command: "pnpm", Args: []string{"install"}, Timeout: 5 * time.Minute}, false},
		{"blank_command", Invocation{Command: "  ", Timeout: time.Second}, true},
		{"negative_timeout", Invocation{Command: "pnpm", Timeout: -time.Second}, true},
		{"output_without_detach", Invocation{Command: "pnpm", Timeout: time.Second, OutputPath: "/tmp/x.log"}, true},
		{"output_with_detach", Invocation{Command: "pnpm", Timeout: time.Second, OutputPath: "/tmp/x.log", DetachOnTimeout: true}, false},
		{"pid_file_without_detach", Invocation{Command: "pnpm", Timeout: time.Second, PIDFile: "/tmp/x.pid"}, true},
		{"pid_file_with_detach", Invocation{Command: "pnpm", Timeout: time.Second, PIDFile: "/tmp/x.pid", DetachOnTimeout: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInvocation(tt.invocation)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvocationCommandLine(t *testing.T) {
	assert.Equal(t, "pnpm", Invocation{Command: "pnpm"}.CommandLine())
	assert.Equal(t, "pnpm tsc --noEmit", Invocation{Command: "pnpm", Args: []string{"tsc", "--noEmit"}}.CommandLine())
}

func TestRunnerFunc(t *testing.T) {
	var seen Invocation
	runner := RunnerFunc(func(ctx context.Context, invocation Invocation) Result {
		seen = invocation
		return Result{Status: StatusSuccess}
	})

	result := runner.Run(context.Background(), Invocation{Command: "pnpm"})
	assert.True(t, result.Succeeded())
	assert.Equal(t, "pnpm", seen.Command)
}
