package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/processfile"
)

// DefaultWaitDelay bounds how long Wait keeps copying output after the process was killed
const DefaultWaitDelay = 2 * time.Second

type execRunner struct {
	logger    logging.Logger
	waitDelay time.Duration

	// Detached tools without an OutputPath write to the console
	consoleOut io.Writer
	consoleErr io.Writer
}

// NewRunner returns a Runner backed by os/exec
func NewRunner(logger logging.Logger) Runner {
	return &execRunner{
		logger:     logger,
		waitDelay:  DefaultWaitDelay,
		consoleOut: os.Stdout,
		consoleErr: os.Stderr,
	}
}

func (r *execRunner) Run(ctx context.Context, invocation Invocation) Result {
	started := time.Now()

	if err := ValidateInvocation(invocation); err != nil {
		r.logger.Errorf("Invalid tool invocation, command: %s, error: %v", invocation.CommandLine(), err)
		return Result{Status: StatusSpawnFailed, Detail: err.Error()}
	}

	r.logger.Infof("Executing tool, command: '%s', working directory: '%s', timeout: %v",
		invocation.CommandLine(), invocation.WorkingDirectory, invocation.Timeout)

	cmd := exec.Command(invocation.Command, invocation.Args...)
	cmd.Dir = invocation.WorkingDirectory
	cmd.Env = append(os.Environ(), invocation.Environment...)
	cmd.WaitDelay = r.waitDelay

	// Platform-specific setup is handled in execute_unix.go or execute_windows.go
	setupProcessAttributes(cmd)

	var stdout, stderr bytes.Buffer
	var outputFile *os.File
	if invocation.DetachOnTimeout {
		// A detached process outlives this call, so it must not write into our buffers.
		if invocation.OutputPath != "" {
			file, err := os.OpenFile(invocation.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				r.logger.Errorf("Failed to open tool output, command: %s, path: %s, error: %v", invocation.Command, invocation.OutputPath, err)
				return Result{Status: StatusSpawnFailed, Detail: err.Error(), Duration: time.Since(started)}
			}
			outputFile = file
			defer outputFile.Close()
			cmd.Stdout = outputFile
			cmd.Stderr = outputFile
		} else {
			cmd.Stdout = r.consoleOut
			cmd.Stderr = r.consoleErr
		}
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Start(); err != nil {
		r.logger.Warnf("Failed to start tool, command: %s, error: %v", invocation.Command, err)
		return Result{Status: StatusSpawnFailed, Detail: err.Error(), Duration: time.Since(started)}
	}

	pid := cmd.Process.Pid
	r.logger.Debugf("Tool started, command: %s, PID: %d", invocation.Command, pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(invocation.Timeout)
	defer timer.Stop()

	var detail string
	select {
	case err := <-done:
		result := exitResult(err, stdout.String(), stderr.String())
		result.PID = pid
		result.Duration = time.Since(started)
		r.logger.Debugf("Tool finished, command: %s, result: %s, duration: %v", invocation.Command, result, result.Duration)
		return result
	case <-timer.C:
		detail = "timeout of " + invocation.Timeout.String() + " elapsed"
	case <-ctx.Done():
		detail = "invocation cancelled: " + ctx.Err().Error()
	}

	if invocation.DetachOnTimeout {
		r.logger.Infof("Tool still running after %v, leaving it in the background, command: %s, PID: %d",
			invocation.Timeout, invocation.Command, pid)
		go func() {
			// Reap the process whenever it exits.
			<-done
		}()
		if invocation.PIDFile != "" {
			if err := processfile.WritePIDFile(invocation.PIDFile, pid); err != nil {
				r.logger.Warnf("Failed to write PID file, command: %s, PID: %d, error: %v", invocation.Command, pid, err)
			} else {
				r.logger.Infof("PID file written, path: %s, PID: %d", invocation.PIDFile, pid)
			}
		}
		return Result{Status: StatusTimedOut, Detail: detail, PID: pid, Detached: true, Duration: time.Since(started)}
	}

	r.logger.Warnf("Tool did not finish, terminating, command: %s, PID: %d, reason: %s", invocation.Command, pid, detail)
	if err := killProcessTree(cmd.Process); err != nil {
		r.logger.Errorf("Failed to terminate tool, command: %s, PID: %d, error: %v", invocation.Command, pid, err)
	}
	<-done

	return Result{
		Status:   StatusTimedOut,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Detail:   detail,
		PID:      pid,
		Duration: time.Since(started),
	}
}

func exitResult(err error, stdout, stderr string) Result {
	if err == nil {
		return Result{Status: StatusSuccess, Stdout: stdout, Stderr: stderr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Status: StatusNonZeroExit, Stdout: stdout, Stderr: stderr, ExitCode: exitErr.ExitCode(), Detail: err.Error()}
	}

	// The process exited cleanly but a descendant kept the output pipes open.
	if errors.Is(err, exec.ErrWaitDelay) {
		return Result{Status: StatusSuccess, Stdout: stdout, Stderr: stderr, Detail: err.Error()}
	}
	return Result{Status: StatusNonZeroExit, Stdout: stdout, Stderr: stderr, ExitCode: -1, Detail: err.Error()}
}
