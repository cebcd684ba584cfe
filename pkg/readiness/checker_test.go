package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, invocation toolrunner.Invocation) toolrunner.Result {
	args := m.Called(ctx, invocation)
	return args.Get(0).(toolrunner.Result)
}

type probeFunc func(ctx context.Context) (string, error)

func (f probeFunc) Check(ctx context.Context) (string, error) { return f(ctx) }

func testOptions() Options {
	return Options{
		Install:   toolrunner.Invocation{Command: "pnpm", Args: []string{"install"}, Timeout: 5 * time.Minute},
		Typecheck: toolrunner.Invocation{Command: "pnpm", Args: []string{"tsc", "--noEmit"}, Timeout: time.Minute},
	}
}

func isCommand(sub string) interface{} {
	return mock.MatchedBy(func(invocation toolrunner.Invocation) bool {
		return invocation.Args[0] == sub && invocation.WorkingDirectory == "/srv/project"
	})
}

func envOf(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func allVariables() map[string]string {
	return map[string]string{
		"DATABASE_URL":     "postgres://localhost/app",
		"JWT_SECRET":       "secret",
		"VITE_APP_ID":      "app",
		"OAUTH_SERVER_URL": "https://auth.example.org",
	}
}

func TestRunAllEverythingPasses(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, isCommand("install")).Return(toolrunner.Result{Status: toolrunner.StatusSuccess}).Once()
	runner.On("Run", mock.Anything, isCommand("tsc")).Return(toolrunner.Result{Status: toolrunner.StatusSuccess}).Once()

	stub := probeFunc(func(ctx context.Context) (string, error) { return "connectable", nil })
	checker := NewChecker(testOptions(), runner, stub, logging.NewNopLogger(), WithLookupEnv(envOf(allVariables())))

	report := checker.RunAll(context.Background(), "/srv/project")

	runner.AssertExpectations(t)
	require.Len(t, report.Checks, 4)
	assert.Equal(t, []string{CheckDependencies, CheckDatastore, CheckEnvironment, CheckTypecheck},
		[]string{report.Checks[0].Name, report.Checks[1].Name, report.Checks[2].Name, report.Checks[3].Name})
	assert.True(t, report.Passed())
	assert.Empty(t, report.Failures())
	assert.NoError(t, report.Err())
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestRunAllEverythingFailsStillFourEntries(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, isCommand("install")).Return(toolrunner.Result{Status: toolrunner.StatusSpawnFailed, Detail: "exec: \"pnpm\": executable file not found in $PATH"})
	runner.On("Run", mock.Anything, isCommand("tsc")).Return(toolrunner.Result{
		Status:   toolrunner.StatusNonZeroExit,
		ExitCode: 2,
		Stderr:   "a.ts(1,1): error TS2322: x\nb.ts(3,4): error TS2345: y\nc.ts(9,9): error TS7006: z\n",
	})
	failing := probeFunc(func(ctx context.Context) (string, error) {
		return "", errors.NewIOError("datastore ping failed", nil)
	})
	checker := NewChecker(testOptions(), runner, failing, logging.NewNopLogger(), WithLookupEnv(envOf(nil)))

	report := checker.RunAll(context.Background(), "/srv/project")

	require.Len(t, report.Checks, 4)
	assert.False(t, report.Passed())
	assert.Len(t, report.Failures(), 4)
	assert.Contains(t, report.Checks[0].Detail, "spawn_failed")
	assert.Contains(t, report.Checks[1].Detail, "datastore ping failed")
	assert.Equal(t, "missing: DATABASE_URL, JWT_SECRET, VITE_APP_ID, OAUTH_SERVER_URL", report.Checks[2].Detail)
	assert.Equal(t, "3 error(s) detected", report.Checks[3].Detail)

	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 errors occurred")
	assert.True(t, errors.IsToolError(err))
}

func TestEnvironmentCheckListsEveryMissingName(t *testing.T) {
	values := allVariables()
	delete(values, "JWT_SECRET")
	values["OAUTH_SERVER_URL"] = ""

	checker := NewChecker(testOptions(), &MockRunner{}, nil, logging.NewNopLogger(), WithLookupEnv(envOf(values)))
	passed, detail := checker.checkEnvironment(context.Background(), "/srv/project")

	assert.False(t, passed)
	assert.Equal(t, "missing: JWT_SECRET, OAUTH_SERVER_URL", detail)
}

func TestEnvironmentCheckCustomVariables(t *testing.T) {
	options := testOptions()
	options.RequiredVariables = []string{"ONLY_ONE"}

	checker := NewChecker(options, &MockRunner{}, nil, logging.NewNopLogger(), WithLookupEnv(envOf(map[string]string{"ONLY_ONE": "1"})))
	passed, detail := checker.checkEnvironment(context.Background(), "/srv/project")

	assert.True(t, passed)
	assert.Equal(t, "all 1 required variables set", detail)
}

func TestTypecheckOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		result toolrunner.Result
		passed bool
		detail string
	}{
		{"clean", toolrunner.Result{Status: toolrunner.StatusSuccess}, true, "no errors"},
		{"errors_in_stderr", toolrunner.Result{Status: toolrunner.StatusNonZeroExit, ExitCode: 2, Stderr: "error TS1005: ';' expected"}, false, "1 error(s) detected"},
		{"non_zero_without_marker", toolrunner.Result{Status: toolrunner.StatusNonZeroExit, ExitCode: 1, Stderr: "ERR_PNPM_NO_SCRIPT"}, false, "0 error(s) detected"},
		{"timed_out", toolrunner.Result{Status: toolrunner.StatusTimedOut, Detail: "timeout of 1m0s elapsed"}, false, "check failed: timed_out (timeout of 1m0s elapsed)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{}
			runner.On("Run", mock.Anything, isCommand("tsc")).Return(tt.result)

			checker := NewChecker(testOptions(), runner, nil, logging.NewNopLogger())
			passed, detail := checker.checkTypecheck(context.Background(), "/srv/project")

			assert.Equal(t, tt.passed, passed)
			assert.Equal(t, tt.detail, detail)
		})
	}
}

func TestRunAllRecoversFromPanickingCheck(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, isCommand("install")).Return(toolrunner.Result{Status: toolrunner.StatusSuccess})
	runner.On("Run", mock.Anything, isCommand("tsc")).Return(toolrunner.Result{Status: toolrunner.StatusSuccess})
	panicking := probeFunc(func(ctx context.Context) (string, error) {
		panic("driver exploded")
	})

	checker := NewChecker(testOptions(), runner, panicking, logging.NewNopLogger(), WithLookupEnv(envOf(allVariables())))
	report := checker.RunAll(context.Background(), "/srv/project")

	require.Len(t, report.Checks, 4)
	assert.False(t, report.Checks[1].Passed)
	assert.Contains(t, report.Checks[1].Detail, "driver exploded")
	assert.True(t, report.Checks[3].Passed)
	runner.AssertNumberOfCalls(t, "Run", 2)
}

func TestNilProbePasses(t *testing.T) {
	checker := NewChecker(testOptions(), &MockRunner{}, nil, logging.NewNopLogger())
	passed, _ := checker.checkDatastore(context.Background(), "/srv/project")
	assert.True(t, passed)
}
