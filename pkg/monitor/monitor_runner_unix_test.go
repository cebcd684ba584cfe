//go:build !windows

package monitor

import (
	"context"
	"syscall"
	"testing"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/dnswatch"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interruptingRunner raises SIGINT against the test process while the
// install step is running
type interruptingRunner struct {
	countingRunner
	t *testing.T
}

func (r *interruptingRunner) Run(ctx context.Context, invocation toolrunner.Invocation) toolrunner.Result {
	if len(invocation.Args) > 0 && invocation.Args[0] == "install" {
		require.NoError(r.t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))
	}
	return r.countingRunner.Run(ctx, invocation)
}

func TestRunInterruptedDuringReadiness(t *testing.T) {
	resolver := &scriptedResolver{resolutions: []dnswatch.Resolution{{Kind: dnswatch.ResolutionNXDomain}}}
	runner := &interruptingRunner{
		countingRunner: countingRunner{result: toolrunner.Result{Status: toolrunner.StatusSuccess}},
		t:              t,
	}
	m := NewMonitor("os-tenmon-ai.com")

	summary, err := Run(context.Background(), testConfig(), logging.NewNopLogger(),
		WithResolver(resolver),
		WithToolRunner(runner),
		WithMonitor(m))

	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Nil(t, summary.Activation)
	assert.Len(t, summary.Readiness.Checks, 4)
	assert.Equal(t, 1, runner.count("install"))
	assert.Equal(t, 1, runner.count("tsc"))
	assert.Equal(t, 0, runner.count("dev"))
	assert.LessOrEqual(t, resolver.calls, 1)
	assert.Equal(t, PhaseStopped, m.Phase())
}
