package monitor

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/activation"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/control"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/datastore"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/dnswatch"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/readiness"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

// Summary is what a run recorded. Activation is nil when the run was
// interrupted before the domain resolved.
type Summary struct {
	Readiness   readiness.Report
	Resolution  dnswatch.Outcome
	Activation  *activation.Outcome
	Interrupted bool
}

// Err collects recorded failures for strict mode; nil when there were none
func (s Summary) Err() error {
	collection := errors.NewErrorCollection()
	collection.Add(s.Readiness.Err())
	if s.Activation != nil {
		collection.Add(s.Activation.Err())
	}
	return collection.ToError()
}

const healthShutdownTimeout = 5 * time.Second

type runOptions struct {
	resolver       dnswatch.Resolver
	runner         toolrunner.Runner
	probe          datastore.Probe
	wait           dnswatch.WaitFunc
	sleeper        activation.Sleeper
	handleSignals  bool
	monitor        *Monitor
	healthListener func(port int)
}

type RunOption func(*runOptions)

func WithResolver(resolver dnswatch.Resolver) RunOption {
	return func(o *runOptions) { o.resolver = resolver }
}

func WithToolRunner(runner toolrunner.Runner) RunOption {
	return func(o *runOptions) { o.runner = runner }
}

func WithProbe(probe datastore.Probe) RunOption {
	return func(o *runOptions) { o.probe = probe }
}

func WithWaitFunc(wait dnswatch.WaitFunc) RunOption {
	return func(o *runOptions) { o.wait = wait }
}

func WithSleeper(sleeper activation.Sleeper) RunOption {
	return func(o *runOptions) { o.sleeper = sleeper }
}

// WithoutSignalHandling leaves SIGINT/SIGTERM alone; ctx is the only way to stop polling
func WithoutSignalHandling() RunOption {
	return func(o *runOptions) { o.handleSignals = false }
}

// WithMonitor publishes the run status into m instead of a private Monitor
func WithMonitor(m *Monitor) RunOption {
	return func(o *runOptions) { o.monitor = m }
}

// WithHealthListener is told the health endpoint port once it is started
func WithHealthListener(f func(port int)) RunOption {
	return func(o *runOptions) { o.healthListener = f }
}

// Run performs one monitoring run: readiness checks, DNS polling until the
// domain resolves, then a single activation sequence. An operator interrupt
// while polling ends the run without error. Only configuration and startup
// problems are returned as errors.
func Run(ctx context.Context, config *Config, logger logging.Logger, opts ...RunOption) (Summary, error) {
	var summary Summary

	if err := ValidateConfig(config); err != nil {
		return summary, errors.NewValidationError("configuration validation failed", err)
	}

	options := runOptions{
		wait:          dnswatch.Wait,
		sleeper:       activation.Sleep,
		handleSignals: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	deps, err := buildDependencies(config, logger, &options)
	if err != nil {
		return summary, err
	}
	m := options.monitor
	if m == nil {
		m = NewMonitor(config.Monitor.Domain)
	}

	logger.Infof("%s", strings.Repeat("=", 60))
	logger.Infof("DNS activation monitor starting")
	logger.Infof("  domain: %s", config.Monitor.Domain)
	logger.Infof("  check interval: %v", config.Monitor.CheckInterval)
	logger.Infof("  project: %s", config.Project.Path)
	logger.Infof("%s", strings.Repeat("=", 60))

	if config.Monitor.HealthPort != 0 {
		server, err := control.NewServer(config.Monitor.HealthPort, m, logging.NewLogger("health: ", logFuncs(logger)))
		if err != nil {
			return summary, errors.NewInternalError("failed to start health endpoint", err)
		}
		server.Start(ctx)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), healthShutdownTimeout)
			defer cancel()
			server.Stop(shutdownCtx)
		}()
		if options.healthListener != nil {
			options.healthListener(server.Port())
		}
	}

	// Signals are caught before any tool runs. Tools in flight run to
	// completion and the interrupt is honored at the next poll boundary.
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if options.handleSignals {
		stopSignals := cancelOnSignal(pollCtx, cancel, logger)
		defer stopSignals()
	}

	m.setPhase(PhaseReadiness)
	readinessChecker := readiness.NewChecker(config.Readiness.CheckerOptions(), deps.runner, deps.probe,
		logging.NewLogger("readiness: ", logFuncs(logger)))
	summary.Readiness = readinessChecker.RunAll(context.WithoutCancel(ctx), config.Project.Path)

	if pollCtx.Err() != nil {
		return stopped(summary, m, logger), nil
	}

	m.setPhase(PhasePolling)
	poller := dnswatch.NewPoller(config.Monitor.DNSConfig(),
		dnswatch.NewChecker(deps.resolver, logger),
		logger,
		dnswatch.WithWaitFunc(options.wait),
		dnswatch.WithAttemptObserver(m.recordAttempt))

	outcome, err := poller.PollUntilResolved(pollCtx)
	summary.Resolution = outcome
	if err != nil {
		if errors.IsCancelledError(err) {
			return stopped(summary, m, logger), nil
		}
		return summary, errors.NewInternalError("dns polling failed", err)
	}

	// Tools already started must run to completion even if an interrupt arrives now
	m.setPhase(PhaseActivating)
	sequencer := activation.NewSequencer(
		activation.DefaultPhases(activation.PhaseOptions{
			Typecheck:   config.Activation.Typecheck,
			Start:       config.Activation.Start,
			Datastore:   deps.probe,
			SettleDelay: config.Activation.SettleDelay,
		}),
		deps.runner,
		logging.NewLogger("activation: ", logFuncs(logger)),
		activation.WithSleeper(options.sleeper),
		activation.WithTransitionObserver(m.recordTransition))

	activationOutcome := sequencer.Run(context.WithoutCancel(ctx), config.Project.Path)
	summary.Activation = &activationOutcome
	m.setPhase(PhaseCompleted)

	logger.Successf("Monitor finished, domain %s is live", config.Monitor.Domain)
	return summary, nil
}

func stopped(summary Summary, m *Monitor, logger logging.Logger) Summary {
	m.setPhase(PhaseStopped)
	summary.Interrupted = true
	logger.Warnf("Monitoring stopped")
	return summary
}

type dependencies struct {
	resolver dnswatch.Resolver
	runner   toolrunner.Runner
	probe    datastore.Probe
}

func buildDependencies(config *Config, logger logging.Logger, options *runOptions) (dependencies, error) {
	deps := dependencies{
		resolver: options.resolver,
		runner:   options.runner,
		probe:    options.probe,
	}
	if deps.resolver == nil {
		resolver, err := dnswatch.NewResolver(config.Monitor.Resolver)
		if err != nil {
			return deps, errors.NewInternalError("failed to create resolver", err)
		}
		deps.resolver = resolver
	}
	if deps.runner == nil {
		deps.runner = toolrunner.NewRunner(logging.NewLogger("tool: ", logFuncs(logger)))
	}
	if deps.probe == nil {
		probe, err := datastore.NewProbe(config.Readiness.Datastore, logger)
		if err != nil {
			return deps, errors.NewInternalError("failed to create datastore probe", err)
		}
		deps.probe = probe
	}
	return deps, nil
}

func cancelOnSignal(ctx context.Context, cancel context.CancelFunc, logger logging.Logger) func() {
	sig := make(chan os.Signal, 1)
	if runtime.GOOS == "windows" {
		signal.Notify(sig, os.Interrupt) // SIGTERM is not delivered on Windows
	} else {
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	}

	go func() {
		select {
		case receivedSignal := <-sig:
			logger.Warnf("Received signal: %v", receivedSignal)
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() { signal.Stop(sig) }
}

func logFuncs(logger logging.Logger) logging.LogFuncs {
	return logging.LogFuncs{
		Debugf:   logger.Debugf,
		Infof:    logger.Infof,
		Warnf:    logger.Warnf,
		Errorf:   logger.Errorf,
		Successf: logger.Successf,
	}
}
