package readiness

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/datastore"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

// DefaultRequiredVariables must be present in the process environment
var DefaultRequiredVariables = []string{
	"DATABASE_URL",
	"JWT_SECRET",
	"VITE_APP_ID",
	"OAUTH_SERVER_URL",
}

// DefaultErrorMarker is what the TypeScript compiler prefixes each diagnostic with
const DefaultErrorMarker = "error TS"

type Options struct {
	Install           toolrunner.Invocation
	Typecheck         toolrunner.Invocation
	ErrorMarker       string
	RequiredVariables []string
}

type CheckerOption func(*Checker)

// WithLookupEnv replaces os.LookupEnv, mainly for tests
func WithLookupEnv(lookupEnv func(string) (string, bool)) CheckerOption {
	return func(c *Checker) {
		c.lookupEnv = lookupEnv
	}
}

type Checker struct {
	options   Options
	runner    toolrunner.Runner
	datastore datastore.Probe
	lookupEnv func(string) (string, bool)
	logger    logging.Logger
}

func NewChecker(options Options, runner toolrunner.Runner, probe datastore.Probe, logger logging.Logger, opts ...CheckerOption) *Checker {
	if options.ErrorMarker == "" {
		options.ErrorMarker = DefaultErrorMarker
	}
	if options.RequiredVariables == nil {
		options.RequiredVariables = DefaultRequiredVariables
	}
	c := &Checker{
		options:   options,
		runner:    runner,
		datastore: probe,
		lookupEnv: os.LookupEnv,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type check struct {
	name string
	run  func(ctx context.Context, projectPath string) (bool, string)
}

// RunAll executes every check in order. A failing (or panicking) check is
// recorded and the next one still runs, so the report always has one entry
// per check.
func (c *Checker) RunAll(ctx context.Context, projectPath string) Report {
	c.logger.Infof("Readiness checks started, project: %s", projectPath)

	checks := []check{
		{CheckDependencies, c.checkDependencies},
		{CheckDatastore, c.checkDatastore},
		{CheckEnvironment, c.checkEnvironment},
		{CheckTypecheck, c.checkTypecheck},
	}

	report := Report{
		GeneratedAt: time.Now().UTC(),
		Checks:      make([]CheckResult, 0, len(checks)),
	}
	for _, chk := range checks {
		result := c.runCheck(ctx, chk, projectPath)
		if result.Passed {
			c.logger.Successf("  %s: %s", result.Name, result.Detail)
		} else {
			c.logger.Warnf("  %s: %s", result.Name, result.Detail)
		}
		report.Checks = append(report.Checks, result)
	}

	if report.Passed() {
		c.logger.Successf("Readiness checks complete")
	} else {
		c.logger.Warnf("Readiness checks complete with %d failure(s)", len(report.Failures()))
	}
	return report
}

func (c *Checker) runCheck(ctx context.Context, chk check, projectPath string) (result CheckResult) {
	result.Name = chk.name
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("Readiness check panicked, check: %s, panic: %v", chk.name, r)
			result.Passed = false
			result.Detail = fmt.Sprintf("check failed: %v", r)
		}
	}()
	result.Passed, result.Detail = chk.run(ctx, projectPath)
	return result
}

func (c *Checker) checkDependencies(ctx context.Context, projectPath string) (bool, string) {
	c.logger.Infof("  checking dependencies...")

	invocation := c.options.Install
	invocation.WorkingDirectory = projectPath
	result := c.runner.Run(ctx, invocation)

	if result.Succeeded() {
		return true, "installed"
	}
	return false, "install failed: " + result.String()
}

func (c *Checker) checkDatastore(ctx context.Context, projectPath string) (bool, string) {
	if c.datastore == nil {
		return true, "connectable (no probe configured)"
	}
	detail, err := c.datastore.Check(ctx)
	if err != nil {
		return false, err.Error()
	}
	return true, detail
}

func (c *Checker) checkEnvironment(ctx context.Context, projectPath string) (bool, string) {
	var missing []string
	for _, name := range c.options.RequiredVariables {
		if value, ok := c.lookupEnv(name); !ok || value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, "missing: " + strings.Join(missing, ", ")
	}
	return true, fmt.Sprintf("all %d required variables set", len(c.options.RequiredVariables))
}

func (c *Checker) checkTypecheck(ctx context.Context, projectPath string) (bool, string) {
	c.logger.Infof("  checking compile errors...")

	invocation := c.options.Typecheck
	invocation.WorkingDirectory = projectPath
	result := c.runner.Run(ctx, invocation)

	switch result.Status {
	case toolrunner.StatusSuccess:
		return true, "no errors"
	case toolrunner.StatusNonZeroExit:
		count := strings.Count(result.Stderr, c.options.ErrorMarker)
		return false, fmt.Sprintf("%d error(s) detected", count)
	default:
		return false, "check failed: " + result.String()
	}
}
