package dnswatch

import (
	"context"
	"strings"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
)

// Config is immutable for the lifetime of a run
type Config struct {
	Domain        string
	CheckInterval time.Duration
}

func ValidateConfig(config Config) error {
	domain := strings.TrimSpace(config.Domain)
	if domain == "" {
		return errors.NewValidationError("domain cannot be empty", nil)
	}
	if len(domain) > 253 {
		return errors.NewValidationError("domain cannot exceed 253 characters", nil).WithContext("domain", domain)
	}
	if strings.ContainsAny(domain, " /:") {
		return errors.NewValidationError("domain contains invalid characters", nil).WithContext("domain", domain)
	}
	if config.CheckInterval <= 0 {
		return errors.NewValidationError("check interval must be positive", nil)
	}
	return nil
}

// WaitFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case
type WaitFunc func(ctx context.Context, d time.Duration) error

// Wait is the real-time WaitFunc
func Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AttemptObserver is told about every attempt, e.g. to publish status
type AttemptObserver func(attempt int, outcome Outcome)

type PollerOption func(*Poller)

func WithWaitFunc(wait WaitFunc) PollerOption {
	return func(p *Poller) {
		p.wait = wait
	}
}

func WithAttemptObserver(observer AttemptObserver) PollerOption {
	return func(p *Poller) {
		p.observer = observer
	}
}

type Poller struct {
	config   Config
	checker  OutcomeChecker
	wait     WaitFunc
	observer AttemptObserver
	logger   logging.Logger
}

func NewPoller(config Config, checker OutcomeChecker, logger logging.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		config:  config,
		checker: checker,
		wait:    Wait,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollUntilResolved checks the domain until it resolves. There is no retry
// cap or deadline; the only other exit is ctx being cancelled, which is
// observed at each interval wait and returns a cancelled error together
// with the last outcome seen.
func (p *Poller) PollUntilResolved(ctx context.Context) (Outcome, error) {
	p.logger.Infof("DNS monitoring started: %s", p.config.Domain)
	p.logger.Infof("  check interval: %v", p.config.CheckInterval)

	for attempt := 1; ; attempt++ {
		outcome := p.checker.CheckOnce(ctx, p.config.Domain)
		if p.observer != nil {
			p.observer(attempt, outcome)
		}

		if outcome.IsResolved() {
			p.logger.Successf("DNS propagation complete after %d attempt(s), starting activation", attempt)
			return outcome, nil
		}

		p.logger.Debugf("Next check in %v", p.config.CheckInterval)
		if err := p.wait(ctx, p.config.CheckInterval); err != nil {
			p.logger.Warnf("DNS monitoring stopped after %d attempt(s)", attempt)
			return outcome, errors.NewCancelledError("dns polling cancelled", err).
				WithContext("domain", p.config.Domain).
				WithContext("attempts", attempt)
		}
	}
}
