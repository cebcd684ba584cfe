package activation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/processstate"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

// StderrExcerptLength bounds the stderr quoted in a failed tool step
const StderrExcerptLength = 200

// Sleeper blocks for d; settle steps go through it so tests need not wait
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type SequencerOption func(*Sequencer)

func WithSleeper(sleeper Sleeper) SequencerOption {
	return func(s *Sequencer) {
		s.sleep = sleeper
	}
}

func WithTransitionObserver(observer TransitionObserver) SequencerOption {
	return func(s *Sequencer) {
		s.observer = observer
	}
}

// WithProcessCheck replaces the liveness check used on detached tools
func WithProcessCheck(isRunning func(pid int) (bool, error)) SequencerOption {
	return func(s *Sequencer) {
		s.isRunning = isRunning
	}
}

// Sequencer runs the activation phases once. Nothing a step does can
// stop it: failures and panics become warnings and the next step runs.
type Sequencer struct {
	phases    []Phase
	runner    toolrunner.Runner
	sleep     Sleeper
	observer  TransitionObserver
	isRunning func(pid int) (bool, error)
	logger    logging.Logger

	once    sync.Once
	machine *stateMachine
	outcome Outcome
}

func NewSequencer(phases []Phase, runner toolrunner.Runner, logger logging.Logger, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		phases:    phases,
		runner:    runner,
		sleep:     Sleep,
		isRunning: processstate.IsProcessRunning,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = newStateMachine(len(phases), s.observer)
	return s
}

func (s *Sequencer) State() State {
	return s.machine.get()
}

// Run executes every phase in order and always returns an Outcome.
// A Sequencer runs once; later calls return the first outcome.
func (s *Sequencer) Run(ctx context.Context, projectPath string) Outcome {
	ran := false
	s.once.Do(func() {
		ran = true
		s.outcome = s.run(ctx, projectPath)
	})
	if !ran {
		s.logger.Warnf("Activation already ran, run id: %s", s.outcome.RunID)
	}
	return s.outcome
}

func (s *Sequencer) run(ctx context.Context, projectPath string) Outcome {
	outcome := Outcome{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Phases:    make([]PhaseResult, 0, len(s.phases)),
	}

	s.logger.Infof("%s", strings.Repeat("=", 60))
	s.logger.Infof("Activation sequence started, run id: %s", outcome.RunID)
	s.logger.Infof("%s", strings.Repeat("=", 60))

	for i, phase := range s.phases {
		s.moveTo(State{Kind: StateInPhase, Phase: i + 1, PhaseName: phase.Name})
		s.logger.Infof("[%d/%d] %s", i+1, len(s.phases), phase.Name)

		result := PhaseResult{Phase: phase.Name, Steps: make([]StepResult, 0, len(phase.Steps))}
		for _, step := range phase.Steps {
			result.Steps = append(result.Steps, s.runStep(ctx, step, projectPath))
		}
		outcome.Phases = append(outcome.Phases, result)

		if warnings := len(result.Warnings()); warnings > 0 {
			s.logger.Warnf("%s finished with %d warning(s)", phase.Name, warnings)
		} else {
			s.logger.Successf("%s complete", phase.Name)
		}
	}

	s.moveTo(State{Kind: StateCompleted})
	outcome.Completed = true
	outcome.FinishedAt = time.Now().UTC()

	s.logger.Infof("%s", strings.Repeat("=", 60))
	s.logger.Successf("Activation sequence complete, run id: %s, warnings: %d", outcome.RunID, len(outcome.Warnings()))
	s.logger.Successf("System fully restored")
	s.logger.Infof("%s", strings.Repeat("=", 60))
	return outcome
}

func (s *Sequencer) moveTo(state State) {
	if err := s.machine.transition(state); err != nil {
		s.logger.Errorf("State transition rejected: %v", err)
	}
}

func (s *Sequencer) runStep(ctx context.Context, step Step, projectPath string) (result StepResult) {
	started := time.Now()
	result = StepResult{Description: step.Description, Kind: step.Kind}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StepStatusWarning
			result.Detail = fmt.Sprintf("step panicked: %v", r)
		}
		result.Duration = time.Since(started)
		s.logStep(result)
	}()

	switch step.Kind {
	case StepKindLog:
		result.Status = StepStatusPassed
	case StepKindSettle:
		result.Status, result.Detail = s.settle(ctx, step)
	case StepKindProbe:
		result.Status, result.Detail = s.probe(ctx, step)
	case StepKindTool:
		result.Status, result.Detail, result.Tool = s.tool(ctx, step, projectPath)
	default:
		result.Status = StepStatusWarning
		result.Detail = "unknown step kind: " + string(step.Kind)
	}
	return result
}

func (s *Sequencer) logStep(result StepResult) {
	switch {
	case result.Kind == StepKindSettle && result.Status.Passed():
		s.logger.Debugf("  %s", result.Description)
	case result.Status == StepStatusProbableSuccess:
		s.logger.Successf("  %s: %s", result.Description, result.Detail)
	case result.Status.Passed() && result.Detail != "":
		s.logger.Successf("  %s: %s", result.Description, result.Detail)
	case result.Status.Passed():
		s.logger.Successf("  %s", result.Description)
	default:
		s.logger.Warnf("  %s: %s", result.Description, result.Detail)
	}
}

func (s *Sequencer) settle(ctx context.Context, step Step) (StepStatus, string) {
	if err := s.sleep(ctx, step.Delay); err != nil {
		return StepStatusWarning, "settle interrupted: " + err.Error()
	}
	return StepStatusPassed, ""
}

func (s *Sequencer) probe(ctx context.Context, step Step) (StepStatus, string) {
	if step.Probe == nil {
		return StepStatusWarning, "no probe configured"
	}
	detail, err := step.Probe(ctx)
	if err != nil {
		return StepStatusWarning, err.Error()
	}
	return StepStatusPassed, detail
}

func (s *Sequencer) tool(ctx context.Context, step Step, projectPath string) (StepStatus, string, *toolrunner.Result) {
	invocation := step.Invocation
	if invocation.WorkingDirectory == "" {
		invocation.WorkingDirectory = projectPath
	}
	result := s.runner.Run(ctx, invocation)

	switch result.Status {
	case toolrunner.StatusSuccess:
		return StepStatusPassed, "OK", &result
	case toolrunner.StatusTimedOut:
		if step.OnTimeout == TimeoutIsProbableSuccess {
			return StepStatusProbableSuccess, s.describeBackground(result), &result
		}
		return StepStatusWarning, result.String(), &result
	default:
		detail := result.String()
		if excerpt := excerpt(result.Stderr, StderrExcerptLength); excerpt != "" {
			detail += ": " + excerpt
		}
		return StepStatusWarning, detail, &result
	}
}

func (s *Sequencer) describeBackground(result toolrunner.Result) string {
	if !result.Detached || result.PID <= 0 {
		return "still running at timeout"
	}
	running, err := s.isRunning(result.PID)
	switch {
	case err != nil:
		return fmt.Sprintf("still running at timeout (pid %d)", result.PID)
	case running:
		return fmt.Sprintf("running in background (pid %d)", result.PID)
	default:
		return fmt.Sprintf("detached at timeout, pid %d has since exited", result.PID)
	}
}

// excerpt keeps at most limit bytes of s without splitting a rune
func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
