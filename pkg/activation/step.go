package activation

import (
	"context"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

type StepKind string

const (
	StepKindLog    StepKind = "log"
	StepKindTool   StepKind = "tool"
	StepKindProbe  StepKind = "probe"
	StepKindSettle StepKind = "settle"
)

// StepStatus is what a step ended up as. There is no fatal status: a
// failed step is recorded as a warning and the sequence moves on.
type StepStatus string

const (
	StepStatusPassed StepStatus = "passed"
	// StepStatusProbableSuccess is a tool that was still running when its
	// timeout fired and was left running in the background
	StepStatusProbableSuccess StepStatus = "probable_success"
	StepStatusWarning         StepStatus = "warning"
)

// Passed counts probable successes as passes
func (s StepStatus) Passed() bool {
	return s == StepStatusPassed || s == StepStatusProbableSuccess
}

// TimeoutPolicy decides how a timed out tool step is recorded
type TimeoutPolicy string

const (
	TimeoutIsWarning         TimeoutPolicy = "warning"
	TimeoutIsProbableSuccess TimeoutPolicy = "probable_success"
)

// ProbeFunc is a named pass/fail check returning a detail for the log
type ProbeFunc func(ctx context.Context) (string, error)

type Step struct {
	Description string
	Kind        StepKind

	Invocation toolrunner.Invocation
	OnTimeout  TimeoutPolicy

	Probe ProbeFunc

	Delay time.Duration
}

func LogStep(description string) Step {
	return Step{Description: description, Kind: StepKindLog}
}

func ToolStep(description string, invocation toolrunner.Invocation, onTimeout TimeoutPolicy) Step {
	return Step{Description: description, Kind: StepKindTool, Invocation: invocation, OnTimeout: onTimeout}
}

func ProbeStep(description string, probe ProbeFunc) Step {
	return Step{Description: description, Kind: StepKindProbe, Probe: probe}
}

// SettleStep is an explicit timed no-op, run through the sequencer's sleeper
func SettleStep(delay time.Duration) Step {
	return Step{Description: "settle " + delay.String(), Kind: StepKindSettle, Delay: delay}
}

type StepResult struct {
	Description string
	Kind        StepKind
	Status      StepStatus
	Detail      string
	Tool        *toolrunner.Result
	Duration    time.Duration
}

type Phase struct {
	Name  string
	Steps []Step
}

type PhaseResult struct {
	Phase string
	Steps []StepResult
}

func (p PhaseResult) Warnings() []StepResult {
	var warnings []StepResult
	for _, step := range p.Steps {
		if !step.Status.Passed() {
			warnings = append(warnings, step)
		}
	}
	return warnings
}
