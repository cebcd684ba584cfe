package activation

import (
	"time"

	"github.com/google/uuid"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

// Outcome is a report only. A run is complete once every phase was
// attempted, whatever the individual steps recorded.
type Outcome struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Completed  bool
	Phases     []PhaseResult
}

func (o Outcome) Warnings() []StepResult {
	var warnings []StepResult
	for _, phase := range o.Phases {
		warnings = append(warnings, phase.Warnings()...)
	}
	return warnings
}

// Err aggregates step warnings for strict mode, nil when every step passed
func (o Outcome) Err() error {
	collection := errors.NewErrorCollection()
	for _, phase := range o.Phases {
		for _, step := range phase.Warnings() {
			collection.Add(errors.NewToolError(phase.Phase+": "+step.Description+": "+step.Detail, nil).
				WithContext("run_id", o.RunID.String()).
				WithContext("phase", phase.Phase))
		}
	}
	return collection.ToError()
}
