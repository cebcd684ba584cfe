package readiness

import (
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

const (
	CheckDependencies = "dependencies"
	CheckDatastore    = "datastore"
	CheckEnvironment  = "environment"
	CheckTypecheck    = "typecheck"
)

type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// Report keeps check results in execution order. It is append-only while
// RunAll builds it and must not be modified afterwards.
type Report struct {
	GeneratedAt time.Time
	Checks      []CheckResult
}

func (r Report) Passed() bool {
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	return true
}

func (r Report) Failures() []CheckResult {
	var failures []CheckResult
	for _, check := range r.Checks {
		if !check.Passed {
			failures = append(failures, check)
		}
	}
	return failures
}

// Err aggregates the failed checks, nil when everything passed
func (r Report) Err() error {
	collection := errors.NewErrorCollection()
	for _, check := range r.Failures() {
		if check.Name == CheckEnvironment {
			collection.Add(errors.NewDomainError(errors.ErrorTypeEnvironment, check.Detail, nil).WithContext("check", check.Name))
			continue
		}
		collection.Add(errors.NewToolError(check.Name+": "+check.Detail, nil).WithContext("check", check.Name))
	}
	return collection.ToError()
}
