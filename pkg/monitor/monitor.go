package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/activation"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/dnswatch"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/domain"
)

// Phase represents where the run currently is
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseReadiness  Phase = "readiness"
	PhasePolling    Phase = "polling"
	PhaseActivating Phase = "activating"
	PhaseCompleted  Phase = "completed"
	PhaseStopped    Phase = "stopped"
)

// Monitor holds the run status read by the health endpoint. It is the
// only state shared between the run and another goroutine.
type Monitor struct {
	mutex       sync.RWMutex
	domain      string
	phase       Phase
	attempts    int
	lastOutcome *dnswatch.Outcome
	activation  activation.State
}

func NewMonitor(domainName string) *Monitor {
	return &Monitor{
		domain:     domainName,
		phase:      PhaseStarting,
		activation: activation.State{Kind: activation.StateNotStarted},
	}
}

func (m *Monitor) setPhase(phase Phase) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.phase = phase
}

func (m *Monitor) recordAttempt(attempt int, outcome dnswatch.Outcome) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.attempts = attempt
	m.lastOutcome = &outcome
}

func (m *Monitor) recordTransition(from, to activation.State) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.activation = to
}

func (m *Monitor) Phase() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.phase
}

// Status implements domain.Contract. Serving is true once activation completed.
func (m *Monitor) Status(ctx context.Context) (domain.Status, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	status := domain.Status{Phase: string(m.phase), Serving: m.phase == PhaseCompleted}
	switch m.phase {
	case PhasePolling:
		if m.lastOutcome != nil {
			status.Detail = fmt.Sprintf("%s, attempt %d, last: %s", m.domain, m.attempts, m.lastOutcome)
		} else {
			status.Detail = m.domain
		}
	case PhaseActivating:
		status.Detail = m.activation.String()
	case PhaseCompleted:
		status.Detail = fmt.Sprintf("%s resolved after %d attempt(s)", m.domain, m.attempts)
	}
	return status, nil
}
