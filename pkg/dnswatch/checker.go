package dnswatch

import (
	"context"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
)

// Classify maps a resolver report onto an Outcome, in priority order:
// missing domain, missing address record, timeout, other failure, answer.
func Classify(resolution Resolution) Outcome {
	switch resolution.Kind {
	case ResolutionNXDomain:
		return NotFound()
	case ResolutionNoData:
		return NoAnswer()
	case ResolutionTimeout:
		return TimedOut()
	case ResolutionFailure:
		return Other(resolution.Detail)
	case ResolutionAnswer:
		if len(resolution.Addresses) == 0 {
			return NoAnswer()
		}
		return Resolved(resolution.Addresses...)
	default:
		return Other("unknown resolution kind")
	}
}

// OutcomeChecker performs exactly one resolution attempt per call
type OutcomeChecker interface {
	CheckOnce(ctx context.Context, domain string) Outcome
}

type Checker struct {
	resolver Resolver
	logger   logging.Logger
}

func NewChecker(resolver Resolver, logger logging.Logger) *Checker {
	return &Checker{
		resolver: resolver,
		logger:   logger,
	}
}

func (c *Checker) CheckOnce(ctx context.Context, domain string) Outcome {
	c.logger.Debugf("Resolving domain: %s", domain)

	outcome := Classify(c.resolver.Resolve(ctx, domain))

	if outcome.IsResolved() {
		// The first address is enough to call it resolved; all of them are logged.
		for _, address := range outcome.Addresses {
			c.logger.Successf("DNS resolved: %s -> %s", domain, address)
		}
	} else {
		c.logger.Warnf("DNS not resolved yet: %s - %s", domain, outcome.Reason())
	}
	return outcome
}
