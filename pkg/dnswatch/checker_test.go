package dnswatch

import (
	"context"
	"testing"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		resolution Resolution
		expected   Outcome
	}{
		{"domain_does_not_exist", Resolution{Kind: ResolutionNXDomain}, NotFound()},
		{"no_address_record", Resolution{Kind: ResolutionNoData}, NoAnswer()},
		{"resolver_timeout", Resolution{Kind: ResolutionTimeout, Detail: "i/o timeout"}, TimedOut()},
		{"other_failure", Resolution{Kind: ResolutionFailure, Detail: "server answered SERVFAIL"}, Other("server answered SERVFAIL")},
		{"single_address", Resolution{Kind: ResolutionAnswer, Addresses: []string{"203.0.113.5"}}, Resolved("203.0.113.5")},
		{"all_addresses_kept", Resolution{Kind: ResolutionAnswer, Addresses: []string{"203.0.113.5", "203.0.113.6"}}, Resolved("203.0.113.5", "203.0.113.6")},
		{"empty_answer", Resolution{Kind: ResolutionAnswer}, NoAnswer()},
		{"unknown_kind", Resolution{Kind: ResolutionKind(42)}, Other("unknown resolution kind")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.resolution))
		})
	}
}

func TestClassifyKindsDoNotOverlap(t *testing.T) {
	kinds := map[OutcomeKind]ResolutionKind{}
	for _, kind := range []ResolutionKind{ResolutionNXDomain, ResolutionNoData, ResolutionTimeout, ResolutionFailure} {
		outcome := Classify(Resolution{Kind: kind, Detail: "x"})
		_, seen := kinds[outcome.Kind]
		assert.False(t, seen, "outcome %s produced twice", outcome.Kind)
		assert.False(t, outcome.IsResolved())
		kinds[outcome.Kind] = kind
	}
	assert.Len(t, kinds, 4)
}

func TestCheckOnceUsesResolverOnce(t *testing.T) {
	calls := 0
	resolver := ResolverFunc(func(ctx context.Context, domain string) Resolution {
		calls++
		assert.Equal(t, "os-tenmon-ai.com", domain)
		return Resolution{Kind: ResolutionAnswer, Addresses: []string{"203.0.113.5"}}
	})

	outcome := NewChecker(resolver, logging.NewNopLogger()).CheckOnce(context.Background(), "os-tenmon-ai.com")

	assert.Equal(t, 1, calls)
	assert.True(t, outcome.IsResolved())
	assert.Equal(t, []string{"203.0.113.5"}, outcome.Addresses)
}

func TestCheckOnceLogsSeverity(t *testing.T) {
	var warnings, successes []string
	logger := logging.NewLogger("", logging.LogFuncs{
		Warnf: func(format string, args ...interface{}) {
			warnings = append(warnings, format)
		},
		Successf: func(format string, args ...interface{}) {
			successes = append(successes, format)
		},
	})

	resolutions := []Resolution{
		{Kind: ResolutionNXDomain},
		{Kind: ResolutionAnswer, Addresses: []string{"203.0.113.5", "203.0.113.6"}},
	}
	resolver := ResolverFunc(func(ctx context.Context, domain string) Resolution {
		next := resolutions[0]
		resolutions = resolutions[1:]
		return next
	})
	checker := NewChecker(resolver, logger)

	checker.CheckOnce(context.Background(), "example.org")
	checker.CheckOnce(context.Background(), "example.org")

	assert.Len(t, warnings, 1)
	assert.Len(t, successes, 2)
}

func TestOutcomeReason(t *testing.T) {
	assert.Equal(t, "resolved: resolved to 203.0.113.5", Resolved("203.0.113.5").String())
	assert.Equal(t, "domain does not exist", NotFound().Reason())
	assert.Equal(t, "no A record found", NoAnswer().Reason())
	assert.Equal(t, "resolution timed out", TimedOut().Reason())
	assert.Equal(t, "other: connection refused", Other("connection refused").String())
}
