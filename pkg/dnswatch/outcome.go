package dnswatch

import (
	"fmt"
	"strings"
)

// OutcomeKind is the closed set of results of one resolution attempt
type OutcomeKind string

const (
	OutcomeResolved OutcomeKind = "resolved"
	OutcomeNotFound OutcomeKind = "not_found"
	OutcomeNoAnswer OutcomeKind = "no_answer"
	OutcomeTimedOut OutcomeKind = "timed_out"
	OutcomeOther    OutcomeKind = "other"
)

// Outcome is produced fresh on every attempt and never mutated.
// Addresses is only set for OutcomeResolved, Detail only for OutcomeOther.
type Outcome struct {
	Kind      OutcomeKind
	Addresses []string
	Detail    string
}

func Resolved(addresses ...string) Outcome {
	return Outcome{Kind: OutcomeResolved, Addresses: append([]string(nil), addresses...)}
}

func NotFound() Outcome { return Outcome{Kind: OutcomeNotFound} }

func NoAnswer() Outcome { return Outcome{Kind: OutcomeNoAnswer} }

func TimedOut() Outcome { return Outcome{Kind: OutcomeTimedOut} }

func Other(detail string) Outcome { return Outcome{Kind: OutcomeOther, Detail: detail} }

func (o Outcome) IsResolved() bool {
	return o.Kind == OutcomeResolved
}

// Reason is the human-readable explanation used in log lines
func (o Outcome) Reason() string {
	switch o.Kind {
	case OutcomeResolved:
		return "resolved to " + strings.Join(o.Addresses, ", ")
	case OutcomeNotFound:
		return "domain does not exist"
	case OutcomeNoAnswer:
		return "no A record found"
	case OutcomeTimedOut:
		return "resolution timed out"
	default:
		return o.Detail
	}
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s: %s", o.Kind, o.Reason())
}
