package domain

import (
	"context"
)

// Status is a point-in-time view of a running monitor
type Status struct {
	Phase   string
	Detail  string
	Serving bool
}

func (s Status) String() string {
	if s.Detail == "" {
		return s.Phase
	}
	return s.Phase + ": " + s.Detail
}

type Contract interface {
	Status(ctx context.Context) (Status, error)
}
