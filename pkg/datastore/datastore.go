package datastore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
)

type Mode string

const (
	// ModeStub reports reachable without connecting
	ModeStub Mode = "stub"
	// ModePing opens the database and pings it
	ModePing Mode = "ping"
)

type Config struct {
	Mode        Mode          `yaml:"mode" toml:"mode"`
	URL         string        `yaml:"-" toml:"-"`
	PingTimeout time.Duration `yaml:"ping_timeout,omitempty" toml:"ping_timeout"`
}

func ValidateConfig(config Config) error {
	switch config.Mode {
	case ModeStub, "":
		return nil
	case ModePing:
		if config.PingTimeout <= 0 {
			return errors.NewValidationError("datastore ping timeout must be positive", nil)
		}
		return nil
	default:
		return errors.NewValidationError("unsupported datastore mode: "+string(config.Mode), nil).
			WithContext("supported_modes", "stub, ping")
	}
}

// Probe reports whether the datastore is reachable, with a detail for the report
type Probe interface {
	Check(ctx context.Context) (string, error)
}

type stubProbe struct{}

func (stubProbe) Check(ctx context.Context) (string, error) {
	return "connectable (stub check, no connection attempted)", nil
}

type pingProbe struct {
	config Config
	logger logging.Logger
}

func NewProbe(config Config, logger logging.Logger) (Probe, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if config.Mode == ModePing {
		return &pingProbe{config: config, logger: logger}, nil
	}
	return stubProbe{}, nil
}

func (p *pingProbe) Check(ctx context.Context) (string, error) {
	if strings.TrimSpace(p.config.URL) == "" {
		return "", errors.NewMissingVariableError("DATABASE_URL")
	}

	db, err := sql.Open("pgx", p.config.URL)
	if err != nil {
		return "", errors.NewIOError("open datastore", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, p.config.PingTimeout)
	defer cancel()

	started := time.Now()
	if err := db.PingContext(pingCtx); err != nil {
		p.logger.Debugf("Datastore ping failed, error: %v", err)
		if pingCtx.Err() != nil {
			return "", errors.NewTimeoutError("datastore ping timed out", err)
		}
		return "", errors.NewIOError("datastore ping failed", err)
	}
	return "reachable in " + time.Since(started).Round(time.Millisecond).String(), nil
}
