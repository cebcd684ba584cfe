package monitor

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDomain        = "DOMAIN"
	EnvCheckInterval = "CHECK_INTERVAL"
	EnvProjectPath   = "PROJECT_PATH"
	EnvLogLevel      = "MONITOR_LOG_LEVEL"
	EnvDatabaseURL   = "DATABASE_URL"
)

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

func envString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// envSeconds reads a plain number of seconds, or a Go duration string such as "90s"
func envSeconds(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if seconds, err := strconv.ParseInt(v, 10, 64); err == nil {
		if seconds > maxDurationSeconds || seconds < -maxDurationSeconds {
			return 0, fmt.Errorf("parse %s: %d seconds is out of range", key, seconds)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// ApplyEnvironment overlays the environment variables on a loaded config
func ApplyEnvironment(config *Config) error {
	config.Monitor.Domain = envString(EnvDomain, config.Monitor.Domain)

	interval, err := envSeconds(EnvCheckInterval, config.Monitor.CheckInterval)
	if err != nil {
		return err
	}
	config.Monitor.CheckInterval = interval

	config.Project.Path = envString(EnvProjectPath, config.Project.Path)
	config.Logging.Level = envString(EnvLogLevel, config.Logging.Level)
	config.Readiness.Datastore.URL = envString(EnvDatabaseURL, config.Readiness.Datastore.URL)
	return nil
}
