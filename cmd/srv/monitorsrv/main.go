package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/monitor"

	flags "github.com/jessevdk/go-flags"
)

const (
	exitOK       = 0
	exitStartup  = 1
	exitFailures = 2
)

type flagOptions struct {
	Config     string        `long:"config" short:"c" description:"path to a YAML or TOML configuration file"`
	Domain     string        `long:"domain" description:"domain to poll (overrides DOMAIN)"`
	Interval   time.Duration `long:"interval" description:"poll interval, e.g. 30s (overrides CHECK_INTERVAL)"`
	Project    string        `long:"project" description:"project directory (overrides PROJECT_PATH)"`
	LogLevel   string        `long:"log-level" description:"debug, info, warn or error (overrides MONITOR_LOG_LEVEL)"`
	HealthPort int           `long:"health-port" description:"serve the gRPC health endpoint on this port"`
	Strict     bool          `long:"strict" description:"exit with code 2 when readiness or activation recorded failures"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(argv)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return exitOK
		}
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		return exitStartup
	}

	config, err := loadConfig(opts)
	if err != nil {
		fmt.Printf("Configuration failed: %v\n", err)
		return exitStartup
	}

	zapLogger, err := logging.NewZapAdapter(config.Logging)
	if err != nil {
		fmt.Printf("Logger setup failed: %v\n", err)
		return exitStartup
	}
	defer zapLogger.Sync()

	logger := logging.NewLogger("", zapLogger.LogFuncs())
	logger.Debugf("opts: %+v", opts)

	summary, err := monitor.Run(context.Background(), config, logger)
	if err != nil {
		logger.Errorf("Monitor failed: %v", err)
		return exitStartup
	}

	if config.Monitor.Strict && !summary.Interrupted {
		if failures := summary.Err(); failures != nil {
			logger.Errorf("Strict mode: %v", failures)
			return exitFailures
		}
	}
	return exitOK
}

// loadConfig layers file, environment and flags, in that order of precedence
func loadConfig(opts flagOptions) (*monitor.Config, error) {
	config := monitor.DefaultConfig()
	if opts.Config != "" {
		loaded, err := monitor.LoadConfigFromFile(opts.Config)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := monitor.ApplyEnvironment(config); err != nil {
		return nil, errors.NewValidationError("invalid environment", err)
	}

	if opts.Domain != "" {
		config.Monitor.Domain = opts.Domain
	}
	if opts.Interval != 0 {
		config.Monitor.CheckInterval = opts.Interval
	}
	if opts.Project != "" {
		config.Project.Path = opts.Project
	}
	if opts.LogLevel != "" {
		config.Logging.Level = opts.LogLevel
	}
	if opts.HealthPort != 0 {
		config.Monitor.HealthPort = opts.HealthPort
	}
	if opts.Strict {
		config.Monitor.Strict = true
	}

	if err := monitor.ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}
