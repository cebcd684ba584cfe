package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/activation"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/datastore"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/dnswatch"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/logging"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/readiness"
	"github.com/TenmonAI/tenmon-ark-monitor/pkg/toolrunner"
)

const (
	DefaultDomain          = "os-tenmon-ai.com"
	DefaultCheckInterval   = 300 * time.Second
	DefaultProjectPath     = "."
	DefaultResolverTimeout = 5 * time.Second
	DefaultPingTimeout     = 5 * time.Second
)

// Config represents the top-level configuration file structure
type Config struct {
	Monitor    MonitorOptions    `yaml:"monitor" toml:"monitor"`
	Project    ProjectOptions    `yaml:"project" toml:"project"`
	Readiness  ReadinessOptions  `yaml:"readiness" toml:"readiness"`
	Activation ActivationOptions `yaml:"activation" toml:"activation"`
	Logging    logging.ZapConfig `yaml:"logging" toml:"logging"`
}

type MonitorOptions struct {
	Domain        string                   `yaml:"domain" toml:"domain"`
	CheckInterval time.Duration            `yaml:"check_interval" toml:"check_interval"`
	Resolver      dnswatch.ResolverOptions `yaml:"resolver" toml:"resolver"`

	// HealthPort serves the gRPC health endpoint; 0 disables it
	HealthPort int `yaml:"health_port,omitempty" toml:"health_port"`

	// Strict turns recorded readiness or activation failures into a failed run
	Strict bool `yaml:"strict,omitempty" toml:"strict"`
}

type ProjectOptions struct {
	Path string `yaml:"path" toml:"path"`
}

type ReadinessOptions struct {
	Install           toolrunner.Invocation `yaml:"install" toml:"install"`
	Typecheck         toolrunner.Invocation `yaml:"typecheck" toml:"typecheck"`
	ErrorMarker       string                `yaml:"error_marker,omitempty" toml:"error_marker"`
	RequiredVariables []string              `yaml:"required_variables,omitempty" toml:"required_variables"`
	Datastore         datastore.Config      `yaml:"datastore" toml:"datastore"`
}

type ActivationOptions struct {
	Typecheck   toolrunner.Invocation `yaml:"typecheck" toml:"typecheck"`
	Start       toolrunner.Invocation `yaml:"start" toml:"start"`
	SettleDelay time.Duration         `yaml:"settle_delay,omitempty" toml:"settle_delay"`
}

// DefaultConfig is used when no configuration file is given
func DefaultConfig() *Config {
	config := &Config{}
	setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads a YAML or TOML file, chosen by extension
func LoadConfigFromFile(filename string) (*Config, error) {
	var config Config

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		if _, err := toml.DecodeFile(filename, &config); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
			}
			return nil, errors.NewValidationError("failed to parse TOML configuration", err).WithContext("filename", filename)
		}
	default:
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
		}
	}

	setConfigDefaults(&config)
	return &config, nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *Config) {
	if config.Monitor.Domain == "" {
		config.Monitor.Domain = DefaultDomain
	}
	if config.Monitor.CheckInterval == 0 {
		config.Monitor.CheckInterval = DefaultCheckInterval
	}
	if config.Monitor.Resolver.Type == "" {
		config.Monitor.Resolver.Type = dnswatch.ResolverTypeDNS
	}
	if config.Monitor.Resolver.Timeout == 0 {
		config.Monitor.Resolver.Timeout = DefaultResolverTimeout
	}

	if config.Project.Path == "" {
		config.Project.Path = DefaultProjectPath
	}

	if config.Readiness.Install.Command == "" {
		config.Readiness.Install = toolrunner.Invocation{Command: "pnpm", Args: []string{"install"}, Timeout: 5 * time.Minute}
	}
	if config.Readiness.Typecheck.Command == "" {
		config.Readiness.Typecheck = activation.DefaultTypecheckInvocation()
	}
	if config.Readiness.ErrorMarker == "" {
		config.Readiness.ErrorMarker = readiness.DefaultErrorMarker
	}
	if len(config.Readiness.RequiredVariables) == 0 {
		config.Readiness.RequiredVariables = append([]string(nil), readiness.DefaultRequiredVariables...)
	}
	if config.Readiness.Datastore.Mode == "" {
		config.Readiness.Datastore.Mode = datastore.ModeStub
	}
	if config.Readiness.Datastore.Mode == datastore.ModePing && config.Readiness.Datastore.PingTimeout == 0 {
		config.Readiness.Datastore.PingTimeout = DefaultPingTimeout
	}

	if config.Activation.Typecheck.Command == "" {
		config.Activation.Typecheck = config.Readiness.Typecheck
	}
	if config.Activation.Start.Command == "" {
		config.Activation.Start = activation.DefaultStartInvocation()
	}
	if config.Activation.SettleDelay == 0 {
		config.Activation.SettleDelay = activation.DefaultSettleDelay
	}

	defaults := logging.DefaultZapConfig()
	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = defaults.Format
	}
	if config.Logging.Output == "" {
		config.Logging.Output = defaults.Output
	}
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if err := validateMonitorOptions(&config.Monitor); err != nil {
		return errors.NewValidationError("invalid monitor configuration", err)
	}
	if strings.TrimSpace(config.Project.Path) == "" {
		return errors.NewValidationError("project path cannot be empty", nil)
	}
	if err := validateReadinessOptions(&config.Readiness); err != nil {
		return errors.NewValidationError("invalid readiness configuration", err)
	}
	if err := validateActivationOptions(&config.Activation); err != nil {
		return errors.NewValidationError("invalid activation configuration", err)
	}
	if err := ValidateLogLevel(config.Logging.Level); err != nil {
		return errors.NewValidationError("invalid logging configuration", err)
	}
	return nil
}

func validateMonitorOptions(options *MonitorOptions) error {
	if err := dnswatch.ValidateConfig(options.DNSConfig()); err != nil {
		return err
	}
	if err := dnswatch.ValidateResolverOptions(options.Resolver); err != nil {
		return err
	}
	if options.HealthPort != 0 {
		if err := ValidatePort(options.HealthPort); err != nil {
			return err
		}
	}
	return nil
}

func validateReadinessOptions(options *ReadinessOptions) error {
	if err := toolrunner.ValidateInvocation(options.Install); err != nil {
		return errors.NewValidationError("invalid install invocation", err)
	}
	if err := toolrunner.ValidateInvocation(options.Typecheck); err != nil {
		return errors.NewValidationError("invalid typecheck invocation", err)
	}
	for i, name := range options.RequiredVariables {
		if err := ValidateVariableName(name); err != nil {
			return errors.NewValidationError("invalid required variable", err).WithContext("index", i)
		}
	}
	return datastore.ValidateConfig(options.Datastore)
}

func validateActivationOptions(options *ActivationOptions) error {
	if err := toolrunner.ValidateInvocation(options.Typecheck); err != nil {
		return errors.NewValidationError("invalid typecheck invocation", err)
	}
	if err := toolrunner.ValidateInvocation(options.Start); err != nil {
		return errors.NewValidationError("invalid start invocation", err)
	}
	return ValidateTimeout(options.SettleDelay, "settle")
}

// DNSConfig is the poller configuration for the run
func (o MonitorOptions) DNSConfig() dnswatch.Config {
	return dnswatch.Config{
		Domain:        strings.TrimSpace(o.Domain),
		CheckInterval: o.CheckInterval,
	}
}

func (o ReadinessOptions) CheckerOptions() readiness.Options {
	return readiness.Options{
		Install:           o.Install,
		Typecheck:         o.Typecheck,
		ErrorMarker:       o.ErrorMarker,
		RequiredVariables: o.RequiredVariables,
	}
}
