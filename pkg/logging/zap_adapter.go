package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ===== ZAP BACKEND ADAPTER =====

// ZapAdapter provides a Zap backend for Logger that hides zap types from users
type ZapAdapter struct {
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	success *zap.SugaredLogger
	closer  func()
}

// ZapConfig defines Zap-specific configuration
type ZapConfig struct {
	Level  string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" toml:"format"` // "console", "json"
	Output string `yaml:"output" toml:"output"` // "stdout", "stderr", file path
	Caller bool   `yaml:"caller" toml:"caller"` // Include caller information
}

// DefaultZapConfig returns the console configuration used by the monitor binaries
func DefaultZapConfig() ZapConfig {
	return ZapConfig{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// NewZapAdapter creates a new Zap backend adapter
func NewZapAdapter(config ZapConfig) (*ZapAdapter, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	output := config.Output
	if output == "" {
		output = "stdout"
	}
	writeSyncer, closer, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", output, err)
	}
	writeSyncer = zapcore.Lock(writeSyncer)

	mainCore := zapcore.NewCore(newEncoder(config.Format, encodeSeverity), writeSyncer, level)
	successCore := zapcore.NewCore(newEncoder(config.Format, encodeSuccess), writeSyncer, level)

	opts := []zap.Option{}
	if config.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	adapter := newZapAdapterFromCores(mainCore, successCore, opts...)
	adapter.closer = closer
	return adapter, nil
}

func newZapAdapterFromCores(mainCore, successCore zapcore.Core, opts ...zap.Option) *ZapAdapter {
	zapLogger := zap.New(mainCore, opts...)
	successLogger := zap.New(successCore, opts...).With(zap.String("outcome", "success"))
	return &ZapAdapter{
		logger:  zapLogger,
		sugar:   zapLogger.Sugar(),
		success: successLogger.Sugar(),
	}
}

func (z *ZapAdapter) Debugf(format string, args ...interface{}) {
	z.sugar.Debugf(format, args...)
}

func (z *ZapAdapter) Infof(format string, args ...interface{}) {
	z.sugar.Infof(format, args...)
}

func (z *ZapAdapter) Warnf(format string, args ...interface{}) {
	z.sugar.Warnf(format, args...)
}

func (z *ZapAdapter) Errorf(format string, args ...interface{}) {
	z.sugar.Errorf(format, args...)
}

func (z *ZapAdapter) Successf(format string, args ...interface{}) {
	z.success.Infof(format, args...)
}

// LogFuncs exposes the adapter as the function table consumed by NewLogger
func (z *ZapAdapter) LogFuncs() LogFuncs {
	return LogFuncs{
		Debugf:   z.Debugf,
		Infof:    z.Infof,
		Warnf:    z.Warnf,
		Errorf:   z.Errorf,
		Successf: z.Successf,
	}
}

// Sync flushes any buffered log entries and releases the output
func (z *ZapAdapter) Sync() error {
	err := z.logger.Sync()
	_ = z.success.Sync()
	if z.closer != nil {
		z.closer()
	}
	return err
}

// ===== ZAP CONFIGURATION =====

func newEncoder(format string, encodeLevel zapcore.LevelEncoder) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = encodeLevel

	switch strings.ToLower(format) {
	case "json":
		encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig.ConsoleSeparator = " "
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
}

// encodeSeverity renders zap levels with the monitor's tags: [INFO], [WARNING], [ERROR]
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.WarnLevel:
		enc.AppendString("[WARNING]")
	default:
		enc.AppendString("[" + level.CapitalString() + "]")
	}
}

func encodeSuccess(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if level == zapcore.InfoLevel {
		enc.AppendString("[SUCCESS]")
		return
	}
	encodeSeverity(level, enc)
}
