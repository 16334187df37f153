package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to a service name.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New builds a logger from cfg. An unknown level falls back to info.
func New(cfg *Config, service string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := writer(cfg.Output)
	var zl zerolog.Logger
	if cfg.Console() {
		zl = zerolog.New(consoleWriter(out, service, cfg.NoColor))
	} else {
		zl = zerolog.New(out).With().Str("service", service).Logger()
	}
	zl = zl.Level(level)

	zc := zl.With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.CallerWithSkipFrameCount(3)
	}
	return &Logger{zl: zc.Logger(), service: service}
}

// NewDefault returns an info-level console logger.
func NewDefault(service string) *Logger {
	return New(&Config{Level: "info", Format: "console", Output: "stdout", Timestamp: true}, service)
}

// ToWriter returns a JSON logger writing to w at level.
func ToWriter(w io.Writer, level zerolog.Level, service string) *Logger {
	zl := zerolog.New(w).Level(level).With().Str("service", service).Logger()
	return &Logger{zl: zl, service: service}
}

// Service returns the service name the logger was built with.
func (l *Logger) Service() string { return l.service }

// Level returns the minimum level that is written.
func (l *Logger) Level() zerolog.Level { return l.zl.GetLevel() }

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// WithComponent tags every event with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name))
}

// WithFields attaches fields to every event. Secret-looking keys are
// redacted.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.zl.With()
	for k, v := range fields {
		zc = zc.Interface(k, redact(k, v))
	}
	return l.derive(zc)
}

// WithError attaches err to every event.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err))
}

func (l *Logger) derive(zc zerolog.Context) *Logger {
	return &Logger{zl: zc.Logger(), service: l.service}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Fatal(), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []map[string]interface{}) {
	if ev == nil {
		return
	}
	for _, m := range fields {
		for k, v := range m {
			ev.Interface(k, redact(k, v))
		}
	}
	ev.Msg(msg)
}

// secretKeys are field names whose values are never written.
var secretKeys = []string{"password", "token", "secret", "authorization", "passphrase", "private_key"}

const redacted = "[REDACTED]"

func redact(key string, v interface{}) interface{} {
	k := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(k, s) {
			return redacted
		}
	}
	return v
}

// testWriter captures output in tests.
var testWriter io.Writer

func writer(output string) io.Writer {
	if testWriter != nil {
		return testWriter
	}
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}
