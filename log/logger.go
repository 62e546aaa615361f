// Package log provides sub-system scoped logging backed by zap.
package log

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	errSubLoggerNameEmpty = errors.New("sub-logger name cannot be empty")
	errUnknownLevel       = errors.New("unknown log level")
)

// Config defines how the global logger is built
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// SubLogger tags log lines with the sub-system they originate from
type SubLogger struct {
	name string
}

// Name returns the sub-system tag
func (s *SubLogger) Name() string {
	return s.name
}

// Global sub-systems
var (
	SigningSys   = MustNewSubLogger("SIGNING")
	RequestSys   = MustNewSubLogger("REQUESTER")
	ExchangeSys  = MustNewSubLogger("EXCHANGE")
	WebsocketSys = MustNewSubLogger("WEBSOCKET")
	ConfigSys    = MustNewSubLogger("CONFIG")
	KMSSys       = MustNewSubLogger("KMS")
)

var global atomic.Pointer[zap.SugaredLogger]

func init() {
	global.Store(zap.NewNop().Sugar())
}

// NewSubLogger returns a sub-system logger tag
func NewSubLogger(name string) (*SubLogger, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errSubLoggerNameEmpty
	}
	return &SubLogger{name: strings.ToUpper(name)}, nil
}

// MustNewSubLogger is NewSubLogger which panics on error
func MustNewSubLogger(name string) *SubLogger {
	s, err := NewSubLogger(name)
	if err != nil {
		panic(err)
	}
	return s
}

// SetupGlobalLogger builds the process wide logger from cfg. A disabled config installs a no-op logger
func SetupGlobalLogger(cfg *Config) error {
	if cfg == nil || !cfg.Enabled {
		SetLogger(zap.NewNop())
		return nil
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("%w %q: %w", errUnknownLevel, cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := zc.Build(zap.AddCallerSkip(2))
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger installs l as the global logger
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l.Sugar())
}

// Logger returns the zap logger currently installed
func Logger() *zap.Logger {
	return global.Load().Desugar()
}

// Sync flushes buffered log entries
func Sync() error {
	return global.Load().Sync()
}

func forSub(s *SubLogger) *zap.SugaredLogger {
	l := global.Load()
	if s == nil {
		return l
	}
	return l.With("sys", s.name)
}

// Debugf logs a formatted debug message against the sub-system
func Debugf(s *SubLogger, format string, a ...any) {
	forSub(s).Debugf(format, a...)
}

// Debugln logs a debug message against the sub-system
func Debugln(s *SubLogger, a ...any) {
	forSub(s).Debugln(a...)
}

// Infof logs a formatted info message against the sub-system
func Infof(s *SubLogger, format string, a ...any) {
	forSub(s).Infof(format, a...)
}

// Warnf logs a formatted warning against the sub-system
func Warnf(s *SubLogger, format string, a ...any) {
	forSub(s).Warnf(format, a...)
}

// Errorf logs a formatted error against the sub-system
func Errorf(s *SubLogger, format string, a ...any) {
	forSub(s).Errorf(format, a...)
}
