// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Config 日志配置
type Config struct {
	Level       string
	Development bool
}

type zapLogger struct {
	prefix string
	sugar  *zap.SugaredLogger
}

// New returns an info level production logger.
func New(prefix string) Logger {
	l, err := NewWithConfig(prefix, Config{Level: "info"})
	if err != nil {
		return &zapLogger{prefix: prefix, sugar: zap.NewNop().Sugar()}
	}
	return l
}

// NewWithConfig builds a zap backed logger. An empty level means info.
func NewWithConfig(prefix string, config Config) (Logger, error) {
	level, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if config.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = !config.Development

	base, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &zapLogger{prefix: prefix, sugar: base.Sugar()}, nil
}

// Nop discards everything.
func Nop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger.
func FromZap(prefix string, l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{prefix: prefix, sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// WithPrefix returns a logger that prepends prefix to every message of l.
func WithPrefix(l Logger, prefix string) Logger {
	if l == nil {
		return Nop()
	}
	return &prefixLogger{logger: l, prefix: strings.ReplaceAll(prefix, "%", "%%")}
}

// Sync flushes buffered entries of zap backed loggers.
func Sync(l Logger) {
	if zl, ok := l.(*zapLogger); ok {
		_ = zl.sugar.Sync()
	}
}

func (l *zapLogger) Info(format string, args ...interface{}) {
	l.sugar.Infof(l.prefix+format, args...)
}

func (l *zapLogger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(l.prefix+format, args...)
}

func (l *zapLogger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(l.prefix+format, args...)
}

type prefixLogger struct {
	logger Logger
	prefix string
}

func (w *prefixLogger) Info(format string, args ...interface{}) {
	w.logger.Info(w.prefix+format, args...)
}

func (w *prefixLogger) Error(format string, args ...interface{}) {
	w.logger.Error(w.prefix+format, args...)
}

func (w *prefixLogger) Debug(format string, args ...interface{}) {
	w.logger.Debug(w.prefix+format, args...)
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
