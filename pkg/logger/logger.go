package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"stream-service/pkg/config"
)

// Logger wraps a logrus logger with the helpers used across the service.
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var (
	globalMu     sync.RWMutex
	globalLogger = newDefault()
)

func newDefault() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: l}
}

// NewLogger 根据配置创建日志器
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	out := &Logger{entry: l}
	if cfg == nil {
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.JSONFormatter{})
		return out
	}

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Log.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Log.Output, "file") && cfg.Log.Filename != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Filename), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.Log.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out.file = f
				w = io.MultiWriter(os.Stdout, f)
			}
		}
	}
	l.SetOutput(w)
	return out
}

// NewWithWriter builds a logger writing JSON to w, used by tests.
func NewWithWriter(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(level)
	return &Logger{entry: l}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger 获取全局日志器
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Raw exposes the underlying logrus logger.
func (l *Logger) Raw() *logrus.Logger { return l.entry }

// WithFields returns a logrus entry carrying fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry.WithFields(logrus.Fields(fields))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Debug(msg)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Info(msg)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Warn(msg)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.withOptional(fields).Error(msg)
}

func (l *Logger) withOptional(fields []map[string]interface{}) *logrus.Entry {
	merged := logrus.Fields{}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return l.entry.WithFields(merged)
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func Debugf(format string, args ...interface{}) { GetGlobalLogger().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().Errorf(format, args...) }

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

// Fatal 记录日志并退出进程
func Fatal(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	GetGlobalLogger().entry.Fatal(msg)
}
