package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"media-pipeline-service/pkg/config"
)

type requestIDKey struct{}

// Logger 日志服务, 封装logrus
type Logger struct {
	log  *logrus.Logger
	file *os.File
}

var global atomic.Pointer[Logger]

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	l.SetLevel(logrus.InfoLevel)

	result := &Logger{log: l}
	if cfg == nil {
		return result
	}

	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		l.SetLevel(level)
	}
	if strings.EqualFold(cfg.Log.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	switch strings.ToLower(cfg.Log.Output) {
	case "file", "both":
		if cfg.Log.Filename == "" {
			break
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Filename), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] create log dir failed: %v\n", err)
			break
		}
		f, err := os.OpenFile(cfg.Log.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] open log file failed: %v\n", err)
			break
		}
		result.file = f
		if strings.EqualFold(cfg.Log.Output, "both") {
			l.SetOutput(io.MultiWriter(os.Stdout, f))
		} else {
			l.SetOutput(f)
		}
	}
	return result
}

// NewWithWriter 输出到指定writer, 测试时使用
func NewWithWriter(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(level)
	return &Logger{log: l}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// L 获取全局日志器, 未设置时懒加载一个stdout日志器
func L() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l := NewLogger(nil)
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func (l *Logger) entry(fields []map[string]interface{}) *logrus.Entry {
	e := logrus.NewEntry(l.log)
	for _, f := range fields {
		e = e.WithFields(logrus.Fields(f))
	}
	return e
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.entry(fields).Debug(msg) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.entry(fields).Info(msg) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.entry(fields).Warn(msg) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.entry(fields).Error(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }

// Fatal 记录日志后退出进程
func (l *Logger) Fatal(msg string) { l.log.Fatal(msg) }

// WithContext 携带request_id的日志entry
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	e := logrus.NewEntry(l.log)
	if ctx == nil {
		return e
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		e = e.WithField("request_id", id)
	}
	return e
}

// ContextWithRequestID 在ctx中记录request_id
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext 读取request_id
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func Debug(msg string, fields ...map[string]interface{}) { L().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { L().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { L().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { L().Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { L().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { L().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }

func Fatal(msg string) { L().Fatal(msg) }

func WithContext(ctx context.Context) *logrus.Entry { return L().WithContext(ctx) }
