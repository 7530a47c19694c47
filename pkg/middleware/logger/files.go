package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dir is where rotated log files are written.
var Dir = "log"

func ensureLogDir() string {
	_ = os.MkdirAll(Dir, 0o755)
	return Dir
}

// NewLog tees JSON logs to stdout and to a rotated file named n under Dir.
func NewLog(n string) *zap.Logger {
	dir := ensureLogDir()

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	console := zapcore.Lock(os.Stdout)

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, n),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), console, zap.InfoLevel),
	)
	return zap.New(core)
}

var (
	accessMu         sync.RWMutex
	httpAccessLogger *zap.Logger
)

// accessLogger lazily opens http-access.log on first use.
func accessLogger() *zap.Logger {
	accessMu.RLock()
	l := httpAccessLogger
	accessMu.RUnlock()
	if l != nil {
		return l
	}
	accessMu.Lock()
	defer accessMu.Unlock()
	if httpAccessLogger == nil {
		httpAccessLogger = NewLog("http-access.log")
	}
	return httpAccessLogger
}

// SetAccessLogger lets tests/CLIs override the access logger.
func SetAccessLogger(l *zap.Logger) {
	if l != nil {
		accessMu.Lock()
		httpAccessLogger = l
		accessMu.Unlock()
	}
}
