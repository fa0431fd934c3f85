package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/resource"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the engine's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger replaces the engine's logger. Call it before creating runtimes.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// debugf is a no-op debug helper. Enable by setting debug = true.
var debug = false

func debugf(format string, args ...any) {
	if debug {
		Logger().Sugar().Debugf(format, args...)
	}
}

// dropLogger reports freed value and atom slots at debug level.
type dropLogger struct {
	msg string
}

func (l dropLogger) OnResourceEvent(e resource.Event) {
	if e.Type != resource.EventDropped {
		return
	}
	if ce := Logger().Check(zap.DebugLevel, l.msg); ce != nil {
		ce.Write(zap.Uint64("handle", uint64(e.Handle)))
	}
}
