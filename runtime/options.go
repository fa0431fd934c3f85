package runtime

import (
	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/engine"
)

type options struct {
	logger           *zap.Logger
	maxCallStackSize int
	ctx              *engine.Context
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger for host callback failures and value
// conversion diagnostics. The package logger is used by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxCallStackSize limits the script call depth.
func WithMaxCallStackSize(n int) Option {
	return func(o *options) {
		o.maxCallStackSize = n
	}
}

// WithContext adopts an existing engine context instead of creating one.
// The Runtime does not free an adopted context or its engine runtime.
func WithContext(ctx *engine.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}
