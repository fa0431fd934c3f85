package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wxiaoguang/quickjs-jsi/errors"
	"github.com/wxiaoguang/quickjs-jsi/jsi"
	"github.com/wxiaoguang/quickjs-jsi/runtime"
)

// runner owns one script runtime with the CLI globals installed.
type runner struct {
	rt  *runtime.Runtime
	log *zap.Logger
}

func newRunner(cfg *Config, log *zap.Logger, out, errOut io.Writer) (*runner, error) {
	rt, err := runtime.New(
		runtime.WithLogger(log),
		runtime.WithMaxCallStackSize(cfg.Runtime.MaxCallStackSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}

	r := &runner{rt: rt, log: log}
	if err := installGlobals(rt, out, errOut); err != nil {
		r.Close()
		return nil, fmt.Errorf("install globals: %w", err)
	}

	for _, path := range cfg.Preload {
		if _, err := r.evalFile(path, false); err != nil {
			r.Close()
			return nil, fmt.Errorf("preload %s: %w", path, err)
		}
	}
	return r, nil
}

// eval runs src and renders its completion value. Undefined renders as an
// empty string.
func (r *runner) eval(src, name string, quote bool) (string, error) {
	v, err := r.rt.EvaluateJavaScript(jsi.StringBuffer(src), name)
	if err != nil {
		return "", err
	}
	defer v.Release()

	if v.IsUndefined() {
		return "", nil
	}
	return describe(r.rt, v, quote)
}

func (r *runner) evalFile(path string, quote bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := errors.KindInvalidInput
		if os.IsNotExist(err) {
			kind = errors.KindNotFound
		}
		return "", errors.New(errors.PhaseEval, kind).Cause(err).Detail("read %s", path).Build()
	}
	r.log.Debug("evaluating script", zap.String("path", path), zap.Int("size", len(data)))
	return r.eval(string(data), path, quote)
}

func (r *runner) Close() {
	if err := r.rt.Close(); err != nil {
		r.log.Warn("runtime closed with errors", zap.Error(err))
	}
}
