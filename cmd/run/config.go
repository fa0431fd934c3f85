package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wxiaoguang/quickjs-jsi/errors"
)

const defaultConfigFile = "qjsi.toml"

// Config is the qjsi.toml file.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Runtime RuntimeConfig `toml:"runtime"`
	Preload []string      `toml:"preload"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type RuntimeConfig struct {
	MaxCallStackSize int `toml:"max_call_stack_size"`
}

// loadConfig reads path. A missing file is only an error when required is
// set; otherwise the defaults are returned.
func loadConfig(path string, required bool) (*Config, error) {
	cfg := &Config{Log: LogConfig{Level: "warn"}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, errors.Config(path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Config(path, err)
	}
	if cfg.Runtime.MaxCallStackSize < 0 {
		return nil, errors.Config(path, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("runtime", "max_call_stack_size").
			Value(cfg.Runtime.MaxCallStackSize).
			Detail("must not be negative").
			Build())
	}
	return cfg, nil
}

func buildLogger(cfg LogConfig, verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}
