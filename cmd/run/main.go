package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	var (
		expr        = flag.String("e", "", "Evaluate expression and print the result")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		configFile  = flag.String("config", "", "Path to config file (default ./"+defaultConfigFile+" if present)")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: run [-config file] [-v] [-e expr] [script.js ...]")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       run < script.js")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configFile, *expr, flag.Args(), *interactive, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, expr string, files []string, interactive, verbose bool) error {
	path, required := configFile, true
	if path == "" {
		path, required = defaultConfigFile, false
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Log, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !interactive && expr == "" && len(files) == 0 {
		interactive = term.IsTerminal(int(os.Stdin.Fd()))
		if !interactive {
			return runStdin(cfg, log)
		}
	}

	if interactive {
		return runInteractive(cfg, log)
	}

	r, err := newRunner(cfg, log, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, file := range files {
		if _, err := r.evalFile(file, false); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}

	if expr != "" {
		out, err := r.eval(expr, "<eval>", false)
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return nil
}

func runStdin(cfg *Config, log *zap.Logger) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	r, err := newRunner(cfg, log, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = r.eval(string(src), "<stdin>", false)
	return err
}
