package main

import (
	"context"
	"io"
	"os"

	"listsel/internal/app"
	"listsel/internal/config"
	"listsel/internal/logging"
	"listsel/internal/store"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout         io.Writer
	stderr         io.Writer
	loadConfig     func() (config.Config, error)
	openRepository func(path string) (store.Repository, error)
	runUI          func(ctx context.Context, opts app.Options) error
	openUILog      func(level logging.Level) (logging.Logger, io.Closer, error)
	version        string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:         stdout,
		stderr:         stderr,
		loadConfig:     config.Load,
		openRepository: store.NewBboltRepository,
		runUI:          app.Run,
		openUILog:      openUILog,
		version:        buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"ui":      NewUICommand(wiring.stderr, wiring.loadConfig, wiring.openRepository, wiring.runUI, wiring.openUILog),
		"apply":   NewApplyCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"history": NewHistoryCommand(wiring.stdout, wiring.stderr, wiring.loadConfig, wiring.openRepository),
		"config":  NewConfigCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"version": NewVersionCommand(wiring.stdout, wiring.version),
	}
}
