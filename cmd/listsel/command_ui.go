package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"listsel/internal/app"
	"listsel/internal/config"
	"listsel/internal/logging"
	"listsel/internal/metrics"
	"listsel/internal/source"
	"listsel/internal/store"
)

type UICommand struct {
	stderr         io.Writer
	loadConfig     func() (config.Config, error)
	openRepository func(path string) (store.Repository, error)
	runUI          func(ctx context.Context, opts app.Options) error
	openUILog      func(level logging.Level) (logging.Logger, io.Closer, error)
}

func NewUICommand(
	stderr io.Writer,
	loadConfig func() (config.Config, error),
	openRepository func(path string) (store.Repository, error),
	runUI func(ctx context.Context, opts app.Options) error,
	openUILog func(level logging.Level) (logging.Logger, io.Closer, error),
) *UICommand {
	return &UICommand{
		stderr:         stderr,
		loadConfig:     loadConfig,
		openRepository: openRepository,
		runUI:          runUI,
		openUILog:      openUILog,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	items := fs.String("items", "", "item file (one item per line)")
	single := fs.Bool("single", false, "single selection mode")
	list := fs.String("list", "", "name the selection is stored under")
	watch := fs.Bool("watch", true, "reload the item file when it changes")
	metricsAddr := fs.String("metrics", "", "serve prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	itemsPath, err := resolveItemsPath(cfg, *items)
	if err != nil {
		return err
	}
	multiple := cfg.Multiple()
	if flagWasSet(fs, "single") {
		multiple = !*single
	}
	watchSource := cfg.WatchSource()
	if flagWasSet(fs, "watch") {
		watchSource = *watch
	}
	listName := cfg.ListName()
	if strings.TrimSpace(*list) != "" {
		listName = strings.TrimSpace(*list)
	}
	addr := cfg.MetricsAddress()
	if strings.TrimSpace(*metricsAddr) != "" {
		addr = strings.TrimSpace(*metricsAddr)
	}

	logger := logging.Nop()
	if c.openUILog != nil {
		uiLogger, closer, err := c.openUILog(logging.ParseLevel(cfg.LogLevel()))
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = uiLogger.With(logging.F("session", logging.NewSessionID()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	storePath, err := cfg.ResolveStorePath()
	if err != nil {
		return err
	}
	repo, err := c.openRepository(storePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	keybindingsPath, err := cfg.ResolveKeybindingsPath()
	if err != nil {
		return err
	}
	bindings, err := app.LoadKeybindings(ctx, store.NewFileKeybindingStore(keybindingsPath))
	if err != nil {
		return err
	}

	observer := metrics.NewObserver()
	if addr != "" {
		go func() {
			if err := observer.Serve(ctx, addr); err != nil {
				logger.Error("metrics server stopped", logging.F("addr", addr), logging.F("error", err))
			}
		}()
	}

	opts := app.Options{
		ItemsPath:     itemsPath,
		ListName:      listName,
		Multiple:      multiple,
		ValuePath:     cfg.ValuePath(),
		ReselectStale: cfg.ReselectStale(),
		Keybindings:   bindings,
		Repository:    repo,
		Logger:        logger,
		Observer:      observer,
	}
	if watchSource {
		if err := os.MkdirAll(filepath.Dir(itemsPath), 0o700); err != nil {
			return err
		}
		watcher, err := source.NewWatcher(itemsPath, cfg.Debounce(), logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
		opts.Reloads = watcher.Reloads()
	}

	logger.Info("ui starting",
		logging.F("items", itemsPath),
		logging.F("mode", modeName(multiple)),
		logging.F("watch", watchSource),
	)
	return c.runUI(ctx, opts)
}

func resolveItemsPath(cfg config.Config, flagValue string) (string, error) {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path, nil
	}
	return cfg.ResolveSourcePath()
}

func modeName(multiple bool) string {
	if multiple {
		return config.ModeMultiple
	}
	return config.ModeSingle
}

func openUILog(level logging.Level) (logging.Logger, io.Closer, error) {
	path, err := config.UILogPath()
	if err != nil {
		return nil, nil, err
	}
	return logging.OpenFile(path, level)
}
