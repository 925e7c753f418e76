package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"listsel/internal/config"
	"listsel/internal/store"
)

type HistoryCommand struct {
	stdout         io.Writer
	stderr         io.Writer
	loadConfig     func() (config.Config, error)
	openRepository func(path string) (store.Repository, error)
}

func NewHistoryCommand(
	stdout, stderr io.Writer,
	loadConfig func() (config.Config, error),
	openRepository func(path string) (store.Repository, error),
) *HistoryCommand {
	return &HistoryCommand{
		stdout:         stdout,
		stderr:         stderr,
		loadConfig:     loadConfig,
		openRepository: openRepository,
	}
}

func (c *HistoryCommand) Run(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	list := fs.String("list", "", "list name (defaults to store.list)")
	limit := fs.Int("limit", 20, "number of entries to show")
	lists := fs.Bool("lists", false, "print the names of stored lists")
	forget := fs.Bool("forget", false, "delete the stored selection of the list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	storePath, err := cfg.ResolveStorePath()
	if err != nil {
		return err
	}
	repo, err := c.openRepository(storePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	listName := cfg.ListName()
	if strings.TrimSpace(*list) != "" {
		listName = strings.TrimSpace(*list)
	}

	switch {
	case *lists:
		names, err := repo.Selections().Lists(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(c.stdout, name)
		}
		return nil
	case *forget:
		if err := repo.Selections().Delete(ctx, listName); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "ok")
		return nil
	}

	snapshot, ok, err := repo.Selections().Load(ctx, listName)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(c.stdout, "%s (%s): %s\n", listName, snapshot.Mode, strings.Join(snapshot.Items, ", "))
	}
	entries, err := repo.History().Recent(ctx, listName, *limit)
	if err != nil {
		return err
	}
	printHistory(c.stdout, entries)
	return nil
}

func printHistory(output io.Writer, entries []store.HistoryEntry) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "SEQ\tAT\tADDED\tREMOVED")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
			entry.Seq,
			entry.At.Local().Format(time.DateTime),
			joinOrDash(entry.Added),
			joinOrDash(entry.Removed),
		)
	}
	_ = writer.Flush()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
