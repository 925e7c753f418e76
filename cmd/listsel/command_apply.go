package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"listsel/internal/config"
	"listsel/internal/logging"
	"listsel/internal/selection"
	"listsel/internal/source"
)

const (
	defaultApplyValuePath = "Value"
	maxCellWidth          = 40
)

type ApplyCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.Config, error)
}

func NewApplyCommand(stdout, stderr io.Writer, loadConfig func() (config.Config, error)) *ApplyCommand {
	return &ApplyCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ApplyCommand) Run(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	items := fs.String("items", "", "item file (one item per line)")
	single := fs.Bool("single", false, "single selection mode")
	valuePath := fs.String("value-path", "", "dotted path used by ~value operations")
	verbose := fs.Bool("verbose", false, "log every committed batch to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("apply requires at least one operation")
	}
	ops := make([]applyOp, 0, fs.NArg())
	for _, raw := range fs.Args() {
		op, err := parseApplyOp(raw)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	itemsPath, err := resolveItemsPath(cfg, *items)
	if err != nil {
		return err
	}
	entries, err := source.Load(itemsPath)
	if err != nil {
		return err
	}
	multiple := cfg.Multiple()
	if flagWasSet(fs, "single") {
		multiple = !*single
	}
	path := strings.TrimSpace(*valuePath)
	if path == "" {
		path = cfg.ValuePath()
	}
	if path == "" {
		path = defaultApplyValuePath
	}
	level := logging.ParseLevel(cfg.LogLevel())
	if *verbose {
		level = logging.Debug
	}

	session := newApplySession(entries, selection.Options{
		Multiple:  multiple,
		ValuePath: path,
		Logger:    logging.New(c.stderr, level),
	})
	for _, op := range ops {
		change, err := session.apply(op)
		if err != nil {
			return fmt.Errorf("%s: %w", op.raw, err)
		}
		printChange(c.stdout, op, change, session.host)
	}
	return printSelectionTable(c.stdout, session.host)
}

type applyOpKind uint8

const (
	applyOpSelect applyOpKind = iota
	applyOpUnselect
	applyOpSelectJust
	applyOpSelectValue
	applyOpSelectIndex
	applyOpClear
)

type applyOp struct {
	kind  applyOpKind
	arg   string
	index int
	raw   string
}

func parseApplyOp(raw string) (applyOp, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "!" {
		return applyOp{kind: applyOpClear, raw: trimmed}, nil
	}
	if len(trimmed) < 2 {
		return applyOp{}, fmt.Errorf("invalid operation %q", raw)
	}
	op := applyOp{arg: strings.TrimSpace(trimmed[1:]), raw: trimmed}
	switch trimmed[0] {
	case '+':
		op.kind = applyOpSelect
	case '-':
		op.kind = applyOpUnselect
	case '=':
		op.kind = applyOpSelectJust
	case '~':
		op.kind = applyOpSelectValue
	case '@':
		index, err := strconv.Atoi(op.arg)
		if err != nil {
			return applyOp{}, fmt.Errorf("invalid index in %q: %w", raw, err)
		}
		op.kind = applyOpSelectIndex
		op.index = index
	default:
		return applyOp{}, fmt.Errorf("invalid operation %q", raw)
	}
	if op.arg == "" {
		return applyOp{}, fmt.Errorf("invalid operation %q", raw)
	}
	return op, nil
}

type applySession struct {
	list *selection.List
	host *selection.Host
}

func newApplySession(entries []source.Entry, opts selection.Options) *applySession {
	items := make([]any, len(entries))
	for i, entry := range entries {
		items[i] = entry
	}
	list := selection.NewList(items...)
	host := selection.NewHost(list, opts)
	list.Subscribe(host.HandleChange)
	return &applySession{list: list, host: host}
}

// resolve maps an operation argument to a list entry by label, key or full
// line. Unknown arguments become new entries, which selection defers.
func (s *applySession) resolve(arg string) source.Entry {
	for i := 0; i < s.list.Len(); i++ {
		entry, ok := s.list.At(i).(source.Entry)
		if !ok || entry.IsSeparator() {
			continue
		}
		if entry.Label == arg || entry.Key() == arg || entry.String() == arg {
			return entry
		}
	}
	entry, _ := source.ParseLine(arg)
	return entry
}

func (s *applySession) apply(op applyOp) (selection.Change, error) {
	h := s.host
	switch op.kind {
	case applyOpSelect:
		entry := s.resolve(op.arg)
		if !h.Multiple() {
			return h.SetSelectedItem(entry), nil
		}
		return h.SelectedItems().Add(entry)
	case applyOpUnselect:
		entry := s.resolve(op.arg)
		if !h.Multiple() {
			if current, ok := h.SelectedItem(); ok && selection.ItemsEqual(current, entry) {
				return h.SetSelectedItem(nil), nil
			}
			return selection.Change{}, nil
		}
		return h.SelectedItems().Remove(entry)
	case applyOpSelectJust:
		return h.SetSelectedItem(s.resolve(op.arg)), nil
	case applyOpSelectValue:
		return h.SetSelectedValue(op.arg), nil
	case applyOpSelectIndex:
		return h.SetSelectedIndex(op.index)
	case applyOpClear:
		return h.UnselectAll(), nil
	default:
		return selection.Change{}, fmt.Errorf("unsupported operation %q", op.raw)
	}
}

func printChange(w io.Writer, op applyOp, change selection.Change, host *selection.Host) {
	if change.Empty() {
		line := fmt.Sprintf("%s: no change", op.raw)
		if deferred := len(host.Batch().Deferred()); deferred > 0 {
			line += fmt.Sprintf(" (%d deferred)", deferred)
		}
		fmt.Fprintln(w, line)
		return
	}
	parts := make([]string, 0, len(change.Removed)+len(change.Added))
	for _, id := range change.Removed {
		parts = append(parts, "-"+describeIdentity(id))
	}
	for _, id := range change.Added {
		parts = append(parts, "+"+describeIdentity(id))
	}
	fmt.Fprintf(w, "%s: %s\n", op.raw, strings.Join(parts, " "))
}

func describeIdentity(id selection.Identity) string {
	label := fmt.Sprint(id.Item())
	if entry, ok := id.Item().(source.Entry); ok {
		label = entry.Label
	}
	if id.Index() < 0 {
		return label
	}
	return fmt.Sprintf("%s[%d]", label, id.Index())
}

func printSelectionTable(w io.Writer, host *selection.Host) error {
	rows := make([][]string, 0, host.SelectedCount())
	for i, id := range host.Selected() {
		entry, _ := id.Item().(source.Entry)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(id.Index()),
			truncateCell(entry.Label),
			truncateCell(entry.Key()),
		})
	}
	for _, item := range host.Batch().Deferred() {
		entry, _ := item.(source.Entry)
		rows = append(rows, []string{"-", "deferred", truncateCell(entry.Label), truncateCell(entry.Key())})
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "INDEX", "LABEL", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	mode := config.ModeMultiple
	if !host.Multiple() {
		mode = config.ModeSingle
	}
	_, err := fmt.Fprintf(w, "mode=%s selected=%d selected_index=%d\n", mode, host.SelectedCount(), host.SelectedIndex())
	return err
}

func truncateCell(value string) string {
	return runewidth.Truncate(value, maxCellWidth, "…")
}
