package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	separatorLine = "---"
	valueDelim    = "|"
)

// Entry is one line of an item file. Entries are comparable, so equal
// lines are the same item to the selection engine.
type Entry struct {
	Label     string
	Value     string
	Separator bool
}

func (e Entry) IsSeparator() bool {
	return e.Separator
}

func (e Entry) String() string {
	if e.Separator {
		return separatorLine
	}
	if e.Value == "" || e.Value == e.Label {
		return e.Label
	}
	return e.Label + valueDelim + e.Value
}

// Key identifies the entry in persisted selections.
func (e Entry) Key() string {
	if e.Value != "" {
		return e.Value
	}
	return e.Label
}

// ParseLine reads one non-comment line. "label|value" sets both fields;
// a bare label is its own value.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}
	if line == separatorLine {
		return Entry{Label: separatorLine, Separator: true}, true
	}
	label, value, ok := strings.Cut(line, valueDelim)
	label = strings.TrimSpace(label)
	if !ok {
		return Entry{Label: label, Value: label}, true
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = label
	}
	if label == "" {
		label = value
	}
	return Entry{Label: label, Value: value}, true
}

func Parse(r io.Reader) ([]Entry, error) {
	out := make([]Entry, 0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if entry, ok := ParseLine(scanner.Text()); ok {
			out = append(out, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads the item file at path. A missing file is an empty list.
func Load(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open items: %w", err)
	}
	defer file.Close()
	entries, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	return entries, nil
}

// Save rewrites the item file through a temp file and rename.
func Save(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	file, err := os.CreateTemp(dir, ".items-*.txt")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()
	w := bufio.NewWriter(file)
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, entry.String()); err != nil {
			_ = file.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), path)
}
