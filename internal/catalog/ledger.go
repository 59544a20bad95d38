package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ledger is a flat file of one entry per line. Appends never rewrite existing
// content; removals rewrite the whole file without the matching lines.
type ledger struct {
	fs   afero.Fs
	path string
}

func (l *ledger) ensure() error {
	ok, err := afero.Exists(l.fs, l.path)
	if err != nil || ok {
		return err
	}
	return afero.WriteFile(l.fs, l.path, nil, 0o644)
}

// lines returns the non-blank lines, trimmed.
func (l *ledger) lines() ([]string, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

func (l *ledger) append(line string) error {
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("catalog: append %s: %w", l.path, err)
	}
	return f.Close()
}

// remove rewrites the ledger without the lines drop matches and returns how
// many were removed. The file is untouched when nothing matches.
func (l *ledger) remove(drop func(line string) bool) (int, error) {
	lines, err := l.lines()
	if err != nil {
		return 0, err
	}
	var b strings.Builder
	removed := 0
	for _, line := range lines {
		if drop(line) {
			removed++
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if removed == 0 {
		return 0, nil
	}
	tmp := l.path + ".tmp"
	if err := afero.WriteFile(l.fs, tmp, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("catalog: rewrite %s: %w", l.path, err)
	}
	if err := l.fs.Rename(tmp, l.path); err != nil {
		_ = l.fs.Remove(tmp)
		return 0, fmt.Errorf("catalog: rewrite %s: %w", l.path, err)
	}
	return removed, nil
}
