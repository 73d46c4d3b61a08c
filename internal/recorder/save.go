package recorder

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modularflow/mcp-ui-explorer/internal/model"
)

// Save serializes the macro package: macro.json, a generated replay
// script, a README summary, and a zip bundle of the directory. Returns
// the zip path. The in-memory event list is untouched, so a failed save
// can be retried.
func (s *Session) Save() (string, error) {
	s.mu.Lock()
	macro := *s.macro
	s.mu.Unlock()

	dir := s.PackageDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create package directory: %w", err)
	}

	if err := macro.SaveJSON(filepath.Join(dir, "macro.json")); err != nil {
		return "", err
	}
	if err := writeReplayScript(filepath.Join(dir, "replay.sh"), &macro); err != nil {
		return "", err
	}
	if err := writeReadme(filepath.Join(dir, "README.md"), &macro); err != nil {
		return "", err
	}

	zipPath := dir + ".zip"
	if err := zipDirectory(zipPath, dir); err != nil {
		return "", err
	}
	return zipPath, nil
}

// writeReplayScript mirrors the event stream as directly executable
// input-replay statements, with inter-event delays derived from
// consecutive timestamps.
func writeReplayScript(path string, macro *model.Macro) error {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# Replay of macro %q recorded %s.\n", macro.Name, macro.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("# Requires mcp-ui-explorer on PATH.\n\n")

	prev := 0.0
	if len(macro.Events) > 0 {
		prev = macro.Events[0].Timestamp
	}
	for _, ev := range macro.Events {
		if delay := ev.Timestamp - prev; delay > 0.01 {
			fmt.Fprintf(&b, "sleep %.2f\n", delay)
		}
		prev = ev.Timestamp

		switch ev.EventType {
		case model.EventMouseClick:
			fmt.Fprintf(&b, "mcp-ui-explorer input click --x %d --y %d --button %s\n",
				ev.Data.X, ev.Data.Y, ev.Data.Button)
		case model.EventMouseScroll:
			fmt.Fprintf(&b, "mcp-ui-explorer input scroll --x %d --y %d --dx %d --dy %d\n",
				ev.Data.X, ev.Data.Y, ev.Data.DX, ev.Data.DY)
		case model.EventKeyboardType:
			fmt.Fprintf(&b, "mcp-ui-explorer input type --text %s\n", shellQuote(ev.Data.Text))
		case model.EventKeyboardKey:
			fmt.Fprintf(&b, "mcp-ui-explorer input key --name %s\n", shellQuote(ev.Data.Key))
		case model.EventWait:
			fmt.Fprintf(&b, "sleep %.2f\n", ev.Data.Seconds)
		case model.EventStateMarker:
			fmt.Fprintf(&b, "# state: %s\n", ev.Data.State)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return fmt.Errorf("write replay script: %w", err)
	}
	return nil
}

// shellQuote single-quotes a string for POSIX sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// writeReadme generates the human-readable package summary.
func writeReadme(path string, macro *model.Macro) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Macro: %s\n\n", macro.Name)
	if macro.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", macro.Description)
	}
	fmt.Fprintf(&b, "Recorded: %s\n\n", macro.CreatedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Events\n\n")
	fmt.Fprintf(&b, "Total: %d over %.1fs\n\n", macro.Metadata.TotalEvents, macro.Metadata.Duration)
	types := make([]string, 0, len(macro.Metadata.EventCounts))
	for t := range macro.Metadata.EventCounts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "- %s: %d\n", t, macro.Metadata.EventCounts[t])
	}
	if len(macro.Metadata.ElementTypes) > 0 {
		fmt.Fprintf(&b, "\nUI element types detected: %s\n", strings.Join(macro.Metadata.ElementTypes, ", "))
	}

	b.WriteString("\n## Contents\n\n")
	b.WriteString("- `macro.json`: the event stream and metadata\n")
	b.WriteString("- `replay.sh`: standalone replay script\n")
	b.WriteString("- `screenshots/`: annotated evidence images\n")

	b.WriteString("\n## Usage\n\n")
	fmt.Fprintf(&b, "    mcp-ui-explorer play %s\n", "macro.json")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	return nil
}

// zipDirectory bundles dir into a zip archive at zipPath for
// distribution.
func zipDirectory(zipPath, dir string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	base := filepath.Base(dir)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(filepath.Join(base, rel)))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("zip package: %w", err)
	}
	// Close flushes the central directory; without it the archive is
	// unreadable.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}
