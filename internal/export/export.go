// Package export writes audit snapshots of the pipeline's intermediate
// stages. Snapshots are artifacts for operators, never control state: the
// pipeline reads nothing back from them.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"usermigrate/internal/schema"
	"usermigrate/pkg/records"
)

// Writer writes snapshots into a directory, one file per stage.
type Writer struct {
	Dir string
}

// Raw dumps a raw batch as JSON, keyed by source identifier.
func (w *Writer) Raw(name string, batch map[string]records.Record) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return w.writeJSON(name+".json", batch)
}

// Users dumps transformed users as both CSV and JSON. The two files are
// written concurrently; the first failure wins.
func (w *Writer) Users(name string, users []*schema.User) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error { return w.writeJSON(name+".json", users) })
	g.Go(func() error { return w.writeCSV(name+".csv", users) })
	return g.Wait()
}

func (w *Writer) writeJSON(file string, v any) error {
	f, err := os.Create(filepath.Join(w.Dir, file))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export %s: %w", file, err)
	}
	return f.Close()
}

func (w *Writer) writeCSV(file string, users []*schema.User) error {
	f, err := os.Create(filepath.Join(w.Dir, file))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(schema.Columns); err != nil {
		return fmt.Errorf("export %s: %w", file, err)
	}
	for _, u := range users {
		row := u.Row()
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = renderCell(v)
		}
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("export %s: %w", file, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export %s: %w", file, err)
	}
	return f.Close()
}

func renderCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case []string:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
