package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"martcli/internal/store"
)

// Table is one comma-delimited file holding fixed-arity records of a single
// entity type. There is no header row.
type Table struct {
	path  string
	arity int
}

func NewTable(path string, arity int) Table {
	return Table{path: path, arity: arity}
}

// ReadAll returns every record in file order. A missing file holds zero
// records.
func (t Table) ReadAll() ([][]string, error) {
	rows := make([][]string, 0, 64)
	err := t.Scan(func(_ int, row []string) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Scan calls fn for each record with the file line it starts on. A row whose
// field count differs from the arity stops the scan with a *store.ParseError.
func (t Table) Scan(fn func(line int, row []string) error) error {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return &store.ParseError{Source: filepath.Base(t.path), Line: csvErr.Line, Reason: csvErr.Err.Error()}
			}
			return err
		}
		line, _ := reader.FieldPos(0)
		if len(row) != t.arity {
			return &store.ParseError{
				Source: filepath.Base(t.path),
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", t.arity, len(row)),
			}
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func (t Table) Append(fields []string) error {
	if len(fields) != t.arity {
		return fmt.Errorf("%s: expected %d fields, got %d: %w", filepath.Base(t.path), t.arity, len(fields), store.ErrInvalidInput)
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(fields); err != nil {
		_ = f.Close()
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Overwrite replaces the whole file. Rows are written to a sibling temp file
// which is then renamed over the target.
func (t Table) Overwrite(rows [][]string) error {
	for _, row := range rows {
		if len(row) != t.arity {
			return fmt.Errorf("%s: expected %d fields, got %d: %w", filepath.Base(t.path), t.arity, len(row), store.ErrInvalidInput)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), "."+filepath.Base(t.path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(rows); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
