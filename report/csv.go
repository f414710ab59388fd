// Package report renders coverage results as the dashboard CSVs and the
// console summary
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	trackererrors "gho-tracker/pkg/errors"
)

// File is one CSV artifact: a header in field order, then one line per row
type File struct {
	Path   string
	Fields []string
	Rows   []map[string]string
}

// WriteAll writes every file or none of them. Each file is staged next to its
// destination and renamed into place only after all of them were written.
// Existing reports are moved aside first and restored if a later rename fails.
func WriteAll(files ...File) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stage(f)
		if err != nil {
			cleanup()
			return trackererrors.NewWriteError(f.Path, err)
		}
		staged = append(staged, tmp)
	}

	backups := make([]string, len(files))
	rollback := func(committed int) {
		for i := committed - 1; i >= 0; i-- {
			if backups[i] != "" {
				_ = os.Rename(backups[i], files[i].Path)
			} else {
				_ = os.Remove(files[i].Path)
			}
		}
	}

	for i, f := range files {
		bak, err := backup(f.Path, staged[i])
		if err != nil {
			rollback(i)
			cleanup()
			return trackererrors.NewWriteError(f.Path, err)
		}
		backups[i] = bak

		if err := os.Rename(staged[i], f.Path); err != nil {
			if bak != "" {
				_ = os.Rename(bak, f.Path)
			}
			rollback(i)
			cleanup()
			return trackererrors.NewWriteError(f.Path, err)
		}
	}

	for _, bak := range backups {
		if bak != "" {
			_ = os.Remove(bak)
		}
	}
	return nil
}

// backup moves an existing regular file at path aside and returns where it went.
// Anything else at path is left for the rename to fail on.
func backup(path, staged string) (string, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}

	bak := staged + ".bak"
	if err := os.Rename(path, bak); err != nil {
		return "", err
	}
	return bak, nil
}

func stage(f File) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	if err := writeCSV(tmp, f.Fields, f.Rows); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func writeCSV(f *os.File, fields []string, rows []map[string]string) error {
	w := csv.NewWriter(f)
	w.UseCRLF = true

	if err := w.Write(fields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	rec := make([]string, len(fields))
	for i, row := range rows {
		for j, field := range fields {
			rec[j] = row[field]
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	return w.Error()
}
