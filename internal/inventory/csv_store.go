package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Proton-105/rental-agent/internal/lock"
)

const csvLockKey = "inventory:csv"

// CSVStore keeps the inventory in a header-first CSV file.
// Every read-modify-write cycle holds the locker for the file.
type CSVStore struct {
	path   string
	locker lock.Locker
	log    *slog.Logger
}

// NewCSVStore returns a store over path. A nil locker serialises within the process only.
func NewCSVStore(path string, locker lock.Locker, log *slog.Logger) *CSVStore {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = slog.Default()
	}

	return &CSVStore{
		path:   path,
		locker: locker,
		log:    log.With("backend", BackendFile),
	}
}

func (s *CSVStore) ListAll(ctx context.Context) ([]Equipment, error) {
	release, err := s.locker.Acquire(ctx, csvLockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	items, _, err := s.read()
	return items, err
}

func (s *CSVStore) ListAvailable(ctx context.Context) ([]Equipment, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterAvailable(items), nil
}

func (s *CSVStore) GetByID(ctx context.Context, id string) (*Equipment, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if strings.EqualFold(items[i].ID, id) {
			eq := items[i]
			return &eq, nil
		}
	}

	return nil, ErrNotFound
}

func (s *CSVStore) TryReserve(ctx context.Context, id string, newStatus Status) (bool, error) {
	release, err := s.locker.Acquire(ctx, csvLockKey)
	if err != nil {
		return false, err
	}
	defer release()

	rows, err := s.readRows()
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	h, err := parseHeader(rows[0])
	if err != nil {
		return false, err
	}
	statusCol := h[ColumnStatus]

	for i, row := range rows[1:] {
		if !strings.EqualFold(h.cell(row, ColumnID), id) {
			continue
		}

		current := Status(strings.ToUpper(h.cell(row, ColumnStatus)))
		if current != StatusAvailable {
			s.log.Info("reservation rejected", "equipment_id", id, "status", current)
			return false, nil
		}

		for len(row) <= statusCol {
			row = append(row, "")
		}
		row[statusCol] = string(newStatus)
		rows[i+1] = row

		if err := s.writeRows(rows); err != nil {
			return false, err
		}

		s.log.Info("equipment reserved", "equipment_id", id, "status", newStatus)
		return true, nil
	}

	return false, nil
}

// Replace overwrites the file with items in canonical column order.
func (s *CSVStore) Replace(ctx context.Context, items []Equipment) error {
	release, err := s.locker.Acquire(ctx, csvLockKey)
	if err != nil {
		return err
	}
	defer release()

	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, Columns)
	for _, item := range items {
		rows = append(rows, encode(item))
	}

	return s.writeRows(rows)
}

func (s *CSVStore) read() ([]Equipment, header, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, nil, err
	}
	return decodeRows(rows)
}

func (s *CSVStore) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("inventory file %s: %w", s.path, err)
		}
		return nil, fmt.Errorf("open inventory file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse inventory file: %w", err)
	}

	return rows, nil
}

// writeRows replaces the file via temp file, fsync and rename so readers never see a partial write.
func (s *CSVStore) writeRows(rows [][]string) error {
	dir := filepath.Dir(s.path)

	tmpFile, err := os.CreateTemp(dir, "tmp-inventory-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmpFile)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace inventory file: %w", err)
	}

	return nil
}
