package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Proton-105/rental-agent/internal/lock"
)

const (
	sheetsLockKey     = "inventory:sheets"
	defaultSheetRange = "Inventory!A:J"
	valueInputRaw     = "RAW"
)

// SheetsConfig locates the inventory worksheet.
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
}

// valuesAPI is the subset of the Sheets values service the store needs.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
}

type sheetsValues struct {
	svc *sheets.Service
}

func (v sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v sheetsValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	_, err := v.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return err
}

// SheetsStore reads and updates the inventory kept in a Google spreadsheet.
type SheetsStore struct {
	api    valuesAPI
	cfg    SheetsConfig
	locker lock.Locker
	log    *slog.Logger
}

// NewSheetsStore authenticates with the service account file when one is
// configured, otherwise with application default credentials.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, locker lock.Locker, log *slog.Logger) (*SheetsStore, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return newSheetsStore(sheetsValues{svc: svc}, cfg, locker, log), nil
}

func newSheetsStore(api valuesAPI, cfg SheetsConfig, locker lock.Locker, log *slog.Logger) *SheetsStore {
	if cfg.Range == "" {
		cfg.Range = defaultSheetRange
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = slog.Default()
	}

	return &SheetsStore{
		api:    api,
		cfg:    cfg,
		locker: locker,
		log:    log.With("backend", BackendSheets),
	}
}

func (s *SheetsStore) ListAll(ctx context.Context) ([]Equipment, error) {
	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	items, _, err := decodeRows(rows)
	return items, err
}

func (s *SheetsStore) ListAvailable(ctx context.Context) ([]Equipment, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterAvailable(items), nil
}

func (s *SheetsStore) GetByID(ctx context.Context, id string) (*Equipment, error) {
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

func (s *SheetsStore) TryReserve(ctx context.Context, id string, newStatus Status) (bool, error) {
	release, err := s.locker.Acquire(ctx, sheetsLockKey)
	if err != nil {
		return false, err
	}
	defer release()

	rows, err := s.fetch(ctx)
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

	for i, row := range rows[1:] {
		if !strings.EqualFold(h.cell(row, ColumnID), id) {
			continue
		}

		current := Status(strings.ToUpper(h.cell(row, ColumnStatus)))
		if current != StatusAvailable {
			s.log.Info("reservation rejected", "equipment_id", id, "status", current)
			return false, nil
		}

		// The header occupies the first row of the range.
		col, firstRow := rangeOrigin(s.cfg.Range)
		cell := fmt.Sprintf("%s!%s%d", sheetName(s.cfg.Range), columnLetter(col+h[ColumnStatus]), firstRow+i+1)
		if err := s.api.Update(ctx, s.cfg.SpreadsheetID, cell, [][]interface{}{{string(newStatus)}}); err != nil {
			return false, fmt.Errorf("update status cell %s: %w", cell, err)
		}

		s.log.Info("equipment reserved", "equipment_id", id, "status", newStatus, "cell", cell)
		return true, nil
	}

	return false, nil
}

func (s *SheetsStore) fetch(ctx context.Context) ([][]string, error) {
	values, err := s.api.Get(ctx, s.cfg.SpreadsheetID, s.cfg.Range)
	if err != nil {
		return nil, fmt.Errorf("read sheet range %s: %w", s.cfg.Range, err)
	}

	rows := make([][]string, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}

	return rows, nil
}

func sheetName(rng string) string {
	if i := strings.Index(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return rng
}

// rangeOrigin returns the zero-based column and one-based row of the range's
// top-left cell. "Inventory!B3:K" gives (1, 3), "Inventory!A:J" gives (0, 1).
func rangeOrigin(rng string) (col, row int) {
	i := strings.Index(rng, "!")
	if i < 0 {
		return 0, 1
	}
	ref := rng[i+1:]
	if j := strings.Index(ref, ":"); j >= 0 {
		ref = ref[:j]
	}
	ref = strings.ToUpper(strings.ReplaceAll(ref, "$", ""))

	n := 0
	for n < len(ref) && ref[n] >= 'A' && ref[n] <= 'Z' {
		col = col*26 + int(ref[n]-'A'+1)
		n++
	}
	for ; n < len(ref) && ref[n] >= '0' && ref[n] <= '9'; n++ {
		row = row*10 + int(ref[n]-'0')
	}

	if col > 0 {
		col--
	}
	if row == 0 {
		row = 1
	}
	return col, row
}

// columnLetter converts a zero-based column index to A1 notation.
func columnLetter(index int) string {
	letters := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		letters = string(rune('A'+(n-1)%26)) + letters
	}
	return letters
}
