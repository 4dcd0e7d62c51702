package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// Column headers used by the tabular backends (CSV file and spreadsheet).
const (
	ColumnID                   = "Equipment ID"
	ColumnName                 = "Equipment Name"
	ColumnCategory             = "Category"
	ColumnDailyRate            = "Daily Rate"
	ColumnMaxRate              = "Max Rate"
	ColumnStatus               = "Status"
	ColumnOperatorCertRequired = "Operator Cert Required"
	ColumnMinInsurance         = "Min Insurance"
	ColumnStorageLocation      = "Storage Location"
	ColumnWeightClass          = "Weight Class"
)

// Columns is the canonical column order written by the tabular backends.
var Columns = []string{
	ColumnID,
	ColumnName,
	ColumnCategory,
	ColumnDailyRate,
	ColumnMaxRate,
	ColumnStatus,
	ColumnOperatorCertRequired,
	ColumnMinInsurance,
	ColumnStorageLocation,
	ColumnWeightClass,
}

// header maps column names to positions within a row.
type header map[string]int

func parseHeader(row []string) (header, error) {
	h := make(header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{ColumnID, ColumnStatus} {
		if _, ok := h[required]; !ok {
			return nil, fmt.Errorf("inventory header is missing column %q", required)
		}
	}

	return h, nil
}

func (h header) cell(row []string, column string) string {
	i, ok := h[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) decode(row []string) (Equipment, error) {
	eq := Equipment{
		ID:                   h.cell(row, ColumnID),
		Name:                 h.cell(row, ColumnName),
		Category:             h.cell(row, ColumnCategory),
		Status:               Status(strings.ToUpper(h.cell(row, ColumnStatus))),
		OperatorCertRequired: h.cell(row, ColumnOperatorCertRequired),
		StorageLocation:      h.cell(row, ColumnStorageLocation),
		WeightClass:          h.cell(row, ColumnWeightClass),
	}

	var err error
	if eq.DailyRate, err = parseAmount(h.cell(row, ColumnDailyRate)); err != nil {
		return Equipment{}, fmt.Errorf("equipment %s: daily rate: %w", eq.ID, err)
	}
	if eq.MaxRate, err = parseAmount(h.cell(row, ColumnMaxRate)); err != nil {
		return Equipment{}, fmt.Errorf("equipment %s: max rate: %w", eq.ID, err)
	}
	if eq.MinInsurance, err = parseAmount(h.cell(row, ColumnMinInsurance)); err != nil {
		return Equipment{}, fmt.Errorf("equipment %s: min insurance: %w", eq.ID, err)
	}

	return eq, nil
}

// encode renders eq in canonical column order.
func encode(eq Equipment) []string {
	return []string{
		eq.ID,
		eq.Name,
		eq.Category,
		formatAmount(eq.DailyRate),
		formatAmount(eq.MaxRate),
		string(eq.Status),
		eq.OperatorCertRequired,
		formatAmount(eq.MinInsurance),
		eq.StorageLocation,
		eq.WeightClass,
	}
}

// parseAmount accepts plain numbers as well as "$1,500.00" style cells.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decodeRows turns a header-first table into equipment records, skipping blank rows.
func decodeRows(rows [][]string) ([]Equipment, header, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	h, err := parseHeader(rows[0])
	if err != nil {
		return nil, nil, err
	}

	items := make([]Equipment, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if h.cell(row, ColumnID) == "" {
			continue
		}
		eq, err := h.decode(row)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, eq)
	}

	return items, h, nil
}
