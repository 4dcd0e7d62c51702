package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

const selectEquipmentColumns = `
	SELECT equipment_id, equipment_name, category, daily_rate, max_rate, status,
	       COALESCE(operator_cert_required, ''), min_insurance, storage_location,
	       COALESCE(weight_class, '')
	FROM inventory
`

// PostgresStore keeps the inventory in the inventory table.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStore{
		db:  db,
		log: log.With("backend", BackendPostgres),
	}
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Equipment, error) {
	return s.query(ctx, selectEquipmentColumns+` ORDER BY equipment_id`)
}

func (s *PostgresStore) ListAvailable(ctx context.Context) ([]Equipment, error) {
	return s.query(ctx, selectEquipmentColumns+` WHERE status = $1 ORDER BY equipment_id`, string(StatusAvailable))
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Equipment, error) {
	row := s.db.QueryRowContext(ctx, selectEquipmentColumns+` WHERE equipment_id = $1`, id)

	eq, err := scanEquipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to fetch equipment", slog.String("equipment_id", id), slog.Any("error", err))
		return nil, fmt.Errorf("select equipment by id: %w", err)
	}

	return eq, nil
}

// TryReserve locks the row, checks availability and updates it in one transaction.
func (s *PostgresStore) TryReserve(ctx context.Context, id string, newStatus Status) (reserved bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin reservation: %w", err)
	}
	defer func() {
		if err != nil || !reserved {
			_ = tx.Rollback()
		}
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM inventory WHERE equipment_id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		s.log.Error("failed to lock equipment row", slog.String("equipment_id", id), slog.Any("error", err))
		return false, fmt.Errorf("lock equipment row: %w", err)
	}

	if Status(current) != StatusAvailable {
		s.log.Info("reservation rejected", "equipment_id", id, "status", current)
		return false, nil
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE inventory SET status = $1, updated_at = NOW() WHERE equipment_id = $2`,
		string(newStatus), id,
	); err != nil {
		return false, fmt.Errorf("update equipment status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reservation: %w", err)
	}

	s.log.Info("equipment reserved", "equipment_id", id, "status", newStatus)
	return true, nil
}

// Upsert inserts or refreshes items, used when seeding the table.
func (s *PostgresStore) Upsert(ctx context.Context, items []Equipment) error {
	const query = `
		INSERT INTO inventory (
			equipment_id, equipment_name, category, daily_rate, max_rate, status,
			operator_cert_required, min_insurance, storage_location, weight_class
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (equipment_id) DO UPDATE SET
			equipment_name = EXCLUDED.equipment_name,
			category = EXCLUDED.category,
			daily_rate = EXCLUDED.daily_rate,
			max_rate = EXCLUDED.max_rate,
			status = EXCLUDED.status,
			operator_cert_required = EXCLUDED.operator_cert_required,
			min_insurance = EXCLUDED.min_insurance,
			storage_location = EXCLUDED.storage_location,
			weight_class = EXCLUDED.weight_class,
			updated_at = NOW()
	`

	for _, eq := range items {
		if _, err := s.db.ExecContext(ctx, query,
			eq.ID, eq.Name, eq.Category, eq.DailyRate, eq.MaxRate, string(eq.Status),
			eq.OperatorCertRequired, eq.MinInsurance, eq.StorageLocation, eq.WeightClass,
		); err != nil {
			s.log.Error("failed to upsert equipment", slog.String("equipment_id", eq.ID), slog.Any("error", err))
			return fmt.Errorf("upsert equipment %s: %w", eq.ID, err)
		}
	}

	return nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Equipment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("failed to query inventory", slog.Any("error", err))
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, *eq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*Equipment, error) {
	var (
		eq     Equipment
		status string
	)

	if err := row.Scan(
		&eq.ID,
		&eq.Name,
		&eq.Category,
		&eq.DailyRate,
		&eq.MaxRate,
		&status,
		&eq.OperatorCertRequired,
		&eq.MinInsurance,
		&eq.StorageLocation,
		&eq.WeightClass,
	); err != nil {
		return nil, err
	}

	eq.Status = Status(status)
	return &eq, nil
}
