package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/lock"
	"github.com/Proton-105/rental-agent/pkg/config"
)

// Seeder is implemented by backends that can bulk load equipment.
type Seeder interface {
	Seed(ctx context.Context, items []inventory.Equipment) error
}

// Backend is an opened inventory backend with the resources it holds.
type Backend struct {
	Name  string
	Store inventory.Store
	// DB is set for the postgres backend.
	DB *sql.DB
}

// Close releases the database pool, if any.
func (b *Backend) Close() error {
	if b == nil || b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// Seed bulk loads items when the backend supports it.
func (b *Backend) Seed(ctx context.Context, items []inventory.Equipment) error {
	switch s := b.Store.(type) {
	case *inventory.PostgresStore:
		return s.Upsert(ctx, items)
	case *inventory.DynamoStore:
		return s.Upsert(ctx, items)
	case *inventory.CSVStore:
		return s.Replace(ctx, items)
	default:
		return fmt.Errorf("backend %q cannot be seeded", b.Name)
	}
}

// OpenBackend connects the configured inventory backend. locker serialises
// read-modify-write cycles of the file and sheets backends.
func OpenBackend(ctx context.Context, cfg config.InventoryConfig, locker lock.Locker, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Backend {
	case inventory.BackendFile:
		return &Backend{
			Name:  cfg.Backend,
			Store: inventory.NewCSVStore(cfg.FilePath, locker, log),
		}, nil

	case inventory.BackendSheets:
		store, err := inventory.NewSheetsStore(ctx, inventory.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Range:           cfg.Sheets.Range,
			CredentialsFile: cfg.Sheets.CredentialsFile,
		}, locker, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Name: cfg.Backend, Store: store}, nil

	case inventory.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return &Backend{
			Name:  cfg.Backend,
			Store: inventory.NewPostgresStore(db, log),
			DB:    db,
		}, nil

	case inventory.BackendDynamoDB:
		client, err := inventory.NewDynamoClient(ctx, inventory.DynamoConfig{
			Table:           cfg.Dynamo.Table,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:  cfg.Backend,
			Store: inventory.NewDynamoStore(client, cfg.Dynamo.Table, log),
		}, nil
	}

	return nil, errors.New("unknown inventory backend " + cfg.Backend)
}
