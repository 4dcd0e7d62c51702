// Package database provides helpers for managing database migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
)

// MigrationsRoot is the directory of Migrations holding the .up.sql files.
const MigrationsRoot = "migrations"

// Migrations is the inventory schema shipped with the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Migrator applies plain .sql file migrations in lexical order.
// Only .up.sql is supported and every statement must be idempotent.
type Migrator struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMigrator(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}

	return &Migrator{
		db:  db,
		log: log,
	}
}

// ApplyEmbedded applies the migrations compiled into the binary.
func (m *Migrator) ApplyEmbedded(ctx context.Context) error {
	return m.Apply(ctx, Migrations, MigrationsRoot)
}

// ApplyDir applies the migrations found in a directory on disk.
func (m *Migrator) ApplyDir(ctx context.Context, dir string) error {
	return m.Apply(ctx, os.DirFS(dir), ".")
}

// Apply finds *.up.sql under root in fsys and executes them sequentially,
// each in its own transaction.
func (m *Migrator) Apply(ctx context.Context, fsys fs.FS, root string) error {
	names, err := ListMigrations(fsys, root)
	if err != nil {
		return fmt.Errorf("list migrations in %q: %w", root, err)
	}

	baseLog := m.log.With(slog.String("dir", root))

	if len(names) == 0 {
		baseLog.Info("no .up.sql migrations found")
		return nil
	}

	for _, name := range names {
		if err := m.applyFile(ctx, baseLog, fsys, path.Join(root, name)); err != nil {
			return err
		}
	}

	baseLog.Info("migrations applied", slog.Int("count", len(names)))
	return nil
}

func (m *Migrator) applyFile(ctx context.Context, baseLog *slog.Logger, fsys fs.FS, file string) error {
	scopedLog := baseLog.With(slog.String("file", path.Base(file)))
	scopedLog.Info("applying migration")

	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read migration %q: %w", file, err)
	}

	statement := strings.TrimSpace(string(data))
	if len(statement) == 0 {
		scopedLog.Warn("migration is empty, skipping")
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for migration %q: %w", file, err)
	}

	if _, execErr := tx.ExecContext(ctx, statement); execErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			scopedLog.Error("rollback error", "error", rbErr)
		}
		return fmt.Errorf("execute migration %q: %w", file, execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit migration %q: %w", file, commitErr)
	}

	return nil
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".up.sql")
}

// ListMigrations returns all .up.sql files under root in lexical order.
func ListMigrations(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isUpMigration(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}
