package database

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationsSortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("SELECT 2;")},
		"m/0001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"m/0001_a.down.sql": {Data: []byte("SELECT 0;")},
		"m/README.md":       {Data: []byte("notes")},
		"m/nested/x.up.sql": {Data: []byte("SELECT 3;")},
	}

	names, err := ListMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, names)
}

func TestEmbeddedInventorySchema(t *testing.T) {
	names, err := ListMigrations(Migrations, MigrationsRoot)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_create_inventory.up.sql"}, names)

	data, err := fs.ReadFile(Migrations, MigrationsRoot+"/"+names[0])
	require.NoError(t, err)

	schema := string(data)
	for _, column := range []string{
		"equipment_id", "equipment_name", "category", "daily_rate", "max_rate", "status",
		"operator_cert_required", "min_insurance", "storage_location", "weight_class",
		"created_at", "updated_at",
	} {
		assert.Contains(t, schema, column)
	}
	assert.Contains(t, schema, "idx_inventory_status")
}

func TestApplyWithoutMigrationsIsNoop(t *testing.T) {
	m := NewMigrator(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := m.Apply(context.Background(), fstest.MapFS{"empty/.keep": {}}, "empty")
	assert.NoError(t, err)
}
