package inventory

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetByID when no unit has the requested id.
	ErrNotFound = errors.New("equipment not found")
)

// Store is the capability set every inventory backend provides.
//
// TryReserve is an atomic compare-and-set: the unit moves to newStatus only if
// it is currently AVAILABLE. A missing or already reserved unit yields false
// without an error; errors are reserved for backend failures.
type Store interface {
	ListAll(ctx context.Context) ([]Equipment, error)
	ListAvailable(ctx context.Context) ([]Equipment, error)
	GetByID(ctx context.Context, id string) (*Equipment, error)
	TryReserve(ctx context.Context, id string, newStatus Status) (bool, error)
}

// Backend names accepted by the configuration.
const (
	BackendFile     = "file"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)
