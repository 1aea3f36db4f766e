package ports

import "go.heddle.dev/heddle/internal/core/domain"

// LockStore defines the interface for persisting and retrieving lock
// artifacts.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockStore interface {
	// Read loads the lock artifact at path.
	// Returns nil, nil if no artifact exists there.
	Read(path string) (*domain.Lockfile, error)

	// Write persists the lock artifact atomically. Readers never observe a
	// partially written file.
	Write(path string, lock *domain.Lockfile) error
}
