// Package store defines the GardenStore interface for persisting garden state
// and provides memory, file, SQLite, and S3 implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/nvandessel/verdant/internal/models"
)

// ErrNotFound is returned by Load when no garden exists for an id.
var ErrNotFound = errors.New("garden not found")

// ErrNilState is returned by Save when given a nil garden.
var ErrNilState = errors.New("nil garden state")

// GardenStore is the persistence boundary for garden state.
// Implementations store each garden as one encoded record so a Save is
// entirely applied or not at all.
type GardenStore interface {
	// Load returns the garden with id, or ErrNotFound.
	Load(ctx context.Context, id string) (*models.GardenState, error)

	// Save writes the full garden state, replacing any previous record.
	Save(ctx context.Context, state *models.GardenState) error

	// Delete removes a garden. Deleting a missing garden is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored gardens, sorted.
	List(ctx context.Context) ([]string, error)

	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateID checks that a garden id is safe to use as a file name or object key.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid garden id %q: use 1-64 letters, digits, '-' or '_'", id)
	}
	return nil
}
