package content

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record in a collection has the given id.
var ErrNotFound = errors.New("item not found")

// Repository defines storage for the three content collections. Order is
// insertion order; Replace and Remove act on the first record whose id
// matches.
type Repository interface {
	List(ctx context.Context, c Collection) ([]Record, error)
	Add(ctx context.Context, c Collection, rec Record) error
	// Replace swaps the stored record with rec.ID() for rec and returns
	// the record it replaced.
	Replace(ctx context.Context, c Collection, rec Record) (Record, error)
	// Remove deletes the record with id and returns it.
	Remove(ctx context.Context, c Collection, id string) (Record, error)
}
