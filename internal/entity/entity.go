// Package entity implements paginated CRUD once for every business resource.
//
// A resource plugs in by implementing Capabilities; the optional CreateHook,
// Merger and Searcher interfaces extend the behaviour of Service.
package entity

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the target record does not exist.
var ErrNotFound = errors.New("entity: not found")

// Repository is the record store for one entity type.
type Repository[T any, ID comparable] interface {
	// Insert stores e and returns the identifier assigned by the store.
	Insert(ctx context.Context, e *T) (ID, error)
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, id ID) (T, error)
	// Update writes the mutable fields of e. It returns ErrNotFound when id is absent.
	Update(ctx context.Context, id ID, e *T) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id ID) (bool, error)
	List(ctx context.Context) ([]T, error)
	// Query filters, sorts and windows rows and returns the filtered total.
	Query(ctx context.Context, q Query) ([]T, int64, error)
}

// Capabilities is implemented by each entity-specific service.
type Capabilities[T any, ID comparable] interface {
	Repository() Repository[T, ID]
	SetID(e *T, id ID)
	// Enrich resolves related display values. Failures never abort a listing.
	Enrich(ctx context.Context, e *T) error
}

// CreateHook runs after a successful insert, inside the same transaction
// when a Transactor is configured.
type CreateHook[T any] interface {
	AfterCreate(ctx context.Context, e *T) error
}

// Merger applies the changed fields of patch onto dst.
type Merger[T any] interface {
	Merge(dst *T, patch T)
}

// Searcher provides an entity-specific free-text lookup.
type Searcher[T any] interface {
	Search(ctx context.Context, text string) ([]T, error)
}

// Transactor runs fn in a transactional scope carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
