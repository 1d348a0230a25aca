package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pazaauto.id/internal/obs"
)

// Service is the generic CRUD and pagination algorithm.
type Service[T any, ID comparable] struct {
	name string
	caps Capabilities[T, ID]
	repo Repository[T, ID]
	tx   Transactor
	log  *slog.Logger
}

// NewService builds a service for the named resource. tx may be nil.
func NewService[T any, ID comparable](name string, caps Capabilities[T, ID], tx Transactor) *Service[T, ID] {
	return &Service[T, ID]{
		name: name,
		caps: caps,
		repo: caps.Repository(),
		tx:   tx,
		log:  obs.Logger().With("component", "entity", "resource", name),
	}
}

// Name is the resource name the service was built for.
func (s *Service[T, ID]) Name() string { return s.name }

// Create persists e and returns the stored form.
func (s *Service[T, ID]) Create(ctx context.Context, e *T) (T, error) {
	var zero T
	if e == nil {
		return zero, errors.New("entity: nil record")
	}
	hook, hasHook := s.caps.(CreateHook[T])
	insert := func(ctx context.Context) error {
		id, err := s.repo.Insert(ctx, e)
		if err != nil {
			return fmt.Errorf("insert %s: %w", s.name, err)
		}
		s.caps.SetID(e, id)
		if hasHook {
			if err := hook.AfterCreate(ctx, e); err != nil {
				return fmt.Errorf("after create %s: %w", s.name, err)
			}
		}
		return nil
	}
	var err error
	if hasHook && s.tx != nil {
		err = s.tx.WithinTx(ctx, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		return zero, err
	}
	return *e, nil
}

// FindByID returns the enriched record or ErrNotFound.
func (s *Service[T, ID]) FindByID(ctx context.Context, id ID) (T, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return e, err
	}
	s.enrich(ctx, &e)
	return e, nil
}

// Update merges patch onto the stored record and returns the result.
func (s *Service[T, ID]) Update(ctx context.Context, id ID, patch T) (T, error) {
	var zero T
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	merged := patch
	if m, ok := s.caps.(Merger[T]); ok {
		merged = current
		m.Merge(&merged, patch)
	}
	s.caps.SetID(&merged, id)
	if err := s.repo.Update(ctx, id, &merged); err != nil {
		return zero, err
	}
	return s.FindByID(ctx, id)
}

// Delete removes id. Deleting an absent id is not an error.
func (s *Service[T, ID]) Delete(ctx context.Context, id ID) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		s.log.Debug("delete of absent record", "id", id)
	}
	return nil
}

// FindAll lists every record without filtering or paging.
func (s *Service[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rows), nil
}

// FindPaginated filters, sorts and windows the listing.
func (s *Service[T, ID]) FindPaginated(ctx context.Context, req PageRequest) (PageResponse[T], error) {
	req = req.Normalize()
	rows, total, err := s.repo.Query(ctx, Query{
		Search:     req.Search,
		SortBy:     req.SortBy,
		Descending: req.Descending,
		Offset:     req.Offset(),
		Limit:      req.RowsPerPage,
	})
	if err != nil {
		return PageResponse[T]{}, err
	}
	if len(rows) > req.RowsPerPage {
		rows = rows[:req.RowsPerPage]
	}
	return PageResponse[T]{
		Rows:        s.enrichAll(ctx, rows),
		Page:        req.Page,
		RowsPerPage: req.RowsPerPage,
		TotalCount:  total,
	}, nil
}

// Search runs the entity's own lookup, or an unpaged filtered query.
func (s *Service[T, ID]) Search(ctx context.Context, text string) ([]T, error) {
	if searcher, ok := s.caps.(Searcher[T]); ok {
		rows, err := searcher.Search(ctx, text)
		if err != nil {
			return nil, err
		}
		return s.enrichAll(ctx, rows), nil
	}
	rows, _, err := s.repo.Query(ctx, Query{Search: PageRequest{Search: text}.Normalize().Search})
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rows), nil
}

func (s *Service[T, ID]) enrichAll(ctx context.Context, rows []T) []T {
	if rows == nil {
		return []T{}
	}
	for i := range rows {
		s.enrich(ctx, &rows[i])
	}
	return rows
}

func (s *Service[T, ID]) enrich(ctx context.Context, e *T) {
	if err := s.caps.Enrich(ctx, e); err != nil {
		s.log.Warn("enrichment failed", "error", err.Error())
	}
}
