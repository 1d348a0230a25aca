package backoffice

import (
	"context"
	"fmt"
	"strings"

	"pazaauto.id/internal/entity"
	"pazaauto.id/internal/store"
)

// table is the capability set of resources without relations.
type table[T any] struct {
	repo  *store.Table[T]
	setID func(*T, int64)
}

func (t *table[T]) Repository() entity.Repository[T, int64] { return t.repo }

func (t *table[T]) SetID(e *T, id int64) { t.setID(e, id) }

func (t *table[T]) Enrich(context.Context, *T) error { return nil }

// NewPositions is the position capability set.
func NewPositions(db *store.DB) entity.Capabilities[Position, int64] {
	return &table[Position]{
		repo:  store.NewTable[Position](db, positionSpec),
		setID: func(p *Position, id int64) { p.ID = id },
	}
}

// NewSuppliers is the supplier capability set.
func NewSuppliers(db *store.DB) entity.Capabilities[Supplier, int64] {
	return &table[Supplier]{
		repo:  store.NewTable[Supplier](db, supplierSpec),
		setID: func(s *Supplier, id int64) { s.ID = id },
	}
}

// Customers is the customer capability set. Search looks up plate numbers.
type Customers struct {
	table[Customer]
	db *store.DB
}

var _ entity.Searcher[Customer] = (*Customers)(nil)

func NewCustomers(db *store.DB) *Customers {
	return &Customers{
		table: table[Customer]{
			repo:  store.NewTable[Customer](db, customerSpec),
			setID: func(c *Customer, id int64) { c.ID = id },
		},
		db: db,
	}
}

// Search matches plate numbers by prefix, ignoring case and spaces.
func (c *Customers) Search(ctx context.Context, text string) ([]Customer, error) {
	plate := strings.ToUpper(strings.Join(strings.Fields(text), ""))
	if plate == "" {
		return c.repo.List(ctx)
	}
	rows, err := store.Select[Customer](ctx, c.db, `
		select id, plate_number, name, address, phone, email, brand, kind, city, notes, joined_on,
		       created_at, updated_at, created_by, updated_by
		from customers
		where upper(replace(plate_number, ' ', '')) like ?
		order by plate_number, id
	`, plate+"%")
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return rows, nil
}

// Vehicles is the vehicle capability set plus the brand and kind listings.
type Vehicles struct {
	table[Vehicle]
	db *store.DB
}

func NewVehicles(db *store.DB) *Vehicles {
	return &Vehicles{
		table: table[Vehicle]{
			repo:  store.NewTable[Vehicle](db, vehicleSpec),
			setID: func(v *Vehicle, id int64) { v.ID = id },
		},
		db: db,
	}
}

// Brands lists distinct non-empty brands in order.
func (v *Vehicles) Brands(ctx context.Context) ([]string, error) {
	brands, err := store.Select[string](ctx, v.db, `
		select distinct brand from vehicles where brand <> '' order by brand
	`)
	if err != nil {
		return nil, fmt.Errorf("select brands: %w", err)
	}
	return brands, nil
}

// Kinds lists distinct kinds, optionally restricted to a brand (case-insensitive).
func (v *Vehicles) Kinds(ctx context.Context, brand string) ([]string, error) {
	q := `select distinct kind from vehicles where kind <> ''`
	var args []any
	if brand = strings.TrimSpace(brand); brand != "" {
		q += ` and lower(brand) = lower(?)`
		args = append(args, brand)
	}
	kinds, err := store.Select[string](ctx, v.db, q+` order by kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("select kinds: %w", err)
	}
	return kinds, nil
}
