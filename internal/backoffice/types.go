// Package backoffice instantiates the generic entity service for each
// business resource of the workshop back office.
package backoffice

import (
	"time"

	"pazaauto.id/internal/store"
)

// Employee is a staff member. Roles are only read on create, where they
// seed the provisioned account.
type Employee struct {
	ID           int64    `db:"id" json:"id"`
	Name         string   `db:"name" json:"name" validate:"required,max=100"`
	Email        string   `db:"email" json:"email,omitempty" validate:"omitempty,email,max=100"`
	PositionID   *int64   `db:"position_id" json:"positionId,omitempty"`
	PositionName string   `db:"-" json:"positionName,omitempty"`
	Phone        string   `db:"phone" json:"phone,omitempty" validate:"max=20"`
	Address      string   `db:"address" json:"address,omitempty" validate:"max=500"`
	Roles        []string `db:"-" json:"roles,omitempty" validate:"dive,oneof=admin user"`
	store.Audit
}

// Position is a job title.
type Position struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=100"`
	store.Audit
}

// Customer is a vehicle owner.
type Customer struct {
	ID          int64      `db:"id" json:"id"`
	PlateNumber string     `db:"plate_number" json:"plateNumber" validate:"required,max=10"`
	Name        string     `db:"name" json:"name" validate:"required,max=100"`
	Address     string     `db:"address" json:"address,omitempty" validate:"max=500"`
	Phone       string     `db:"phone" json:"phone,omitempty" validate:"max=20"`
	Email       string     `db:"email" json:"email,omitempty" validate:"omitempty,email,max=100"`
	Brand       string     `db:"brand" json:"brand" validate:"required,max=50"`
	Kind        string     `db:"kind" json:"kind,omitempty" validate:"max=50"`
	City        string     `db:"city" json:"city,omitempty" validate:"max=100"`
	Notes       string     `db:"notes" json:"notes,omitempty" validate:"max=500"`
	JoinedOn    *time.Time `db:"joined_on" json:"joinedOn,omitempty"`
	store.Audit
}

// Vehicle is a catalogue entry of brand and kind.
type Vehicle struct {
	ID    int64  `db:"id" json:"id"`
	Brand string `db:"brand" json:"brand" validate:"required,max=50"`
	Kind  string `db:"kind" json:"kind,omitempty" validate:"max=50"`
	Notes string `db:"notes" json:"notes,omitempty" validate:"max=500"`
	store.Audit
}

// Supplier is a parts supplier.
type Supplier struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name" validate:"required,max=100"`
	Address       string `db:"address" json:"address,omitempty" validate:"max=500"`
	Phone         string `db:"phone" json:"phone,omitempty" validate:"max=20"`
	ContactPerson string `db:"contact_person" json:"contactPerson,omitempty" validate:"max=100"`
	store.Audit
}

func (e Employee) EntityID() int64 { return e.ID }
func (p Position) EntityID() int64 { return p.ID }
func (c Customer) EntityID() int64 { return c.ID }
func (v Vehicle) EntityID() int64  { return v.ID }
func (s Supplier) EntityID() int64 { return s.ID }
