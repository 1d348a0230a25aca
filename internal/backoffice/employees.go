package backoffice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pazaauto.id/internal/entity"
	"pazaauto.id/internal/obs"
	"pazaauto.id/internal/provision"
	"pazaauto.id/internal/store"
)

// Employees is the employee capability set. New employees get a login
// account through the provisioner, inside the insert transaction.
type Employees struct {
	db          *store.DB
	table       *store.Table[Employee]
	positions   *store.Table[Position]
	provisioner *provision.Provisioner
	log         *slog.Logger
}

var (
	_ entity.Capabilities[Employee, int64] = (*Employees)(nil)
	_ entity.CreateHook[Employee]          = (*Employees)(nil)
	_ entity.Merger[Employee]              = (*Employees)(nil)
)

// NewEmployees builds the capability set. provisioner may be nil.
func NewEmployees(db *store.DB, provisioner *provision.Provisioner) *Employees {
	return &Employees{
		db:          db,
		table:       store.NewTable[Employee](db, employeeSpec),
		positions:   store.NewTable[Position](db, positionSpec),
		provisioner: provisioner,
		log:         obs.Logger().With("component", "employees"),
	}
}

func (e *Employees) Repository() entity.Repository[Employee, int64] { return e.table }

func (e *Employees) SetID(emp *Employee, id int64) { emp.ID = id }

// Enrich resolves the position name.
func (e *Employees) Enrich(ctx context.Context, emp *Employee) error {
	if emp.PositionID == nil {
		return nil
	}
	pos, err := e.positions.Get(ctx, *emp.PositionID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("position %d: %w", *emp.PositionID, err)
	}
	emp.PositionName = pos.Name
	return nil
}

// AfterCreate provisions the employee's account.
func (e *Employees) AfterCreate(ctx context.Context, emp *Employee) error {
	if e.provisioner == nil {
		return nil
	}
	_, err := e.provisioner.Provision(ctx, provision.Employee{
		ID:    emp.ID,
		Name:  emp.Name,
		Email: emp.Email,
		Roles: emp.Roles,
	})
	return err
}

// Merge keeps stored values for fields the patch leaves empty.
func (e *Employees) Merge(dst *Employee, patch Employee) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Email != "" {
		dst.Email = patch.Email
	}
	if patch.PositionID != nil {
		id := *patch.PositionID
		dst.PositionID = &id
	}
	if patch.Phone != "" {
		dst.Phone = patch.Phone
	}
	if patch.Address != "" {
		dst.Address = patch.Address
	}
}

// ListUnregistered returns employees no account links to.
func (e *Employees) ListUnregistered(ctx context.Context) ([]Employee, error) {
	rows, err := store.Select[Employee](ctx, e.db, `
		select id, name, email, position_id, phone, address, created_at, updated_at, created_by, updated_by
		from employees e
		where not exists (select 1 from accounts a where a.employee_id = e.id)
		order by id
	`)
	if err != nil {
		return nil, fmt.Errorf("select unregistered employees: %w", err)
	}
	for i := range rows {
		if err := e.Enrich(ctx, &rows[i]); err != nil {
			e.log.Warn("enrichment failed", "employee_id", rows[i].ID, "error", err.Error())
		}
	}
	return rows, nil
}
