package backoffice

import (
	"pazaauto.id/internal/entity"
	"pazaauto.id/internal/provision"
	"pazaauto.id/internal/store"
)

// Resource names, also used as URL segments and permission prefixes.
const (
	ResourceEmployees = "employees"
	ResourcePositions = "positions"
	ResourceCustomers = "customers"
	ResourceVehicles  = "vehicles"
	ResourceSuppliers = "suppliers"
)

// Catalog holds one entity service per resource.
type Catalog struct {
	Employees *entity.Service[Employee, int64]
	Positions *entity.Service[Position, int64]
	Customers *entity.Service[Customer, int64]
	Vehicles  *entity.Service[Vehicle, int64]
	Suppliers *entity.Service[Supplier, int64]

	EmployeeDirectory *Employees
	VehicleCatalog    *Vehicles
}

// NewCatalog wires every resource to db. provisioner may be nil.
func NewCatalog(db *store.DB, provisioner *provision.Provisioner) *Catalog {
	employees := NewEmployees(db, provisioner)
	vehicles := NewVehicles(db)
	return &Catalog{
		Employees:         entity.NewService[Employee, int64](ResourceEmployees, employees, db),
		Positions:         entity.NewService[Position, int64](ResourcePositions, NewPositions(db), db),
		Customers:         entity.NewService[Customer, int64](ResourceCustomers, NewCustomers(db), db),
		Vehicles:          entity.NewService[Vehicle, int64](ResourceVehicles, vehicles, db),
		Suppliers:         entity.NewService[Supplier, int64](ResourceSuppliers, NewSuppliers(db), db),
		EmployeeDirectory: employees,
		VehicleCatalog:    vehicles,
	}
}
