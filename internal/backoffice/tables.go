package backoffice

import "pazaauto.id/internal/store"

var (
	employeeSpec = store.TableSpec{
		Name:       "employees",
		Columns:    []string{"name", "email", "position_id", "phone", "address"},
		Searchable: []string{"name", "email"},
		Sortable:   map[string]string{"id": "id", "name": "name", "email": "email", "phone": "phone"},
	}
	positionSpec = store.TableSpec{
		Name:       "positions",
		Columns:    []string{"name"},
		Searchable: []string{"name"},
		Sortable:   map[string]string{"id": "id", "name": "name"},
	}
	customerSpec = store.TableSpec{
		Name:       "customers",
		Columns:    []string{"plate_number", "name", "address", "phone", "email", "brand", "kind", "city", "notes", "joined_on"},
		Searchable: []string{"plate_number", "name", "phone", "brand"},
		Sortable: map[string]string{
			"id": "id", "plateNumber": "plate_number", "name": "name", "brand": "brand",
			"city": "city", "joinedOn": "joined_on",
		},
	}
	vehicleSpec = store.TableSpec{
		Name:       "vehicles",
		Columns:    []string{"brand", "kind", "notes"},
		Searchable: []string{"brand", "kind"},
		Sortable:   map[string]string{"id": "id", "brand": "brand", "kind": "kind"},
	}
	supplierSpec = store.TableSpec{
		Name:       "suppliers",
		Columns:    []string{"name", "address", "phone", "contact_person"},
		Searchable: []string{"name", "contact_person", "phone"},
		Sortable:   map[string]string{"id": "id", "name": "name", "contactPerson": "contact_person"},
	}
)
