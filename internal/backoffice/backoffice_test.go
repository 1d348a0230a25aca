package backoffice

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pazaauto.id/internal/entity"
	"pazaauto.id/internal/obs"
	"pazaauto.id/internal/provision"
	"pazaauto.id/internal/store"
)

const testHash = "$2a$04$placeholderplaceholderplaceholderplaceholderplacehol"

func newCatalog(t *testing.T) (*Catalog, *store.Accounts) {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, "file::memory:?_foreign_keys=on", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	accounts := store.NewAccounts(db)
	prov, err := provision.New(accounts, provision.WithPlaceholderHash(testHash))
	if err != nil {
		t.Fatalf("provision.New: %v", err)
	}
	return NewCatalog(db, prov), accounts
}

func TestEmployeeCreateProvisionsAccount(t *testing.T) {
	ctx := context.Background()
	cat, accounts := newCatalog(t)

	pos, err := cat.Positions.Create(ctx, &Position{Name: "Mechanic"})
	if err != nil {
		t.Fatalf("create position: %v", err)
	}
	emp, err := cat.Employees.Create(ctx, &Employee{Name: "Jane Doe", PositionID: &pos.ID})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	acct, err := accounts.FindByUsername(ctx, "janedoe"+itoa(emp.ID))
	if err != nil {
		t.Fatalf("provisioned account: %v", err)
	}
	if !acct.Active || acct.EmployeeID == nil || *acct.EmployeeID != emp.ID {
		t.Fatalf("unexpected account %+v", acct)
	}
	if len(acct.Roles) != 1 || acct.Roles[0] != "user" {
		t.Fatalf("unexpected roles %v", acct.Roles)
	}

	got, err := cat.Employees.FindByID(ctx, emp.ID)
	if err != nil {
		t.Fatalf("find employee: %v", err)
	}
	if got.PositionName != "Mechanic" {
		t.Fatalf("expected enriched position, got %q", got.PositionName)
	}

	link, err := accounts.EmployeeForUsername(ctx, acct.Username)
	if err != nil || link.Name != "Jane Doe" {
		t.Fatalf("employee link: %+v %v", link, err)
	}
}

func TestEmployeeCreateRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)

	if _, err := cat.Employees.Create(ctx, &Employee{Name: "Rina", Email: "rina@pazaauto.id"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := cat.Employees.Create(ctx, &Employee{Name: "Rina Two", Email: "rina@pazaauto.id"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected store.ErrConflict, got %v", err)
	}

	all, err := cat.Employees.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected the conflicting employee to be rolled back, got %d rows", len(all))
	}
}

func TestListUnregistered(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(store.DriverSQLite, "file::memory:?_foreign_keys=on", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if err := db.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	// no provisioner: employees stay unregistered until linked
	cat := NewCatalog(db, nil)
	for _, name := range []string{"Ani", "Budi"} {
		if _, err := cat.Employees.Create(ctx, &Employee{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	id := int64(1)
	if err := store.NewAccounts(db).CreateAccount(ctx, accountFor("ani", id)); err != nil {
		t.Fatalf("link account: %v", err)
	}

	rows, err := cat.EmployeeDirectory.ListUnregistered(ctx)
	if err != nil {
		t.Fatalf("ListUnregistered: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Budi" {
		t.Fatalf("unexpected unregistered employees %+v", rows)
	}
}

func TestListUnregisteredLogsEnrichmentFailure(t *testing.T) {
	var buf bytes.Buffer
	obs.SetOutput(&buf)
	defer obs.SetOutput(nil)

	ctx := context.Background()
	db, err := store.Open(store.DriverSQLite, "file::memory:?_foreign_keys=on", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if err := db.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	cat := NewCatalog(db, nil)
	pos, err := cat.Positions.Create(ctx, &Position{Name: "Mechanic"})
	if err != nil {
		t.Fatalf("create position: %v", err)
	}
	if _, err := cat.Employees.Create(ctx, &Employee{Name: "Citra", PositionID: &pos.ID}); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	// position lookups now fail while the employee listing still works
	if _, err := store.Exec(ctx, db, `alter table positions rename to positions_archived`); err != nil {
		t.Fatalf("rename positions: %v", err)
	}

	rows, err := cat.EmployeeDirectory.ListUnregistered(ctx)
	if err != nil {
		t.Fatalf("ListUnregistered: %v", err)
	}
	if len(rows) != 1 || rows[0].PositionName != "" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	out := buf.String()
	if !strings.Contains(out, "enrichment failed") || !strings.Contains(out, `"component":"employees"`) {
		t.Fatalf("expected enrichment warning, got %q", out)
	}
}

func TestEmployeeMergeKeepsStoredFields(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)

	emp, err := cat.Employees.Create(ctx, &Employee{Name: "Dewi", Phone: "0812", Address: "Jl. Merdeka"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := cat.Employees.Update(ctx, emp.ID, Employee{Phone: "0813"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Dewi" || got.Phone != "0813" || got.Address != "Jl. Merdeka" {
		t.Fatalf("unexpected merged employee %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedBy != store.SystemActor {
		t.Fatalf("unexpected audit columns %+v", got.Audit)
	}
}

func TestVehicleBrandsAndKinds(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)

	for _, v := range []Vehicle{
		{Brand: "Toyota", Kind: "Avanza"},
		{Brand: "Honda", Kind: "Jazz"},
		{Brand: "Toyota", Kind: "Innova"},
		{Brand: "Toyota", Kind: "Avanza"},
	} {
		if _, err := cat.Vehicles.Create(ctx, &v); err != nil {
			t.Fatalf("create vehicle: %v", err)
		}
	}

	brands, err := cat.VehicleCatalog.Brands(ctx)
	if err != nil {
		t.Fatalf("Brands: %v", err)
	}
	if len(brands) != 2 || brands[0] != "Honda" || brands[1] != "Toyota" {
		t.Fatalf("unexpected brands %v", brands)
	}
	kinds, err := cat.VehicleCatalog.Kinds(ctx, "toyota")
	if err != nil {
		t.Fatalf("Kinds: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != "Avanza" {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestCustomerPlateSearch(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)

	for _, c := range []Customer{
		{PlateNumber: "B 1234 XY", Name: "Andi", Brand: "Toyota"},
		{PlateNumber: "D 77 AB", Name: "Sari", Brand: "Honda"},
	} {
		if _, err := cat.Customers.Create(ctx, &c); err != nil {
			t.Fatalf("create customer: %v", err)
		}
	}

	found, err := cat.Customers.Search(ctx, "b12")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Andi" {
		t.Fatalf("unexpected search result %+v", found)
	}

	page, err := cat.Customers.FindPaginated(ctx, entity.PageRequest{Page: 1, RowsPerPage: 10, Search: "honda"})
	if err != nil {
		t.Fatalf("FindPaginated: %v", err)
	}
	if page.TotalCount != 1 || page.Rows[0].Name != "Sari" {
		t.Fatalf("unexpected page %+v", page)
	}
}
