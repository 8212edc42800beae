package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	parts := `
CREATE TABLE IF NOT EXISTS parts (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  unit TEXT NOT NULL DEFAULT 'piece',
  created_at DATETIME,
  updated_at DATETIME
);`
	warehouses := `
CREATE TABLE IF NOT EXISTS warehouses (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(parts).Error; err != nil {
		t.Fatalf("create parts table: %v", err)
	}
	if err := conn.Exec(warehouses).Error; err != nil {
		t.Fatalf("create warehouses table: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, conn
}

func TestCreatePart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	brand := "Bosch"
	part, err := svc.CreatePart(ctx, CreatePartInput{
		SKU:   "FLT-0042",
		Name:  "Fuel filter",
		Brand: &brand,
		Unit:  enums.PartUnitPiece,
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if part.ID == uuid.Nil {
		t.Fatal("expected generated part id")
	}
	if part.SKU != "FLT-0042" || part.Unit != enums.PartUnitPiece {
		t.Fatalf("unexpected part: %+v", part)
	}

	_, err = svc.CreatePart(ctx, CreatePartInput{SKU: "FLT-0042", Name: "Fuel filter copy"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreatePartValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreatePartInput
	}{
		{name: "missing sku", input: CreatePartInput{Name: "Brake pad"}},
		{name: "missing name", input: CreatePartInput{SKU: "BRK-1"}},
		{name: "bad unit", input: CreatePartInput{SKU: "BRK-1", Name: "Brake pad", Unit: enums.PartUnit("crate")}},
	}
	for _, tc := range cases {
		_, err := svc.CreatePart(ctx, tc.input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreatePartDefaultsUnit(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	part, err := svc.CreatePart(context.Background(), CreatePartInput{SKU: "OIL-5W30", Name: "Engine oil"})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if part.Unit != enums.PartUnitPiece {
		t.Fatalf("expected default unit piece, got %s", part.Unit)
	}
}

func TestGetPartNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.GetPart(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListPartsFiltersBySearch(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, seed := range []CreatePartInput{
		{SKU: "FLT-0042", Name: "Fuel filter"},
		{SKU: "FLT-0043", Name: "Air filter"},
		{SKU: "BRK-0100", Name: "Brake disc"},
	} {
		if _, err := svc.CreatePart(ctx, seed); err != nil {
			t.Fatalf("seed part %s: %v", seed.SKU, err)
		}
	}

	result, err := svc.ListParts(ctx, ListPartsInput{Query: "filter"})
	if err != nil {
		t.Fatalf("list parts: %v", err)
	}
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 filter parts, got %d", len(result.Parts))
	}
	for _, p := range result.Parts {
		if p.SKU == "BRK-0100" {
			t.Fatalf("brake disc should not match filter query")
		}
	}

	result, err = svc.ListParts(ctx, ListPartsInput{Query: "flt-"})
	if err != nil {
		t.Fatalf("list parts by sku: %v", err)
	}
	if len(result.Parts) != 2 {
		t.Fatalf("expected case-insensitive sku match, got %d", len(result.Parts))
	}
}

func TestListPartsPaginates(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		part := &models.Part{
			ID:        uuid.New(),
			SKU:       "PAG-" + uuid.NewString(),
			Name:      "Paginated part",
			Unit:      enums.PartUnitPiece,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := conn.Create(part).Error; err != nil {
			t.Fatalf("seed part: %v", err)
		}
	}

	first, err := svc.ListParts(ctx, ListPartsInput{Pagination: pagination.Params{Limit: 3}})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Parts) != 3 {
		t.Fatalf("expected 3 parts on first page, got %d", len(first.Parts))
	}
	if first.NextCursor == "" {
		t.Fatal("expected next cursor on first page")
	}

	second, err := svc.ListParts(ctx, ListPartsInput{Pagination: pagination.Params{Limit: 3, Cursor: first.NextCursor}})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Parts) != 2 {
		t.Fatalf("expected 2 parts on second page, got %d", len(second.Parts))
	}
	if second.NextCursor != "" {
		t.Fatalf("expected exhausted cursor, got %q", second.NextCursor)
	}

	seen := map[uuid.UUID]bool{}
	for _, p := range append(first.Parts, second.Parts...) {
		if seen[p.ID] {
			t.Fatalf("part %s returned twice", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestListPartsRejectsBadCursor(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.ListParts(context.Background(), ListPartsInput{Pagination: pagination.Params{Cursor: "garbage cursor"}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}

func TestCreateWarehouse(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	warehouse, err := svc.CreateWarehouse(ctx, CreateWarehouseInput{Code: "  mx-01 ", Name: "Main depot"})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	if warehouse.Code != "MX-01" {
		t.Fatalf("expected normalized code MX-01, got %q", warehouse.Code)
	}

	_, err = svc.CreateWarehouse(ctx, CreateWarehouseInput{Code: "MX-01", Name: "Duplicate depot"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	_, err = svc.CreateWarehouse(ctx, CreateWarehouseInput{Name: "No code"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListWarehousesOrdersByCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, code := range []string{"ZZ-09", "AA-01", "MM-05"} {
		if _, err := svc.CreateWarehouse(ctx, CreateWarehouseInput{Code: code, Name: "Depot " + code}); err != nil {
			t.Fatalf("seed warehouse %s: %v", code, err)
		}
	}

	warehouses, err := svc.ListWarehouses(ctx)
	if err != nil {
		t.Fatalf("list warehouses: %v", err)
	}
	if len(warehouses) != 3 {
		t.Fatalf("expected 3 warehouses, got %d", len(warehouses))
	}
	if warehouses[0].Code != "AA-01" || warehouses[2].Code != "ZZ-09" {
		t.Fatalf("expected code ordering, got %+v", warehouses)
	}
}
