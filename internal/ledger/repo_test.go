package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

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
	partItems := `
CREATE TABLE IF NOT EXISTS part_items (
  id TEXT PRIMARY KEY,
  part_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  internal_serial TEXT NOT NULL UNIQUE,
  manufacturer_serial TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'in_stock',
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  installed_vehicle_id TEXT,
  received_at DATETIME NOT NULL,
  last_moved_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(parts).Error)
	require.NoError(t, db.Exec(warehouses).Error)
	require.NoError(t, db.Exec(partItems).Error)
	return db
}

func mustCreatePart(t *testing.T, db *gorm.DB) *models.Part {
	t.Helper()
	part := &models.Part{
		ID:   uuid.New(),
		SKU:  "SKU-" + uuid.NewString(),
		Name: "Test part",
		Unit: enums.PartUnitPiece,
	}
	require.NoError(t, db.Create(part).Error)
	return part
}

func mustCreateWarehouse(t *testing.T, db *gorm.DB) *models.Warehouse {
	t.Helper()
	warehouse := &models.Warehouse{
		ID:   uuid.New(),
		Code: "WH-" + uuid.NewString()[:8],
		Name: "Test depot",
	}
	require.NoError(t, db.Create(warehouse).Error)
	return warehouse
}

func mustCreateItem(t *testing.T, repo *Repository, partID, warehouseID uuid.UUID, status enums.PartItemStatus, receivedAt time.Time) *models.PartItem {
	t.Helper()
	item, err := repo.Create(context.Background(), &models.PartItem{
		PartID:             partID,
		WarehouseID:        warehouseID,
		InternalSerial:     "INT-" + uuid.NewString(),
		ManufacturerSerial: "MFR-" + uuid.NewString(),
		Status:             status,
		UnitCost:           decimal.NewFromFloat(49.90),
		ReceivedAt:         receivedAt,
	})
	require.NoError(t, err)
	return item
}

func TestCreateDefaults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	part := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)

	item, err := repo.Create(context.Background(), &models.PartItem{
		PartID:             part.ID,
		WarehouseID:        warehouse.ID,
		InternalSerial:     "INT-0001",
		ManufacturerSerial: "MFR-0001",
		UnitCost:           decimal.NewFromInt(120),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, enums.PartItemStatusInStock, item.Status)
	assert.False(t, item.ReceivedAt.IsZero())
	assert.Equal(t, item.ReceivedAt, item.LastMovedAt)
}

func TestFindAvailableFIFO(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	part := mustCreatePart(t, db)
	otherPart := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-24 * time.Hour)
	newest := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, base.Add(2*time.Hour))
	oldest := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, base)
	middle := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, base.Add(time.Hour))

	// Neither reserved rows nor other parts are candidates.
	mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusReserved, base.Add(-time.Hour))
	mustCreateItem(t, repo, otherPart.ID, warehouse.ID, enums.PartItemStatusInStock, base.Add(-time.Hour))

	items, err := repo.FindAvailable(ctx, part.ID, warehouse.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, oldest.ID, items[0].ID)
	assert.Equal(t, middle.ID, items[1].ID)
	assert.Equal(t, newest.ID, items[2].ID)

	limited, err := repo.FindAvailable(ctx, part.ID, warehouse.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, oldest.ID, limited[0].ID)
}

func TestTransitionGuardsCurrentStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	part := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	ctx := context.Background()

	item := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, time.Now().UTC())

	ok, err := repo.Transition(ctx, item.ID, enums.PartItemStatusInStock, enums.PartItemStatusReserved)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second swap from the old status loses the race.
	ok, err = repo.Transition(ctx, item.ID, enums.PartItemStatusInStock, enums.PartItemStatusReserved)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PartItemStatusReserved, reloaded.Status)
	assert.True(t, reloaded.LastMovedAt.After(item.LastMovedAt) || reloaded.LastMovedAt.Equal(item.LastMovedAt))

	ok, err = repo.Transition(ctx, item.ID, enums.PartItemStatusReserved, enums.PartItemStatusInStock)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransitionUnknownItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.Transition(context.Background(), uuid.New(), enums.PartItemStatusInStock, enums.PartItemStatusReserved)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindSerialCollisions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	part := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	ctx := context.Background()

	existing, err := repo.Create(ctx, &models.PartItem{
		PartID:             part.ID,
		WarehouseID:        warehouse.ID,
		InternalSerial:     "INT-COLLIDE",
		ManufacturerSerial: "MFR-COLLIDE",
		UnitCost:           decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	collisions, err := repo.FindSerialCollisions(ctx,
		[]string{existing.InternalSerial, "INT-FRESH"},
		[]string{"MFR-FRESH"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"INT-COLLIDE"}, collisions)

	collisions, err = repo.FindSerialCollisions(ctx, []string{"INT-FRESH"}, []string{"MFR-FRESH"})
	require.NoError(t, err)
	assert.Empty(t, collisions)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	part := mustCreatePart(t, db)
	otherPart := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	inStock := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, now)
	mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusIssued, now)
	mustCreateItem(t, repo, otherPart.ID, warehouse.ID, enums.PartItemStatusInStock, now)

	status := enums.PartItemStatusInStock
	rows, _, err := repo.List(ctx, ListPartItemsInput{PartID: &part.ID, Status: &status}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inStock.ID, rows[0].ID)
	require.NotNil(t, rows[0].Part)
	assert.Equal(t, part.SKU, rows[0].Part.SKU)
	require.NotNil(t, rows[0].Warehouse)
	assert.Equal(t, warehouse.Code, rows[0].Warehouse.Code)

	rows, _, err = repo.List(ctx, ListPartItemsInput{Query: inStock.InternalSerial[:12]}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inStock.ID, rows[0].ID)
}

func TestServiceGetPartItemNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.GetPartItem(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceListRejectsBadStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	bad := enums.PartItemStatus("melted")
	_, err = svc.ListPartItems(context.Background(), ListPartItemsInput{
		Status:     &bad,
		Pagination: pagination.Params{Limit: 10},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceListRejectsBadCursor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.ListPartItems(context.Background(), ListPartItemsInput{
		Pagination: pagination.Params{Cursor: "not-base64!!"},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceMarkInstalled(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	part := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	item := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusIssued, time.Now().UTC())

	vehicleID := uuid.New()
	dto, err := svc.MarkInstalled(context.Background(), item.ID, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, enums.PartItemStatusInstalled, dto.Status)
	require.NotNil(t, dto.InstalledVehicleID)
	assert.Equal(t, vehicleID, *dto.InstalledVehicleID)
}

func TestServiceMarkInstalledConflicts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	part := mustCreatePart(t, db)
	warehouse := mustCreateWarehouse(t, db)
	inStock := mustCreateItem(t, repo, part.ID, warehouse.ID, enums.PartItemStatusInStock, time.Now().UTC())

	_, err = svc.MarkInstalled(context.Background(), inStock.ID, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = svc.MarkInstalled(context.Background(), uuid.New(), uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = svc.MarkInstalled(context.Background(), inStock.ID, uuid.Nil)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
