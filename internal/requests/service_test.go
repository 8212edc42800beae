package requests

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

	"github.com/fleetyard/partsdepot-backend/internal/catalog"
	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/internal/reservation"
	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:requests_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS parts (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  unit TEXT NOT NULL DEFAULT 'piece',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS warehouses (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS inventory_requests (
  id TEXT PRIMARY KEY,
  warehouse_id TEXT NOT NULL,
  work_order_id TEXT,
  requester_user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  reject_reason TEXT,
  decided_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS request_lines (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  part_id TEXT NOT NULL,
  needed_qty INTEGER NOT NULL,
  notes TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  line_id TEXT NOT NULL,
  part_item_id TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type testEnv struct {
	db        *gorm.DB
	svc       Service
	part      *models.Part
	warehouse *models.Warehouse
	items     *ledger.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	items := ledger.NewRepository(db)
	engine, err := reservation.NewEngine(items, reservation.NewRepository(db), nil)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), engine, gormTxRunner{db: db}, nil)
	require.NoError(t, err)

	part := &models.Part{ID: uuid.New(), SKU: "SKU-" + uuid.NewString(), Name: "Air filter", Unit: enums.PartUnitPiece}
	require.NoError(t, db.Create(part).Error)
	warehouse := &models.Warehouse{ID: uuid.New(), Code: "WH-" + uuid.NewString()[:8], Name: "Main depot"}
	require.NoError(t, db.Create(warehouse).Error)

	return &testEnv{db: db, svc: svc, part: part, warehouse: warehouse, items: items}
}

func (e *testEnv) seedItems(t *testing.T, count int) []*models.PartItem {
	t.Helper()
	seeded := make([]*models.PartItem, 0, count)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < count; i++ {
		item, err := e.items.Create(context.Background(), &models.PartItem{
			PartID:             e.part.ID,
			WarehouseID:        e.warehouse.ID,
			InternalSerial:     "INT-" + uuid.NewString(),
			ManufacturerSerial: "MFR-" + uuid.NewString(),
			UnitCost:           decimal.NewFromInt(25),
			ReceivedAt:         base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		seeded = append(seeded, item)
	}
	return seeded
}

func (e *testEnv) createRequest(t *testing.T, qty int) *RequestDTO {
	t.Helper()
	request, err := e.svc.Create(context.Background(), CreateRequestInput{
		WarehouseID:     e.warehouse.ID,
		RequesterUserID: uuid.New(),
		Lines:           []CreateRequestLineInput{{PartID: e.part.ID, NeededQty: qty}},
	})
	require.NoError(t, err)
	return request
}

func TestCreateRequest(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	workOrder := uuid.New()
	request, err := env.svc.Create(ctx, CreateRequestInput{
		WarehouseID:     env.warehouse.ID,
		WorkOrderID:     &workOrder,
		RequesterUserID: uuid.New(),
		Lines: []CreateRequestLineInput{
			{PartID: env.part.ID, NeededQty: 2},
			{PartID: env.part.ID, NeededQty: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RequestStatusPending, request.Status)
	require.Len(t, request.Lines, 2)
	assert.Equal(t, env.part.SKU, request.Lines[0].PartSKU)
	assert.Zero(t, request.Lines[0].ReservedQty)
	assert.Empty(t, request.Reservations)
	require.NotNil(t, request.WorkOrderID)
	assert.Equal(t, workOrder, *request.WorkOrderID)
}

func TestCreateRequestValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	requester := uuid.New()

	cases := []struct {
		name  string
		input CreateRequestInput
		code  pkgerrors.Code
	}{
		{
			name:  "no lines",
			input: CreateRequestInput{WarehouseID: env.warehouse.ID, RequesterUserID: requester},
			code:  pkgerrors.CodeValidation,
		},
		{
			name: "zero qty",
			input: CreateRequestInput{
				WarehouseID:     env.warehouse.ID,
				RequesterUserID: requester,
				Lines:           []CreateRequestLineInput{{PartID: env.part.ID, NeededQty: 0}},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown part",
			input: CreateRequestInput{
				WarehouseID:     env.warehouse.ID,
				RequesterUserID: requester,
				Lines:           []CreateRequestLineInput{{PartID: uuid.New(), NeededQty: 1}},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unknown warehouse",
			input: CreateRequestInput{
				WarehouseID:     uuid.New(),
				RequesterUserID: requester,
				Lines:           []CreateRequestLineInput{{PartID: env.part.ID, NeededQty: 1}},
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "missing requester",
			input: CreateRequestInput{
				WarehouseID: env.warehouse.ID,
				Lines:       []CreateRequestLineInput{{PartID: env.part.ID, NeededQty: 1}},
			},
			code: pkgerrors.CodeUnauthorized,
		},
	}
	for _, tc := range cases {
		_, err := env.svc.Create(ctx, tc.input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, tc.name)
		assert.Equal(t, tc.code, typed.Code(), tc.name)
	}
}

func TestApproveFullFulfillment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedItems(t, 2)
	request := env.createRequest(t, 2)

	report, err := env.svc.Approve(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusApproved, report.Status)
	assert.True(t, report.FullyReserved)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, 2, report.Lines[0].RequestedQty)
	assert.Equal(t, 2, report.Lines[0].ReservedQty)

	reloaded, err := env.svc.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusApproved, reloaded.Status)
	require.NotNil(t, reloaded.DecidedAt)
	assert.Len(t, reloaded.Reservations, 2)
	assert.Equal(t, 2, reloaded.Lines[0].ReservedQty)
}

func TestApprovePartialFulfillment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedItems(t, 3)
	request := env.createRequest(t, 5)

	report, err := env.svc.Approve(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusApproved, report.Status)
	assert.False(t, report.FullyReserved)
	require.Len(t, report.Lines, 1)
	assert.Equal(t, 5, report.Lines[0].RequestedQty)
	assert.Equal(t, 3, report.Lines[0].ReservedQty)

	// Entire pool is now held by this request.
	available, err := env.items.FindAvailable(ctx, env.part.ID, env.warehouse.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestApproveOnlyPending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedItems(t, 1)
	request := env.createRequest(t, 1)

	_, err := env.svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, request.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestApproveNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.svc.Approve(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestReject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	request := env.createRequest(t, 1)

	_, err := env.svc.Reject(ctx, request.ID, "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	rejected, err := env.svc.Reject(ctx, request.ID, "duplicate of an earlier request")
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "duplicate of an earlier request", *rejected.RejectReason)
	require.NotNil(t, rejected.DecidedAt)

	// Terminal: no approve after reject.
	_, err = env.svc.Approve(ctx, request.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUnreserveRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedItems(t, 2)
	request := env.createRequest(t, 2)

	// Reservations only exist after approval.
	_, err := env.svc.Unreserve(ctx, request.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = env.svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	released, err := env.svc.Unreserve(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	available, err := env.items.FindAvailable(ctx, env.part.ID, env.warehouse.ID, 10)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	reloaded, err := env.svc.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusApproved, reloaded.Status)
	assert.Empty(t, reloaded.Reservations)

	// Second release is a quiet no-op.
	released, err = env.svc.Unreserve(ctx, request.ID)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestListFiltersByStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	env.seedItems(t, 1)

	pending := env.createRequest(t, 1)
	approved := env.createRequest(t, 1)
	_, err := env.svc.Approve(ctx, approved.ID)
	require.NoError(t, err)

	status := enums.RequestStatusPending
	result, err := env.svc.List(ctx, ListRequestsInput{Status: &status})
	require.NoError(t, err)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, pending.ID, result.Requests[0].ID)

	result, err = env.svc.List(ctx, ListRequestsInput{WarehouseID: &env.warehouse.ID})
	require.NoError(t, err)
	assert.Len(t, result.Requests, 2)
}
