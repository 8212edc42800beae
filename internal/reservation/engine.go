package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/pkg/db/models"
	"github.com/fleetyard/partsdepot-backend/pkg/enums"
	pkgerrors "github.com/fleetyard/partsdepot-backend/pkg/errors"
	"github.com/fleetyard/partsdepot-backend/pkg/metrics"
)

// Engine secures concrete part items for request lines. Races against
// concurrent reservations are absorbed: a candidate whose compare-and-swap
// fails is skipped and the engine moves to the next oldest item.
type Engine struct {
	items        *ledger.Repository
	reservations *Repository
	metrics      *metrics.LifecycleMetrics
}

// NewEngine builds a reservation engine over the ledger and reservation
// repositories. Metrics may be nil.
func NewEngine(items *ledger.Repository, reservations *Repository, lifecycle *metrics.LifecycleMetrics) (*Engine, error) {
	if items == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	return &Engine{items: items, reservations: reservations, metrics: lifecycle}, nil
}

// ReserveForLine walks the oldest-first pool of IN_STOCK items for the line's
// part and secures up to NeededQty of them, counting holds the line already
// has so reruns top up instead of over-reserving. It returns the reservations
// it managed to create, which may be fewer than requested or none at all. The
// provided transaction scopes every write.
func (e *Engine) ReserveForLine(ctx context.Context, tx *gorm.DB, line *models.RequestLine, warehouseID uuid.UUID) ([]models.Reservation, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request line is required")
	}
	if line.NeededQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "needed qty must be positive")
	}

	items := e.items.WithTx(tx)
	reservations := e.reservations.WithTx(tx)

	existing, err := reservations.ListByLine(ctx, line.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list line reservations")
	}
	target := line.NeededQty - len(existing)
	if target <= 0 {
		return []models.Reservation{}, nil
	}

	secured := make([]models.Reservation, 0, target)
	for len(secured) < target {
		remaining := target - len(secured)
		candidates, err := items.FindAvailable(ctx, line.PartID, warehouseID, remaining)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find available items")
		}
		if len(candidates) == 0 {
			break
		}

		for _, candidate := range candidates {
			ok, err := items.Transition(ctx, candidate.ID, enums.PartItemStatusInStock, enums.PartItemStatusReserved)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve part item")
			}
			if !ok {
				// Someone else took this one first. Next candidate.
				e.metrics.IncRaceLost()
				continue
			}

			reservation, err := reservations.Create(ctx, &models.Reservation{
				RequestID:  line.RequestID,
				LineID:     line.ID,
				PartItemID: candidate.ID,
			})
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
			}
			secured = append(secured, *reservation)
			if len(secured) == target {
				break
			}
		}
	}

	e.metrics.AddReservations(len(secured))
	return secured, nil
}

// Unreserve releases every reservation held by the request: each part item is
// swapped RESERVED back to IN_STOCK and its reservation row removed. Calling it
// when nothing is held is a no-op returning zero.
func (e *Engine) Unreserve(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}

	items := e.items.WithTx(tx)
	reservations := e.reservations.WithTx(tx)

	held, err := reservations.ListByRequest(ctx, requestID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}

	released := 0
	var errs error
	for _, reservation := range held {
		ok, err := items.Transition(ctx, reservation.PartItemID, enums.PartItemStatusReserved, enums.PartItemStatusInStock)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("part item %s is no longer reserved", reservation.PartItemID))
			continue
		}
		if err := reservations.DeleteByID(ctx, reservation.ID); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		released++
	}

	if errs != nil {
		return released, pkgerrors.Wrap(pkgerrors.CodeStateConflict, errs, "release reservations")
	}
	return released, nil
}
