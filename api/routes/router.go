package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetyard/partsdepot-backend/api/controllers"
	"github.com/fleetyard/partsdepot-backend/api/middleware"
	"github.com/fleetyard/partsdepot-backend/internal/catalog"
	"github.com/fleetyard/partsdepot-backend/internal/issues"
	"github.com/fleetyard/partsdepot-backend/internal/ledger"
	"github.com/fleetyard/partsdepot-backend/internal/receipts"
	"github.com/fleetyard/partsdepot-backend/internal/requests"
	"github.com/fleetyard/partsdepot-backend/pkg/config"
	"github.com/fleetyard/partsdepot-backend/pkg/db"
	"github.com/fleetyard/partsdepot-backend/pkg/logger"
	"github.com/fleetyard/partsdepot-backend/pkg/redis"
)

type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer

	Catalog  catalog.Service
	Ledger   ledger.Service
	Requests requests.Service
	Issues   issues.Service
	Receipts receipts.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	var idemStore redis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(middleware.Actor(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(deps.Requests, logg))
			r.Get("/", controllers.RequestList(deps.Requests, logg))
			r.Get("/{requestId}", controllers.RequestGet(deps.Requests, logg))
			r.Post("/{requestId}/approve", controllers.RequestApprove(deps.Requests, logg))
			r.Post("/{requestId}/reject", controllers.RequestReject(deps.Requests, logg))
			r.Post("/{requestId}/unreserve", controllers.RequestUnreserve(deps.Requests, logg))
		})

		r.Route("/issues", func(r chi.Router) {
			r.Post("/", controllers.IssueCreate(deps.Issues, logg))
			r.Get("/", controllers.IssueList(deps.Issues, logg))
			r.Get("/{issueId}", controllers.IssueGet(deps.Issues, logg))
			r.Post("/{issueId}/post", controllers.IssuePost(deps.Issues, logg))
			r.Post("/{issueId}/cancel", controllers.IssueCancel(deps.Issues, logg))
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", controllers.ReceiptCreate(deps.Receipts, logg))
			r.Get("/", controllers.ReceiptList(deps.Receipts, logg))
			r.Get("/{receiptId}", controllers.ReceiptGet(deps.Receipts, logg))
			r.Post("/{receiptId}/post", controllers.ReceiptPost(deps.Receipts, logg))
			r.Post("/{receiptId}/cancel", controllers.ReceiptCancel(deps.Receipts, logg))
			r.Get("/{receiptId}/expense", controllers.ReceiptExpense(deps.Receipts, logg))
		})

		r.Route("/part-items", func(r chi.Router) {
			r.Get("/", controllers.PartItemList(deps.Ledger, logg))
			r.Get("/{partItemId}", controllers.PartItemGet(deps.Ledger, logg))
			r.Post("/{partItemId}/install", controllers.PartItemInstall(deps.Ledger, logg))
		})

		r.Route("/parts", func(r chi.Router) {
			r.Post("/", controllers.PartCreate(deps.Catalog, logg))
			r.Get("/", controllers.PartList(deps.Catalog, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.WarehouseCreate(deps.Catalog, logg))
			r.Get("/", controllers.WarehouseList(deps.Catalog, logg))
		})
	})

	return r
}
