package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-erp/inkwell-erp/internal/deliveries"
	"github.com/inkwell-erp/inkwell-erp/internal/finance"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/clients"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/printers"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/products"
	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/suppliers"
	"github.com/inkwell-erp/inkwell-erp/internal/observability"
	"github.com/inkwell-erp/inkwell-erp/internal/orders"
	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
	"github.com/inkwell-erp/inkwell-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	OrdersHandler     *orders.Handler
	DeliveriesHandler *deliveries.Handler
	ReconcileHandler  *reconcile.Handler
	ClientsHandler    *clients.Handler
	SuppliersHandler  *suppliers.Handler
	ProductsHandler   *products.Handler
	PrintersHandler   *printers.Handler
	FinanceHandler    *finance.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Inkwell defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.DeliveriesHandler != nil {
			params.DeliveriesHandler.MountRoutes(r)
		}
		if params.ReconcileHandler != nil {
			params.ReconcileHandler.MountRoutes(r)
		}
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r)
		}
		if params.SuppliersHandler != nil {
			params.SuppliersHandler.MountRoutes(r)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(r)
		}
		if params.PrintersHandler != nil {
			params.PrintersHandler.MountRoutes(r)
		}
		if params.FinanceHandler != nil {
			params.FinanceHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
