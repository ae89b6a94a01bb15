package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockledger/stockledger/internal/auth"
	"github.com/stockledger/stockledger/internal/catalog/locations"
	"github.com/stockledger/stockledger/internal/catalog/products"
	"github.com/stockledger/stockledger/internal/ledger"
	"github.com/stockledger/stockledger/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	LocationsHandler *locations.Handler
	LedgerHandler    *ledger.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter constructs the chi.Router. Catalog and ledger routes sit behind a
// valid session; reports and the dashboard are read-only and open.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthService.RequireSession)
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/locations", params.LocationsHandler.MountRoutes)
		r.Route("/movements", params.LedgerHandler.MountRoutes)
	})

	r.Route("/reports", params.ReportsHandler.MountRoutes)
	r.Route("/dashboard", params.ReportsHandler.MountDashboard)

	return r
}
