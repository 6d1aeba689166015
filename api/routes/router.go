package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/azafe/MyPhone-Backend/api/controllers"
	"github.com/azafe/MyPhone-Backend/api/middleware"
	"github.com/azafe/MyPhone-Backend/pkg/config"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Config *config.Config
	Health *controllers.HealthController
	Sales  *controllers.SalesController
	Stock  *controllers.StockController
}

func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())

	r.Get("/healthz", deps.Health.Check)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT))

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", deps.Sales.Create)
			r.Get("/", deps.Sales.List)
			r.Get("/{saleId}", deps.Sales.Get)
			r.Patch("/{saleId}", deps.Sales.Update)
			r.Post("/{saleId}/cancel", deps.Sales.Cancel)
			r.Post("/{saleId}/payments", deps.Sales.RegisterPayments)
			r.Post("/{saleId}/settle", deps.Sales.Settle)
		})

		r.Get("/stock/{imei}", deps.Stock.GetByIMEI)
	})

	return r
}
