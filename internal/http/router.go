package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(h *CartHandler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Post("/", h.CreateCart)
		r.Route("/{cart_id}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/cancel", h.CancelCart)
			r.Post("/lineItems", h.AddItems)
			r.Patch("/lineItems/quantity", h.UpdateQuantity)
			r.Post("/lineItems/quantity/reduce", h.BulkReduceQuantity)
			r.Post("/lineItems/{line_no}/cancel", h.CancelLineItem)
		})
	})

	return otelhttp.NewHandler(r, "cart-service")
}
