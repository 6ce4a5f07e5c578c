package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carsonvertex/tauri-pos-app/internal/offline"
	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	syncx "github.com/carsonvertex/tauri-pos-app/internal/sync"
)

// Handler is the thin REST surface over the offline service and reconciler.
type Handler struct {
	Service  *offline.Service
	Sync     *syncx.Reconciler
	Redis    *redis.Client
	validate *validator.Validate
}

func NewHandler(svc *offline.Service, rec *syncx.Reconciler, rdb *redis.Client) *Handler {
	return &Handler{
		Service:  svc,
		Sync:     rec,
		Redis:    rdb,
		validate: validator.New(),
	}
}

func (h *Handler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Get("/products/search", h.searchProducts)
	r.Get("/products/low-stock", h.lowStockProducts)

	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getOrderStatus)
	r.Get("/orders/status/{status}", h.ordersByStatus)
	r.Post("/orders/{id}/complete", h.completeOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Post("/orders/{id}/refund", h.refundOrder)

	r.Get("/sync/status", h.syncStatus)
	r.Post("/sync/force", h.forceSync)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var insufficient *pos.InsufficientStockError
	switch {
	case errors.Is(err, pos.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, pos.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.Is(err, pos.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (h *Handler) decodeValid(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(pos.ErrInvalidInput, errors.New("invalid json"))
	}
	if err := h.validate.Struct(v); err != nil {
		return errors.Join(pos.ErrInvalidInput, err)
	}
	return nil
}
