package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	"github.com/carsonvertex/tauri-pos-app/internal/redisx"
)

type CreateOrderReq struct {
	CustomerName  string            `json:"customer_name" validate:"required"`
	CustomerEmail string            `json:"customer_email" validate:"omitempty,email"`
	Items         []pos.ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderResp struct {
	Order pos.Order       `json:"order"`
	Items []pos.OrderItem `json:"items,omitempty"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.Service.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), req.CustomerName, req.CustomerEmail, req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, OrderResp{Order: *o})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, items, err := h.Service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResp{Order: *o, Items: items})
}

func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// status cache first, full record on miss
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Service.GetOrderOnly(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status, "updated_at": o.UpdatedAt})
}

func (h *Handler) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := pos.ParseOrderStatus(chi.URLParam(r, "status"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown order status"})
		return
	}
	os, err := h.Service.OrdersByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.CompleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResp{Order: *o})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResp{Order: *o})
}

func (h *Handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.RefundOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResp{Order: *o})
}
