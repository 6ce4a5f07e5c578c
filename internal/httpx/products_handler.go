package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carsonvertex/tauri-pos-app/internal/offline"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in offline.ProductInput
	if err := h.decodeValid(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in offline.ProductInput
	if err := h.decodeValid(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold := 10
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold"})
			return
		}
		threshold = n
	}
	ps, err := h.Service.LowStockProducts(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
