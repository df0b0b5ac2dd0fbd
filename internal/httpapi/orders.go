package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/service"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var in service.CreateOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	order, replayed, err := s.orders.Create(r.Context(), ident, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	code := http.StatusCreated
	if replayed {
		code = http.StatusOK
	}
	writeJSON(w, code, order)
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	page, limit := pageParams(r)
	orders, total, err := s.orders.ListMine(r.Context(), ident, page, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	page, limit := pageParams(r)
	orders, total, err := s.orders.ListAll(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": total})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	order, err := s.orders.Get(r.Context(), ident, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	order, err := s.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], body.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	order, err := s.orders.Cancel(r.Context(), ident, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	if err := s.orders.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
