package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nazeru/storefront-api/internal/domain"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	cart, err := s.cart.Get(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	cart, err := s.cart.AddItem(r.Context(), ident, body.ProductID, body.Quantity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	cart, err := s.cart.UpdateItem(r.Context(), ident, mux.Vars(r)["productID"], body.Quantity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	cart, err := s.cart.RemoveItem(r.Context(), ident, mux.Vars(r)["productID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	if err := s.cart.Clear(r.Context(), ident); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
