package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nazeru/storefront-api/internal/domain"
)

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	items, err := s.wishlists.List(r.Context(), ident.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddWishlist(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	productID := mux.Vars(r)["productID"]
	if _, err := s.catalog.Get(r.Context(), productID); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.wishlists.Add(r.Context(), ident.UserID, productID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "added"})
}

func (s *Server) handleRemoveWishlist(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	if err := s.wishlists.Remove(r.Context(), ident.UserID, mux.Vars(r)["productID"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "removed"})
}
