package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/store"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProductFilter{Category: q.Get("category")}
	f.Page, f.Limit = pageParams(r)
	if v := q.Get("featured"); v == "true" || v == "false" {
		featured := v == "true"
		f.Featured = &featured
	}

	products, total, err := s.products.List(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "total": total})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var p domain.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.products.Create(r.Context(), &p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var p domain.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = mux.Vars(r)["id"]
	if err := p.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.products.Update(r.Context(), &p); err != nil {
		s.writeError(w, err)
		return
	}
	s.catalog.Invalidate(r.Context(), p.ID)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	id := mux.Vars(r)["id"]
	if err := s.products.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.catalog.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
