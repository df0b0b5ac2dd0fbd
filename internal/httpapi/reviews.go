package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nazeru/storefront-api/internal/domain"
)

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.reviews.ListByProduct(r.Context(), mux.Vars(r)["productID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	var rev domain.Review
	if !decodeJSON(w, r, &rev) {
		return
	}
	rev.ProductID = mux.Vars(r)["productID"]
	if err := s.reviews.Create(r.Context(), ident, &rev); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handleVoteReview(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var body struct {
		Helpful bool `json:"helpful"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.reviews.Vote(r.Context(), mux.Vars(r)["id"], body.Helpful); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "voted"})
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request, ident domain.Identity) {
	if err := s.reviews.Delete(r.Context(), ident, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
