package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/nazeru/storefront-api/internal/domain"
)

type couponRequest struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var in couponRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := s.coupons.Validate(r.Context(), in.Code, in.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var in couponRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := s.coupons.Apply(r.Context(), in.Code, in.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateCoupon(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	var c domain.Coupon
	if !decodeJSON(w, r, &c) {
		return
	}
	if err := s.coupons.Create(r.Context(), &c); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCoupons(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	coupons, err := s.coupons.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coupons": coupons})
}

func (s *Server) handleDeactivateCoupon(w http.ResponseWriter, r *http.Request, _ domain.Identity) {
	if err := s.coupons.Deactivate(r.Context(), mux.Vars(r)["code"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}
