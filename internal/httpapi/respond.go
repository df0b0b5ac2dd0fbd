package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/nazeru/storefront-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var notFoundErrs = []error{
	domain.ErrProductNotFound,
	domain.ErrOrderNotFound,
	domain.ErrCartNotFound,
	domain.ErrCartItemNotFound,
	domain.ErrCouponNotFound,
	domain.ErrReviewNotFound,
	domain.ErrUserNotFound,
}

var badRequestErrs = []error{
	domain.ErrInsufficientStock,
	domain.ErrInvalidTransition,
	domain.ErrOrderCancelled,
	domain.ErrCouponInvalid,
	domain.ErrCouponLimitExceeded,
	domain.ErrCouponBelowMinimum,
}

var conflictErrs = []error{
	domain.ErrEmailTaken,
	domain.ErrReviewExists,
	domain.ErrCouponCodeTaken,
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	for _, e := range notFoundErrs {
		if errors.Is(err, e) {
			return http.StatusNotFound
		}
	}
	for _, e := range badRequestErrs {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	for _, e := range conflictErrs {
		if errors.Is(err, e) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// writeError translates a domain error into the JSON error shape. Stack
// traces accompany unexpected errors outside production only.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	body := map[string]any{"error": err.Error()}
	if code == http.StatusInternalServerError && !s.cfg.Production() {
		body["stack"] = string(debug.Stack())
	}
	writeJSON(w, code, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}
