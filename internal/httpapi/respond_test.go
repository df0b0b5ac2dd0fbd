package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nazeru/storefront-api/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Invalid("name", "is required"), http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrProductNotFound, http.StatusNotFound},
		{domain.ErrOrderNotFound, http.StatusNotFound},
		{domain.ErrCouponNotFound, http.StatusNotFound},
		{domain.ErrInsufficientStock, http.StatusBadRequest},
		{domain.ErrInvalidTransition, http.StatusBadRequest},
		{domain.ErrOrderCancelled, http.StatusBadRequest},
		{domain.ErrCouponInvalid, http.StatusBadRequest},
		{domain.ErrCouponLimitExceeded, http.StatusBadRequest},
		{domain.ErrEmailTaken, http.StatusConflict},
		{domain.ErrReviewExists, http.StatusConflict},
		{domain.ErrCouponCodeTaken, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}
}

func TestStatusForWrappedError(t *testing.T) {
	err := fmt.Errorf("product sku-1: %w", domain.ErrInsufficientStock)
	assert.Equal(t, http.StatusBadRequest, statusFor(err))
}
