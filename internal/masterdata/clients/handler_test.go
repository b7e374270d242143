package clients

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	mdshared "github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

func TestRespondErrorMapsPackageSentinels(t *testing.T) {
	h := NewHandler(nil, nil, shared.Guard{})
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("client 42: %w", mdshared.ErrNotFound), http.StatusNotFound},
		{"duplicate", fmt.Errorf("code PX-1: %w", mdshared.ErrDuplicate), http.StatusConflict},
		{"required field", fmt.Errorf("name: %w", mdshared.ErrRequiredField), http.StatusBadRequest},
		{"invalid id", mdshared.ErrInvalidID, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.respondError(rr, "test", tc.err)
			require.Equal(t, tc.want, rr.Code)
		})
	}
}
