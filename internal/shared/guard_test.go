package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasCapability(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapReconcileEdit, true},
		{RoleSalesAdmin, CapOrdersEdit, true},
		{RoleSalesAdmin, CapFinanceEdit, false},
		{RoleWarehouse, CapDeliveriesEdit, true},
		{RoleWarehouse, CapFinanceView, false},
		{RoleFinance, CapFinanceEdit, true},
		{RoleViewer, CapOrdersView, true},
		{RoleViewer, CapOrdersEdit, false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, HasCapability(tc.role, tc.cap), "%s %s", tc.role, tc.cap)
	}
}

func TestGuardRequire(t *testing.T) {
	guard := Guard{}
	var gotRole Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := guard.Require(CapDeliveriesEdit)(next)

	req := httptest.NewRequest(http.MethodPost, "/deliveries", nil)
	req.Header.Set(RoleHeader, string(RoleWarehouse))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, RoleWarehouse, gotRole)
}

func TestGuardRejectsMissingCapability(t *testing.T) {
	guard := Guard{}
	handler := guard.Require(CapFinanceEdit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/finance/entries", nil)
	req.Header.Set(RoleHeader, string(RoleViewer))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGuardRejectsUnknownRole(t *testing.T) {
	guard := Guard{}
	handler := guard.Require(CapOrdersView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(RoleHeader, "intern")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}
