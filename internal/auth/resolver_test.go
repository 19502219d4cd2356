package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeUsers) GetByID(_ context.Context, tenantID, userID string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[tenantID+"/"+userID]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func newTestResolver(t *testing.T) (*Resolver, *HMACVerifier, *fakeUsers) {
	t.Helper()
	v := NewHMACVerifier("secret")
	users := &fakeUsers{users: map[string]*models.User{
		"T1/admin-1":    {TenantID: "T1", UserID: "admin-1", Role: models.RoleAdmin},
		"T1/customer-1": {TenantID: "T1", UserID: "customer-1", Role: models.RoleCustomer},
		"T2/other-1":    {TenantID: "T2", UserID: "other-1", Role: models.RoleAdmin},
	}}
	return NewResolver(v, users, "T1"), v, users
}

func bearer(t *testing.T, v *HMACVerifier, sub string) string {
	t.Helper()
	tok, err := v.Issue(sub, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + tok
}

func TestResolver_Resolve(t *testing.T) {
	r, v, _ := newTestResolver(t)

	id, err := r.Resolve(context.Background(), bearer(t, v, "admin-1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.UserID != "admin-1" || id.TenantID != "T1" || id.Role != models.RoleAdmin || !id.IsAdmin() {
		t.Errorf("identity = %+v", id)
	}

	id, err = r.Resolve(context.Background(), bearer(t, v, "customer-1"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.IsAdmin() {
		t.Error("customer should not be admin")
	}
}

func TestResolver_Unauthenticated(t *testing.T) {
	r, v, users := newTestResolver(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"invalid token", "Bearer junk"},
		{"unknown subject", bearer(t, v, "nobody")},
		{"user of another tenant", bearer(t, v, "other-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.header)
			if !apperr.IsKind(err, apperr.KindUnauthenticated) {
				t.Errorf("err = %v, want unauthenticated", err)
			}
		})
	}
	if users.calls != 2 {
		t.Errorf("store lookups = %d, want 2 (only for verified tokens)", users.calls)
	}
}

func TestResolver_UnknownUserLooksLikeBadToken(t *testing.T) {
	r, v, _ := newTestResolver(t)
	_, errUnknown := r.Resolve(context.Background(), bearer(t, v, "nobody"))
	_, errBad := r.Resolve(context.Background(), "Bearer junk")
	if errUnknown.Error() != errBad.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown, errBad)
	}
}

func TestResolver_StoreFailureIsInternal(t *testing.T) {
	r, v, users := newTestResolver(t)
	users.err = errors.New("connection refused")
	_, err := r.Resolve(context.Background(), bearer(t, v, "admin-1"))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := apperr.As(err); ok {
		t.Errorf("store failure should stay unclassified, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	admin := Identity{UserID: "a", TenantID: "T1", Role: models.RoleAdmin}
	customer := Identity{UserID: "c", TenantID: "T1", Role: models.RoleCustomer}

	if err := RequireAdmin(admin); err != nil {
		t.Errorf("admin: %v", err)
	}
	err := RequireAdmin(customer)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("customer err = %v, want forbidden", err)
	}
	if err.Error() != "Admin access required" {
		t.Errorf("message = %q", err.Error())
	}
	if err := RequireRole(customer, models.RoleCustomer); err != nil {
		t.Errorf("customer role: %v", err)
	}
}
