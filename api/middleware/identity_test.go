package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityRequiresHeader(t *testing.T) {
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentityRejectsMalformedHeader(t *testing.T) {
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(UserIDHeader, "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestIdentityInjectsUserID(t *testing.T) {
	userID := uuid.New()
	var got uuid.UUID
	handler := Identity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(UserIDHeader, userID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if got != userID {
		t.Fatalf("expected %s in context, got %s", userID, got)
	}
}
