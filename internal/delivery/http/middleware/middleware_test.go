package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-backend/config"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], f.err
}

func newJWT() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
}

func TestAuthenticate(t *testing.T) {
	jwtService := newJWT()
	userID := uuid.New()
	token, tokenID, err := jwtService.GenerateAccessToken(userID, entity.RoleIDPatient)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		denylist TokenRevocationChecker
		wantCode int
	}{
		{"valid token", "Bearer " + token, nil, http.StatusOK},
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, nil, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", nil, http.StatusUnauthorized},
		{"revoked", "Bearer " + token, &fakeDenylist{revoked: map[string]bool{tokenID: true}}, http.StatusUnauthorized},
		{"denylist down", "Bearer " + token, &fakeDenylist{err: errors.New("redis down")}, http.StatusInternalServerError},
		{"not revoked", "Bearer " + token, &fakeDenylist{}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			m := NewAuthMiddleware(jwtService, tt.denylist, log)

			var gotUser uuid.UUID
			var gotRole int
			var gotToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUserIDFromContext(r.Context())
				gotRole, _ = GetRoleIDFromContext(r.Context())
				gotToken, _ = GetTokenIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && (gotUser != userID || gotRole != entity.RoleIDPatient) {
				t.Errorf("context user = %s/%d, want %s/%d", gotUser, gotRole, userID, entity.RoleIDPatient)
			}
			if tt.wantCode == http.StatusOK && gotToken != tokenID {
				t.Errorf("context token id = %q, want %q", gotToken, tokenID)
			}
		})
	}
}

func TestRequireAdminOrDoctor(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name     string
		roleID   int
		withUser bool
		wantCode int
	}{
		{"admin", entity.RoleIDAdmin, true, http.StatusOK},
		{"doctor", entity.RoleIDDoctor, true, http.StatusOK},
		{"patient", entity.RoleIDPatient, true, http.StatusForbidden},
		{"anonymous", 0, false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/appointments/x/complete", nil)
			if tt.withUser {
				req = req.WithContext(ContextWithUser(req.Context(), uuid.New(), tt.roleID))
			}
			rec := httptest.NewRecorder()
			RequireAdminOrDoctor(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	log, hook := test.NewNullLogger()
	m := NewLoggingMiddleware(log)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	m.Handle(next).ServeHTTP(rec, req)

	if seen != "req-42" {
		t.Errorf("request id in context = %q, want req-42", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("response X-Request-ID = %q, want req-42", got)
	}
	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry written")
	}
	if entry.Data["status"] != http.StatusTeapot {
		t.Errorf("logged status = %v, want %d", entry.Data["status"], http.StatusTeapot)
	}
}
