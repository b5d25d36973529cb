package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"astrapilot/internal/config"
	"astrapilot/internal/models"
	"astrapilot/internal/otp"
	"astrapilot/internal/services"
)

func TestQueryUserID(t *testing.T) {
	req := &http.Request{URL: &url.URL{RawQuery: "user_id=42"}}
	id, err := queryUserID(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}

	for _, raw := range []string{"", "user_id=abc", "user_id=0", "user_id=-3"} {
		req := &http.Request{URL: &url.URL{RawQuery: raw}}
		if _, err := queryUserID(req); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{otp.ErrNotFound, http.StatusNotFound},
		{services.ErrInvalidRequest, http.StatusBadRequest},
		{otp.ErrNoPendingCode, http.StatusBadRequest},
		{otp.ErrCodeExpired, http.StatusBadRequest},
		{otp.ErrCodeMismatch, http.StatusBadRequest},
		{services.ErrUserExists, http.StatusConflict},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrEmailNotVerified, http.StatusForbidden},
		{services.ErrUserDisabled, http.StatusForbidden},
		{services.ErrStripeNotConfigured, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		respondServiceError(rec, c.err)
		if rec.Code != c.status {
			t.Fatalf("error %v: expected status %d, got %d", c.err, c.status, rec.Code)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body for %v: %v", c.err, err)
		}
		if body.Error == "" {
			t.Fatalf("expected non-empty error message for %v", c.err)
		}
	}
}

func TestDecodeAndValidate(t *testing.T) {
	body := strings.NewReader(`{"user_id": 7, "otp_code": "123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-email", body)
	var parsed verifyEmailRequest
	if err := decodeAndValidate(req, &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.UserID != 7 || parsed.OTPCode != "123456" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/verify-email", strings.NewReader(`{"user_id": 7}`))
	if err := decodeAndValidate(req, &verifyEmailRequest{}); err == nil {
		t.Fatal("expected validation error for missing otp_code")
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/verify-email", strings.NewReader(`not json`))
	if err := decodeAndValidate(req, &verifyEmailRequest{}); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestRegisterRequestValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"username":"alice","email":"alice@example.com","password":"supersecret"}`, true},
		{"short username", `{"username":"al","email":"alice@example.com","password":"supersecret"}`, false},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"supersecret"}`, false},
		{"short password", `{"username":"alice","email":"alice@example.com","password":"short"}`, false},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(c.body))
		err := decodeAndValidate(req, &registerRequest{})
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
	}
}

func TestJWTRoundTrip(t *testing.T) {
	s := &Server{cfg: config.Config{JWTSecretKey: "test-secret", JWTExpiryHours: 1}}
	user := models.User{ID: 9, Username: "carol", IsSuperuser: true}

	token, err := s.generateJWT(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := s.parseJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 9 || claims.Username != "carol" || !claims.IsSuperuser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Fatal("token expired on issue")
	}

	other := &Server{cfg: config.Config{JWTSecretKey: "different-secret"}}
	if _, err := other.parseJWT(token); err == nil {
		t.Fatal("expected signature verification to fail with wrong key")
	}
}

func TestJWTMiddleware(t *testing.T) {
	s := &Server{cfg: config.Config{JWTSecretKey: "test-secret", JWTExpiryHours: 1}}

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = claimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := s.jwtMiddleware(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/seo/history", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := s.generateJWT(models.User{ID: 3, Username: "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/seo/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != 3 {
		t.Fatalf("claims not propagated: %+v", seen)
	}
}

func TestSuperuserMiddleware(t *testing.T) {
	s := &Server{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := s.superuserMiddleware(next)

	ctx := context.WithValue(context.Background(), claimsKey, &Claims{UserID: 1})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", rec.Code)
	}

	ctx = context.WithValue(context.Background(), claimsKey, &Claims{UserID: 1, IsSuperuser: true})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for superuser, got %d", rec.Code)
	}
}
