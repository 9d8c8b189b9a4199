package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-12345"

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "planner-7",
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return s
}

func TestValidateToken(t *testing.T) {
	valid := signToken(t, testSecret, time.Now().Add(time.Hour))

	claims, err := ValidateToken(valid, testSecret)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims["sub"] != "planner-7" {
		t.Errorf("Expected sub planner-7, got %v", claims["sub"])
	}

	if _, err := ValidateToken(valid, "wrong-key"); err == nil {
		t.Error("Validation should fail with wrong key")
	}
	if _, err := ValidateToken(signToken(t, testSecret, time.Now().Add(-time.Hour)), testSecret); err == nil {
		t.Error("Validation should fail for an expired token")
	}
}

func TestAuth(t *testing.T) {
	var subject string
	h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + signToken(t, "other", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, time.Now().Add(time.Hour)), http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}

	if subject != "planner-7" {
		t.Errorf("Subject = %q, want planner-7", subject)
	}
}
