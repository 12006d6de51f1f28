package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string, userID, studioID uuid.UUID) string {
	t.Helper()
	claims := &Claims{
		UserID:   userID.String(),
		Role:     role,
		StudioID: studioID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	studioID := uuid.New()

	var gotUser, gotStudio uuid.UUID
	var gotRole string
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserID(r)
		gotRole = Role(r)
		gotStudio = StudioID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "teacher", userID, studioID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != userID || gotRole != "teacher" || gotStudio != studioID {
		t.Errorf("claims not propagated: user=%s role=%s studio=%s", gotUser, gotRole, gotStudio)
	}
}

func TestAuthRejections(t *testing.T) {
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "teacher", uuid.New(), uuid.New())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	chain := func(role string) int {
		handler := Auth(testSecret)(RequireRole("owner", "admin")(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, role, uuid.New(), uuid.New()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := chain("admin"); code != http.StatusOK {
		t.Errorf("admin got %d, want 200", code)
	}
	if code := chain("student"); code != http.StatusForbidden {
		t.Errorf("student got %d, want 403", code)
	}
}

func TestInternalKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("the-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	call := func(keyHash, key string) int {
		handler := InternalKey(keyHash)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			req.Header.Set("X-Internal-API-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(string(hash), "the-key"); code != http.StatusOK {
		t.Errorf("valid key got %d, want 200", code)
	}
	if code := call(string(hash), "wrong-key"); code != http.StatusUnauthorized {
		t.Errorf("wrong key got %d, want 401", code)
	}
	if code := call(string(hash), ""); code != http.StatusUnauthorized {
		t.Errorf("missing key got %d, want 401", code)
	}
	if code := call("", "the-key"); code != http.StatusUnauthorized {
		t.Errorf("unconfigured hash got %d, want 401", code)
	}
}
