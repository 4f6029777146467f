package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func runAuth(authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/orders", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	UserAuth(testSecret)(c)
	return w, c
}

func TestUserAuthValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId":   userID.String(),
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	w, c := runAuth("Bearer " + token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d: %s", w.Code, w.Body.String())
	}
	v, ok := c.Get(ContextUserID)
	if !ok {
		t.Fatal("userId not set in context")
	}
	if got, ok := v.(uuid.UUID); !ok || got != userID {
		t.Fatalf("expected %s in context, got %v", userID, v)
	}
}

func TestUserAuthMissingHeader(t *testing.T) {
	w, _ := runAuth("")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthMalformedHeader(t *testing.T) {
	for _, header := range []string{"Bearer", "Token abc", "abc"} {
		w, _ := runAuth(header)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestUserAuthWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"userId": uuid.NewString(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	w, _ := runAuth("Bearer " + token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId": uuid.NewString(),
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})
	w, _ := runAuth("Bearer " + token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthBadUserIDClaim(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId": "not-a-uuid",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	w, _ := runAuth("Bearer " + token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
