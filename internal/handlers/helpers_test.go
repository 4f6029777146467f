package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoply/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// performJSON runs a handler against a synthetic JSON request. A non-nil
// userID simulates the auth middleware having validated a token.
func performJSON(h gin.HandlerFunc, method, target, body string, userID *uuid.UUID, params ...gin.Param) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	if userID != nil {
		c.Set(middleware.ContextUserID, *userID)
	}

	h(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
