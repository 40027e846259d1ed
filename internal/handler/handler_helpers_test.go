package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/models"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
	Error      *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newTestContext(method, target string, body interface{}, role models.UserRole, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var req *http.Request
	switch v := body.(type) {
	case nil:
		req, _ = http.NewRequest(method, target, nil)
	case string:
		req, _ = http.NewRequest(method, target, bytes.NewReader([]byte(v)))
	default:
		raw, _ := json.Marshal(v)
		req, _ = http.NewRequest(method, target, bytes.NewReader(raw))
	}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	if role != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userFor(role), Role: role})
	}
	return c, w
}

func userFor(role models.UserRole) string {
	if role == models.RoleStudent {
		return "student-1"
	}
	return "staff-1"
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func idParam(id string) gin.Param {
	return gin.Param{Key: "id", Value: id}
}
