package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct {
	users map[string]*models.User
	err   error
}

func (v stubVerifier) VerifyToken(_ context.Context, token string) (*models.User, error) {
	if v.err != nil {
		return nil, v.err
	}
	if user, ok := v.users[token]; ok {
		return user, nil
	}
	return nil, apierrors.New(apierrors.KindUnauthorized, "Invalid or expired token")
}

func newVerifier() stubVerifier {
	return stubVerifier{users: map[string]*models.User{"good": {ID: 7, Name: "Alice"}}}
}

func serve(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireAuth(newVerifier()), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		user, ok := GetUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": userID, "name": user.Name})
	})

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
		wantBody      string
	}{
		{"valid token", "Bearer good", http.StatusOK, `"id":7`},
		{"lowercase scheme", "bearer good", http.StatusOK, `"name":"Alice"`},
		{"missing header", "", http.StatusUnauthorized, "Access denied. No token provided."},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Access denied. No token provided."},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "Access denied. No token provided."},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, "/me", tt.authorization)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequireAuth_VerifierFailure(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireAuth(stubVerifier{err: errors.New("database is down")}), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := serve(r, "/me", "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database is down")
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/maybe", OptionalAuth(newVerifier()), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "id": userID})
	})

	assert.Contains(t, serve(r, "/maybe", "Bearer good").Body.String(), `"authenticated":true`)
	assert.Contains(t, serve(r, "/maybe", "Bearer bad").Body.String(), `"authenticated":false`)
	assert.Contains(t, serve(r, "/maybe", "").Body.String(), `"authenticated":false`)
}

func TestRequireIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/tasks/:id", RequireIDParam("Task"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetIDParam(c)})
	})

	w := serve(r, "/tasks/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())

	for _, path := range []string{"/tasks/abc", "/tasks/0", "/tasks/-1"} {
		w := serve(r, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Task not found", path)
	}
}

func TestRequestContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(RequestContext(base), AccessLog(base))
	r.GET("/ping", func(c *gin.Context) {
		_, ok := c.Get(constants.ContextKeyLogger)
		assert.True(t, ok)
		c.Status(http.StatusNoContent)
	})

	w := serve(r, "/ping", "")
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderRequestID))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func init() {
	gin.SetMode(gin.TestMode)
}
