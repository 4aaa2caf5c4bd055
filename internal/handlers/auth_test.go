package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/dto"
	"github.com/yukikurage/taskflow-api/internal/services"
)

func setupAuthTestEnv(t *testing.T) (*handlerTestEnv, *AuthHandler) {
	t.Helper()

	env := newHandlerTestEnv(t)
	t.Cleanup(env.close)
	return env, NewAuthHandler(env.auth)
}

func registerTestUser(t *testing.T, env *handlerTestEnv, name, email, password string) *services.AuthResult {
	t.Helper()

	result, err := env.auth.Register(context.Background(), services.RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return result
}

func TestAuthHandler_Register(t *testing.T) {
	_, handler := setupAuthTestEnv(t)

	payload := map[string]string{
		"name":     "Alice Doe",
		"email":    "Alice@Example.com",
		"password": "secret1",
	}
	c, w := newContext(http.MethodPost, "/api/auth/register", payload, 0, 0)
	handler.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)

	var data dto.AuthDTO
	env := decodeEnvelope(t, w, &data)
	require.True(t, env.Success)
	require.Equal(t, "User registered successfully", env.Message)
	require.Equal(t, "alice@example.com", data.User.Email)
	require.Equal(t, "AD", data.User.Avatar)
	require.NotEmpty(t, data.Token)
	require.NotContains(t, string(env.Data), "password")
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registerTestUser(t, env, "Alice", "alice@example.com", "secret1")

	payload := map[string]string{
		"name":     "Other Alice",
		"email":    "ALICE@example.com",
		"password": "secret2",
	}
	c, w := newContext(http.MethodPost, "/api/auth/register", payload, 0, 0)
	handler.Register(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, services.ErrDuplicateEmail.Message, decodeEnvelope(t, w, nil).Message)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	_, handler := setupAuthTestEnv(t)

	cases := []map[string]string{
		{"name": "", "email": "a@example.com", "password": "secret1"},
		{"name": "Al", "email": "not-an-email", "password": "secret1"},
		{"name": "Al", "email": "a@example.com", "password": "short"},
	}
	for _, payload := range cases {
		c, w := newContext(http.MethodPost, "/api/auth/register", payload, 0, 0)
		handler.Register(c)
		require.Equal(t, http.StatusBadRequest, w.Code, payload)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registered := registerTestUser(t, env, "Existing", "existing@example.com", "supersecret")

	payload := map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	}
	c, w := newContext(http.MethodPost, "/api/auth/login", payload, 0, 0)
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)

	var data dto.AuthDTO
	require.Equal(t, "Login successful", decodeEnvelope(t, w, &data).Message)
	require.Equal(t, registered.User.ID, data.User.ID)
	require.NotNil(t, data.User.LastLogin)

	user, err := env.auth.VerifyToken(context.Background(), data.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, user.ID)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registerTestUser(t, env, "Existing", "existing@example.com", "supersecret")

	for _, payload := range []map[string]string{
		{"email": "existing@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "supersecret"},
	} {
		c, w := newContext(http.MethodPost, "/api/auth/login", payload, 0, 0)
		handler.Login(c)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, services.ErrInvalidCredentials.Message, decodeEnvelope(t, w, nil).Message)
	}

	c, w := newContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "existing@example.com"}, 0, 0)
	handler.Login(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_GetProfile(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registered := registerTestUser(t, env, "Current User", "current@example.com", "supersecret")

	c, w := newContext(http.MethodGet, "/api/auth/profile", nil, registered.User.ID, 0)
	handler.GetProfile(c)

	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		User dto.UserDTO `json:"user"`
	}
	decodeEnvelope(t, w, &data)
	require.Equal(t, "Current User", data.User.Name)
	require.Equal(t, "CU", data.User.Avatar)
}

func TestAuthHandler_GetProfileWithoutUser(t *testing.T) {
	_, handler := setupAuthTestEnv(t)

	c, w := newContext(http.MethodGet, "/api/auth/profile", nil, 0, 0)
	handler.GetProfile(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. No token provided.", decodeEnvelope(t, w, nil).Message)
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registered := registerTestUser(t, env, "Alice", "alice@example.com", "supersecret")
	registerTestUser(t, env, "Bob", "bob@example.com", "supersecret")

	c, w := newContext(http.MethodPut, "/api/auth/profile", map[string]string{"name": "Alice Smith"}, registered.User.ID, 0)
	handler.UpdateProfile(c)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		User dto.UserDTO `json:"user"`
	}
	decodeEnvelope(t, w, &data)
	require.Equal(t, "Alice Smith", data.User.Name)
	require.Equal(t, "AS", data.User.Avatar)

	c, w = newContext(http.MethodPut, "/api/auth/profile", map[string]string{"email": "bob@example.com"}, registered.User.ID, 0)
	handler.UpdateProfile(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env, handler := setupAuthTestEnv(t)
	registered := registerTestUser(t, env, "Alice", "alice@example.com", "supersecret")

	wrong := map[string]string{"currentPassword": "nope", "newPassword": "another1"}
	c, w := newContext(http.MethodPut, "/api/auth/change-password", wrong, registered.User.ID, 0)
	handler.ChangePassword(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, services.ErrCurrentPasswordIncorrect.Message, decodeEnvelope(t, w, nil).Message)

	right := map[string]string{"currentPassword": "supersecret", "newPassword": "another1"}
	c, w = newContext(http.MethodPut, "/api/auth/change-password", right, registered.User.ID, 0)
	handler.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.auth.Login(context.Background(), services.LoginInput{Email: "alice@example.com", Password: "another1"})
	require.NoError(t, err)
}

func TestAuthHandler_Logout(t *testing.T) {
	_, handler := setupAuthTestEnv(t)

	c, w := newContext(http.MethodPost, "/api/auth/logout", nil, 1, 0)
	handler.Logout(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Logged out successfully", decodeEnvelope(t, w, nil).Message)
}
