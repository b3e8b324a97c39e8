package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"user-service/internal/api/handlers"
	"user-service/internal/api/middleware"
	"user-service/internal/infrastructure/repository"
	"user-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    json.RawMessage          `json:"data"`
	Errors  json.RawMessage          `json:"errors"`
	Links   map[string]handlers.Link `json:"_links"`
}

func newTestRouter(checks map[string]handlers.Checker) *gin.Engine {
	svc := service.NewUserService(repository.NewMemoryUserRepository(), nil)
	return NewRouter(Dependencies{UserService: svc, HealthChecks: checks})
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeUser(t *testing.T, env envelope) handlers.UserResponse {
	t.Helper()
	var u handlers.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u
}

func createUser(t *testing.T, r http.Handler, name, email string, age int) handlers.UserResponse {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/users", gin.H{"name": name, "email": email, "age": age})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeUser(t, env)
}

func TestCreateUser(t *testing.T) {
	r := newTestRouter(nil)

	w, env := do(t, r, http.MethodPost, "/api/users", gin.H{"name": "Ann", "email": "ann@x.com", "age": 30})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	u := decodeUser(t, env)
	assert.EqualValues(t, 1, u.ID)
	assert.Equal(t, "Ann", u.Name)
	require.NotNil(t, u.Age)
	assert.Equal(t, 30, *u.Age)
	assert.Equal(t, "/api/users/1", u.Links["self"].Href)
	assert.Equal(t, "/api/users/update/1", u.Links["update"].Href)
	assert.Equal(t, "/api/users/delete/1", u.Links["delete"].Href)
	assert.Equal(t, "/api/users", env.Links["all-users"].Href)

	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCreateUser_Validation(t *testing.T) {
	r := newTestRouter(nil)

	w, env := do(t, r, http.MethodPost, "/api/users", gin.H{"name": "A", "email": "not-an-email", "age": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)

	var fieldErrs []map[string]string
	require.NoError(t, json.Unmarshal(env.Errors, &fieldErrs))
	assert.Len(t, fieldErrs, 3)
}

func TestCreateUser_MalformedJSON(t *testing.T) {
	r := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r := newTestRouter(nil)
	createUser(t, r, "Ann", "ann@x.com", 30)

	w, env := do(t, r, http.MethodPost, "/api/users", gin.H{"name": "Other", "email": "ann@x.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Message, "already exists")
}

func TestGetUser(t *testing.T) {
	r := newTestRouter(nil)
	ann := createUser(t, r, "Ann", "ann@x.com", 30)

	w, env := do(t, r, http.MethodGet, "/api/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ann.Email, decodeUser(t, env).Email)

	w, _ = do(t, r, http.MethodGet, "/api/users/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndCount(t *testing.T) {
	r := newTestRouter(nil)

	w, env := do(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))

	createUser(t, r, "Ann", "ann@x.com", 30)
	createUser(t, r, "Bob", "bob@x.com", 40)

	_, env = do(t, r, http.MethodGet, "/api/users", nil)
	var users []handlers.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)

	w, env = do(t, r, http.MethodGet, "/api/users/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count handlers.CountResponse
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.EqualValues(t, 2, count.Count)
}

func TestUpdateUser(t *testing.T) {
	r := newTestRouter(nil)
	createUser(t, r, "Ann", "ann@x.com", 30)
	createUser(t, r, "Bob", "bob@x.com", 40)

	w, env := do(t, r, http.MethodPut, "/api/users/update/1", gin.H{"name": "Anna"})
	require.Equal(t, http.StatusOK, w.Code)
	u := decodeUser(t, env)
	assert.Equal(t, "Anna", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.Equal(t, 30, *u.Age)

	w, _ = do(t, r, http.MethodPut, "/api/users/update/1", gin.H{"email": "bob@x.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	_, env = do(t, r, http.MethodGet, "/api/users/1", nil)
	assert.Equal(t, "ann@x.com", decodeUser(t, env).Email)

	w, _ = do(t, r, http.MethodPut, "/api/users/update/99", gin.H{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser(t *testing.T) {
	r := newTestRouter(nil)
	createUser(t, r, "Ann", "ann@x.com", 30)

	w, _ := do(t, r, http.MethodDelete, "/api/users/delete/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/users/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/users/delete/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchUsers(t *testing.T) {
	r := newTestRouter(nil)
	createUser(t, r, "John Smith", "john@x.com", 30)
	createUser(t, r, "JOHNNY", "johnny@x.com", 30)
	createUser(t, r, "Ann", "ann@x.com", 30)

	w, env := do(t, r, http.MethodGet, "/api/users/search?name=john", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []handlers.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)

	w, _ = do(t, r, http.MethodGet, "/api/users/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(nil)
	id := "3f2c5a6e-8a43-4b52-9f0e-2d1f3b0c9a11"

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(middleware.RequestIDHeader))
}

func TestHealthChecks(t *testing.T) {
	healthy := newTestRouter(map[string]handlers.Checker{
		"database": func(context.Context) error { return nil },
	})
	w, _ := do(t, healthy, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, healthy, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	broken := newTestRouter(map[string]handlers.Checker{
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	w, _ = do(t, broken, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = do(t, broken, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = do(t, broken, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
