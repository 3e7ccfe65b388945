package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop/internal/store"
	"shop/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateUserIsOneShot(t *testing.T) {
	app := newTestApplication()
	users := &mockUsersStore{users: map[int64]*store.User{
		7: {ID: 7, Email: "new@example.com", FirstName: "Ada"},
	}}
	app.store = store.Storage{Users: users}
	mux := app.mount()

	tok := app.accountTokens.Make(token.Account{ID: 7, Email: "new@example.com", Active: false})

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v1/users/activate/7/%s", tok), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, users.users[7].IsActive)

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v1/users/activate/7/%s", tok), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivateUserRejectsOrderToken(t *testing.T) {
	app := newTestApplication()
	users := &mockUsersStore{users: map[int64]*store.User{
		7: {ID: 7, Email: "new@example.com"},
	}}
	app.store = store.Storage{Users: users}
	mux := app.mount()

	// same secret, different key salt: must not cross over
	tok := app.orderTokens.Make(token.Account{ID: 7, Email: "new@example.com", Active: false})

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v1/users/activate/7/%s", tok), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, users.users[7].IsActive)
}

func TestLoginRequiresActivation(t *testing.T) {
	app := newTestApplication()

	inactive := &store.User{ID: 1, Email: "inactive@example.com"}
	require.NoError(t, inactive.Password.Set("correct-horse"))
	active := &store.User{ID: 2, Email: "active@example.com", IsActive: true}
	require.NoError(t, active.Password.Set("correct-horse"))

	app.store = store.Storage{Users: &mockUsersStore{users: map[int64]*store.User{
		1: inactive,
		2: active,
	}}}
	mux := app.mount()

	for _, tc := range []struct {
		email  string
		status int
	}{
		{"inactive@example.com", http.StatusUnauthorized},
		{"active@example.com", http.StatusOK},
	} {
		body := fmt.Sprintf(`{"email":%q,"password":"correct-horse"}`, tc.email)
		req := httptest.NewRequest(http.MethodPost, "/v1/authentication/token", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, tc.status, rec.Code, tc.email)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newTestApplication()

	user := &store.User{ID: 2, Email: "active@example.com", IsActive: true}
	require.NoError(t, user.Password.Set("correct-horse"))
	app.store = store.Storage{Users: &mockUsersStore{users: map[int64]*store.User{2: user}}}
	mux := app.mount()

	body := `{"email":"active@example.com","password":"wrong-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/authentication/token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginReturnsTokenPair(t *testing.T) {
	app := newTestApplication()

	user := &store.User{ID: 2, Email: "active@example.com", IsActive: true}
	require.NoError(t, user.Password.Set("correct-horse"))
	app.store = store.Storage{Users: &mockUsersStore{users: map[int64]*store.User{2: user}}}
	mux := app.mount()

	body := `{"email":"active@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/authentication/token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.NotEmpty(t, resp.Data.RefreshToken)
	assert.Equal(t, int64(2), resp.Data.UserID)

	// the access token must pass the auth middleware
	jwtToken, err := app.authenticator.ValidateAccessToken(resp.Data.AccessToken)
	require.NoError(t, err)
	assert.True(t, jwtToken.Valid)
}
