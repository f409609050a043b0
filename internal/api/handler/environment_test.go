package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/grantdesk/internal/config"
)

func newTestResolver(t *testing.T) *config.Resolver {
	t.Helper()
	r := config.NewResolver(&config.Config{
		Environment:     config.Test,
		N8NAPIKey:       "secret",
		SupabaseAnonKey: "anon",
		GrantsTable:     "grants",
		GrantsTestTable: "grants_test",
	}, zerolog.Nop())
	require.NoError(t, r.Initialize(context.Background()))
	return r
}

func TestEnvironmentGet(t *testing.T) {
	h := NewEnvironment(&mockStore{}, newTestResolver(t))

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/environment", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResult(rec)
	assert.Equal(t, "test", body["environment"])
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "anon")
}

func TestEnvironmentSwitch(t *testing.T) {
	resolver := newTestResolver(t)
	store := &mockStore{}
	store.On("SwitchEnvironment", mock.Anything, config.Production).
		Run(func(args mock.Arguments) {
			require.NoError(t, resolver.SwitchEnvironment(config.Production))
		}).
		Return(nil)
	h := NewEnvironment(store, resolver)

	rec := httptest.NewRecorder()
	h.Switch(rec, newRequestRaw(http.MethodPut, "/environment", `{"environment":"production"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "production", decodeResult(rec)["environment"])
	store.AssertExpectations(t)
}

func TestEnvironmentSwitch_Invalid(t *testing.T) {
	store := &mockStore{}
	h := NewEnvironment(store, newTestResolver(t))

	rec := httptest.NewRecorder()
	h.Switch(rec, newRequestRaw(http.MethodPut, "/environment", `{"environment":"staging"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "SwitchEnvironment", mock.Anything, mock.Anything)
}

func TestEnvironmentSwitch_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("SwitchEnvironment", mock.Anything, config.Development).Return(errors.New("switch failed"))
	h := NewEnvironment(store, newTestResolver(t))

	rec := httptest.NewRecorder()
	h.Switch(rec, newRequestRaw(http.MethodPut, "/environment", `{"environment":"development"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "switch failed", decodeErrorResponse(rec)["error"])
}
