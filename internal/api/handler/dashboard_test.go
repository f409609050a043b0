package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/dashboard"
	"github.com/edvin/grantdesk/internal/result"
)

func readySnapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Phase:       dashboard.PhaseReady,
		Table:       "grants_test",
		Environment: config.Test,
		Grants:      []backend.Grant{{"id": "t-1"}},
	}
}

func TestDashboardState(t *testing.T) {
	store := &mockStore{}
	store.On("Snapshot").Return(readySnapshot())
	h := NewDashboard(store)

	rec := httptest.NewRecorder()
	h.State(rec, newRequest(http.MethodGet, "/state", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResult(rec)
	assert.Equal(t, "ready", body["phase"])
	assert.Equal(t, "grants_test", body["table"])
	assert.Equal(t, "test", body["environment"])
}

func TestDashboardRefresh(t *testing.T) {
	store := &mockStore{}
	store.On("Refresh", mock.Anything).Return(nil)
	store.On("Snapshot").Return(readySnapshot())
	h := NewDashboard(store)

	rec := httptest.NewRecorder()
	h.Refresh(rec, newRequest(http.MethodPost, "/refresh", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestDashboardRefresh_PreconditionFailure(t *testing.T) {
	store := &mockStore{}
	store.On("Refresh", mock.Anything).Return(errors.New("load dashboard: configuration not initialized"))
	h := NewDashboard(store)

	rec := httptest.NewRecorder()
	h.Refresh(rec, newRequest(http.MethodPost, "/refresh", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "not initialized")
}

func TestDashboardToggleTableMode(t *testing.T) {
	store := &mockStore{}
	store.On("ToggleTableMode", mock.Anything).Return(result.Success([]backend.Grant{}))
	snap := readySnapshot()
	snap.TestMode = true
	store.On("Snapshot").Return(snap)
	h := NewDashboard(store)

	rec := httptest.NewRecorder()
	h.ToggleTableMode(rec, newRequest(http.MethodPost, "/table-mode/toggle", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResult(rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["data"].(map[string]any)["testMode"])
}

func TestDashboardToggleTableMode_FetchFailure(t *testing.T) {
	store := &mockStore{}
	store.On("ToggleTableMode", mock.Anything).
		Return(result.Failure[[]backend.Grant]("fetch grants from grants: connection refused", result.Network, nil))
	h := NewDashboard(store)

	rec := httptest.NewRecorder()
	h.ToggleTableMode(rec, newRequest(http.MethodPost, "/table-mode/toggle", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeResult(rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NETWORK", body["errorType"])
	store.AssertNotCalled(t, "Snapshot")
}
