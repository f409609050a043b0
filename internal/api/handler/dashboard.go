package handler

import (
	"net/http"

	"github.com/edvin/grantdesk/internal/api/response"
)

type Dashboard struct {
	store Store
}

func NewDashboard(store Store) *Dashboard {
	return &Dashboard{store: store}
}

// State godoc
//
//	@Summary		Get the dashboard state
//	@Tags			Dashboard
//	@Success		200	{object}	dashboard.Snapshot
//	@Router			/state [get]
func (h *Dashboard) State(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.store.Snapshot())
}

// Refresh godoc
//
//	@Summary		Reload grants and workflows
//	@Tags			Dashboard
//	@Success		200	{object}	dashboard.Snapshot
//	@Failure		503	{object}	response.ErrorResponse
//	@Router			/refresh [post]
func (h *Dashboard) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Refresh(r.Context()); err != nil {
		response.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, h.store.Snapshot())
}

// ToggleTableMode godoc
//
//	@Summary		Switch between the test and the normal grants table
//	@Tags			Dashboard
//	@Success		200	{object}	result.Result[dashboard.Snapshot]
//	@Failure		502	{object}	result.Result[dashboard.Snapshot]
//	@Router			/table-mode/toggle [post]
func (h *Dashboard) ToggleTableMode(w http.ResponseWriter, r *http.Request) {
	res := h.store.ToggleTableMode(r.Context())
	response.WriteResult(w, http.StatusOK, snapshotAfter(h.store, res))
}
