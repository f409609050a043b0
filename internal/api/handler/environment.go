package handler

import (
	"net/http"

	"github.com/edvin/grantdesk/internal/api/request"
	"github.com/edvin/grantdesk/internal/api/response"
	"github.com/edvin/grantdesk/internal/config"
)

type Environment struct {
	store    Store
	resolver *config.Resolver
}

func NewEnvironment(store Store, resolver *config.Resolver) *Environment {
	return &Environment{store: store, resolver: resolver}
}

// Get godoc
//
//	@Summary		Get the resolved configuration
//	@Tags			Environment
//	@Success		200	{object}	config.Snapshot
//	@Router			/environment [get]
func (h *Environment) Get(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.resolver.Snapshot())
}

// Switch godoc
//
//	@Summary		Switch the active environment
//	@Tags			Environment
//	@Param			body	body		request.SetEnvironment	true	"Target environment"
//	@Success		200		{object}	config.Snapshot
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/environment [put]
func (h *Environment) Switch(w http.ResponseWriter, r *http.Request) {
	var req request.SetEnvironment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SwitchEnvironment(r.Context(), config.Environment(req.Environment)); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, h.resolver.Snapshot())
}
