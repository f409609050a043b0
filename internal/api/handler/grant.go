package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/grantdesk/internal/api/request"
	"github.com/edvin/grantdesk/internal/api/response"
	"github.com/edvin/grantdesk/internal/backend"
)

type Grant struct {
	store Store
}

func NewGrant(store Store) *Grant {
	return &Grant{store: store}
}

// List godoc
//
//	@Summary		Query grants in the current table
//	@Tags			Grants
//	@Param			q				query		string	false	"Title search"
//	@Param			status			query		string	false	"Status"
//	@Param			amount_min		query		number	false	"Minimum amount"
//	@Param			amount_max		query		number	false	"Maximum amount"
//	@Param			deadline_from	query		string	false	"Deadline from (YYYY-MM-DD)"
//	@Param			deadline_to		query		string	false	"Deadline to (YYYY-MM-DD)"
//	@Param			order			query		string	false	"Order column, optionally .asc or .desc"
//	@Param			limit			query		int		false	"Maximum rows"
//	@Success		200				{object}	result.Result[[]backend.Grant]
//	@Failure		400				{object}	response.ErrorResponse
//	@Router			/grants [get]
func (h *Grant) List(w http.ResponseWriter, r *http.Request) {
	f, err := request.ParseGrantFilter(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.store.QueryGrants(r.Context(), f))
}

// Create godoc
//
//	@Summary		Create a grant
//	@Tags			Grants
//	@Param			body	body		object	true	"Grant fields"
//	@Success		201		{object}	result.Result[backend.Grant]
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/grants [post]
func (h *Grant) Create(w http.ResponseWriter, r *http.Request) {
	data, err := request.DecodeObject(r, true)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusCreated, h.store.CreateGrant(r.Context(), backend.Grant(data)))
}

// Update godoc
//
//	@Summary		Update a grant
//	@Tags			Grants
//	@Param			id		path		string	true	"Grant ID"
//	@Param			body	body		object	true	"Fields to change"
//	@Success		200		{object}	result.Result[backend.Grant]
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/grants/{id} [put]
func (h *Grant) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := request.DecodeObject(r, true)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.store.UpdateGrant(r.Context(), id, backend.Grant(data)))
}

// Delete godoc
//
//	@Summary		Delete a grant
//	@Tags			Grants
//	@Param			id	path		string	true	"Grant ID"
//	@Success		200	{object}	result.Result[string]
//	@Failure		400	{object}	response.ErrorResponse
//	@Router			/grants/{id} [delete]
func (h *Grant) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.store.DeleteGrant(r.Context(), id))
}
