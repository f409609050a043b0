package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/grantdesk/internal/api/request"
	"github.com/edvin/grantdesk/internal/api/response"
)

type Workflow struct {
	store      Store
	automation AutomationClient
}

func NewWorkflow(store Store, automation AutomationClient) *Workflow {
	return &Workflow{store: store, automation: automation}
}

// List godoc
//
//	@Summary		Reload and list workflows
//	@Tags			Workflows
//	@Success		200	{object}	result.Result[[]n8n.Workflow]
//	@Failure		400	{object}	result.Result[[]n8n.Workflow]
//	@Router			/workflows [get]
func (h *Workflow) List(w http.ResponseWriter, r *http.Request) {
	response.WriteResult(w, http.StatusOK, h.store.FetchWorkflows(r.Context()))
}

// Get godoc
//
//	@Summary		Get a workflow
//	@Tags			Workflows
//	@Param			id	path		string	true	"Workflow ID"
//	@Success		200	{object}	result.Result[n8n.Workflow]
//	@Router			/workflows/{id} [get]
func (h *Workflow) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.automation.GetWorkflowStatus(r.Context(), id))
}

// Executions godoc
//
//	@Summary		List recent executions of a workflow
//	@Tags			Workflows
//	@Param			id		path		string	true	"Workflow ID"
//	@Param			limit	query		int		false	"Maximum executions"
//	@Success		200		{object}	result.Result[[]n8n.Execution]
//	@Router			/workflows/{id}/executions [get]
func (h *Workflow) Executions(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := request.ParseLimit(r, 0)
	response.WriteResult(w, http.StatusOK, h.automation.ListExecutions(r.Context(), id, limit))
}

// Activate godoc
//
//	@Summary		Activate or deactivate a workflow
//	@Tags			Workflows
//	@Param			id		path		string						true	"Workflow ID"
//	@Param			body	body		request.SetWorkflowActive	true	"Desired state"
//	@Success		200		{object}	result.Result[any]
//	@Router			/workflows/{id}/activate [post]
func (h *Workflow) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.SetWorkflowActive
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.store.ToggleWorkflow(r.Context(), id, *req.Active))
}

// Execute godoc
//
//	@Summary		Run a workflow
//	@Tags			Workflows
//	@Param			id		path		string	true	"Workflow ID"
//	@Param			body	body		object	false	"Workflow input"
//	@Success		200		{object}	result.Result[any]
//	@Router			/workflows/{id}/execute [post]
func (h *Workflow) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := request.DecodeObject(r, false)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.automation.ExecuteWorkflow(r.Context(), id, input))
}
