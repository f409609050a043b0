package handler

import (
	"net/http"

	"github.com/edvin/grantdesk/internal/api/request"
	"github.com/edvin/grantdesk/internal/api/response"
)

type Automation struct {
	client AutomationClient
}

func NewAutomation(client AutomationClient) *Automation {
	return &Automation{client: client}
}

// Search godoc
//
//	@Summary		Trigger a grant search workflow
//	@Tags			Automation
//	@Param			body	body		request.TriggerSearch	true	"Search parameters"
//	@Success		200		{object}	result.Result[any]
//	@Failure		502		{object}	result.Result[any]
//	@Router			/searches [post]
func (h *Automation) Search(w http.ResponseWriter, r *http.Request) {
	var req request.TriggerSearch
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusOK, h.client.TriggerByWebhook(r.Context(), req.Params()))
}

// Research godoc
//
//	@Summary		Start a research project
//	@Tags			Automation
//	@Param			body	body		request.CreateResearch	true	"Research configuration"
//	@Success		202		{object}	result.Result[n8n.ResearchStarted]
//	@Failure		422		{object}	result.Result[n8n.ResearchStarted]
//	@Router			/research [post]
func (h *Automation) Research(w http.ResponseWriter, r *http.Request) {
	var req request.CreateResearch
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteResult(w, http.StatusAccepted, h.client.CreateAndTriggerResearch(r.Context(), req.Config()))
}

// Connectivity godoc
//
//	@Summary		Check that n8n is reachable
//	@Tags			Automation
//	@Success		200	{object}	result.Result[n8n.Connectivity]
//	@Failure		502	{object}	result.Result[n8n.Connectivity]
//	@Router			/automation/connectivity [get]
func (h *Automation) Connectivity(w http.ResponseWriter, r *http.Request) {
	response.WriteResult(w, http.StatusOK, h.client.TestConnectivity(r.Context()))
}

// Config godoc
//
//	@Summary		Describe the automation endpoints in use
//	@Tags			Automation
//	@Success		200	{object}	n8n.Info
//	@Router			/automation/config [get]
func (h *Automation) Config(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.client.ConfigInfo())
}
