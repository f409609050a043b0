package handler

import (
	"context"
	"encoding/json"

	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/dashboard"
	"github.com/edvin/grantdesk/internal/n8n"
	"github.com/edvin/grantdesk/internal/result"
)

// Store is the dashboard state the handlers read and drive.
type Store interface {
	Snapshot() dashboard.Snapshot
	Refresh(ctx context.Context) error
	ToggleTableMode(ctx context.Context) result.Result[[]backend.Grant]
	QueryGrants(ctx context.Context, f backend.Filter) result.Result[[]backend.Grant]
	CreateGrant(ctx context.Context, data backend.Grant) result.Result[backend.Grant]
	UpdateGrant(ctx context.Context, id string, data backend.Grant) result.Result[backend.Grant]
	DeleteGrant(ctx context.Context, id string) result.Result[string]
	FetchWorkflows(ctx context.Context) result.Result[[]n8n.Workflow]
	ToggleWorkflow(ctx context.Context, id string, active bool) result.Result[json.RawMessage]
	SwitchEnvironment(ctx context.Context, env config.Environment) error
}

// AutomationClient is the n8n client as used by the handlers.
type AutomationClient interface {
	GetWorkflowStatus(ctx context.Context, id string) result.Result[n8n.Workflow]
	ListExecutions(ctx context.Context, id string, limit int) result.Result[[]n8n.Execution]
	ExecuteWorkflow(ctx context.Context, id string, input map[string]any) result.Result[json.RawMessage]
	TriggerByWebhook(ctx context.Context, p n8n.SearchParams) result.Result[json.RawMessage]
	CreateAndTriggerResearch(ctx context.Context, rc n8n.ResearchConfig) result.Result[n8n.ResearchStarted]
	TestConnectivity(ctx context.Context) result.Result[n8n.Connectivity]
	ConfigInfo() n8n.Info
}

// snapshotAfter turns the outcome of a state change into a result carrying
// the new snapshot.
func snapshotAfter[T any](store Store, res result.Result[T]) result.Result[dashboard.Snapshot] {
	if !res.Success {
		return result.FailureFrom[dashboard.Snapshot](res)
	}
	return result.Success(store.Snapshot())
}
