package handler

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/dashboard"
	"github.com/edvin/grantdesk/internal/n8n"
	"github.com/edvin/grantdesk/internal/result"
)

// mockStore implements Store for handler tests.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Snapshot() dashboard.Snapshot {
	return m.Called().Get(0).(dashboard.Snapshot)
}

func (m *mockStore) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) ToggleTableMode(ctx context.Context) result.Result[[]backend.Grant] {
	return m.Called(ctx).Get(0).(result.Result[[]backend.Grant])
}

func (m *mockStore) QueryGrants(ctx context.Context, f backend.Filter) result.Result[[]backend.Grant] {
	return m.Called(ctx, f).Get(0).(result.Result[[]backend.Grant])
}

func (m *mockStore) CreateGrant(ctx context.Context, data backend.Grant) result.Result[backend.Grant] {
	return m.Called(ctx, data).Get(0).(result.Result[backend.Grant])
}

func (m *mockStore) UpdateGrant(ctx context.Context, id string, data backend.Grant) result.Result[backend.Grant] {
	return m.Called(ctx, id, data).Get(0).(result.Result[backend.Grant])
}

func (m *mockStore) DeleteGrant(ctx context.Context, id string) result.Result[string] {
	return m.Called(ctx, id).Get(0).(result.Result[string])
}

func (m *mockStore) FetchWorkflows(ctx context.Context) result.Result[[]n8n.Workflow] {
	return m.Called(ctx).Get(0).(result.Result[[]n8n.Workflow])
}

func (m *mockStore) ToggleWorkflow(ctx context.Context, id string, active bool) result.Result[json.RawMessage] {
	return m.Called(ctx, id, active).Get(0).(result.Result[json.RawMessage])
}

func (m *mockStore) SwitchEnvironment(ctx context.Context, env config.Environment) error {
	return m.Called(ctx, env).Error(0)
}

// mockAutomation implements AutomationClient for handler tests.
type mockAutomation struct {
	mock.Mock
}

func (m *mockAutomation) GetWorkflowStatus(ctx context.Context, id string) result.Result[n8n.Workflow] {
	return m.Called(ctx, id).Get(0).(result.Result[n8n.Workflow])
}

func (m *mockAutomation) ListExecutions(ctx context.Context, id string, limit int) result.Result[[]n8n.Execution] {
	return m.Called(ctx, id, limit).Get(0).(result.Result[[]n8n.Execution])
}

func (m *mockAutomation) ExecuteWorkflow(ctx context.Context, id string, input map[string]any) result.Result[json.RawMessage] {
	return m.Called(ctx, id, input).Get(0).(result.Result[json.RawMessage])
}

func (m *mockAutomation) TriggerByWebhook(ctx context.Context, p n8n.SearchParams) result.Result[json.RawMessage] {
	return m.Called(ctx, p).Get(0).(result.Result[json.RawMessage])
}

func (m *mockAutomation) CreateAndTriggerResearch(ctx context.Context, rc n8n.ResearchConfig) result.Result[n8n.ResearchStarted] {
	return m.Called(ctx, rc).Get(0).(result.Result[n8n.ResearchStarted])
}

func (m *mockAutomation) TestConnectivity(ctx context.Context) result.Result[n8n.Connectivity] {
	return m.Called(ctx).Get(0).(result.Result[n8n.Connectivity])
}

func (m *mockAutomation) ConfigInfo() n8n.Info {
	return m.Called().Get(0).(n8n.Info)
}
