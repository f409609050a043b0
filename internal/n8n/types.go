package n8n

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/edvin/grantdesk/internal/config"
)

// ID is an n8n identifier. Older n8n versions emit numeric ids, newer ones
// strings; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("n8n id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Tag labels a workflow.
type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Workflow is an automation definition. Only Active is changed from here.
type Workflow struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Tags      []Tag  `json:"tags,omitempty"`
}

// Execution is one run of a workflow.
type Execution struct {
	ID         ID     `json:"id"`
	WorkflowID ID     `json:"workflowId"`
	Status     string `json:"status,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Finished   bool   `json:"finished"`
	StartedAt  string `json:"startedAt,omitempty"`
	StoppedAt  string `json:"stoppedAt,omitempty"`
}

// SearchParams are the inputs of a webhook-triggered grant search. Zero
// values take the automation defaults.
type SearchParams struct {
	Terms           []string          `json:"terms"`
	DateRange       map[string]string `json:"dateRange"`
	Categories      []string          `json:"categories"`
	MinAmount       float64           `json:"minAmount"`
	MaxAmount       float64           `json:"maxAmount"`
	Sources         []string          `json:"sources"`
	GeographicScope string            `json:"geographic_scope"`
}

// AmountRange bounds grant amounts in a research request.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ResearchConfig describes a research project to start. Zero values take the
// automation defaults.
type ResearchConfig struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	SearchTerms     []string          `json:"searchTerms"`
	TargetSectors   []string          `json:"targetSectors"`
	GeographicScope string            `json:"geographicScope"`
	AmountRange     *AmountRange      `json:"amountRange"`
	DeadlineRange   map[string]string `json:"deadlineRange"`
	Sources         []string          `json:"sources"`
}

// ResearchStarted is returned once the research workflow accepted a request.
type ResearchStarted struct {
	ExecutionID ID              `json:"executionId"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
}

// Connectivity reports how n8n was reached.
type Connectivity struct {
	Connected bool   `json:"connected"`
	Method    string `json:"method"`
}

// Connectivity methods.
const (
	MethodAPI     = "API"
	MethodWebhook = "Webhook"
)

// Info describes the client's configuration without exposing the key.
type Info struct {
	BaseURL     string             `json:"baseUrl"`
	WebhookURL  string             `json:"webhookUrl"`
	HasAPIKey   bool               `json:"hasApiKey"`
	Environment config.Environment `json:"environment"`
}

type searchPayload struct {
	SearchTerms     []string           `json:"searchTerms"`
	DateRange       map[string]string  `json:"dateRange"`
	Categories      []string           `json:"categories"`
	MinAmount       float64            `json:"minAmount"`
	MaxAmount       float64            `json:"maxAmount"`
	Sources         []string           `json:"sources"`
	GeographicScope string             `json:"geographic_scope"`
	Environment     config.Environment `json:"environment"`
	Timestamp       string             `json:"timestamp"`
}

type researchPayload struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	SearchTerms     []string           `json:"searchTerms"`
	TargetSectors   []string           `json:"targetSectors"`
	GeographicScope string             `json:"geographicScope"`
	AmountRange     AmountRange        `json:"amountRange"`
	DeadlineRange   map[string]string  `json:"deadlineRange"`
	Sources         []string           `json:"sources"`
	Environment     config.Environment `json:"environment"`
	Timestamp       string             `json:"timestamp"`
}

type pingPayload struct {
	Test      bool   `json:"test"`
	Timestamp string `json:"timestamp"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}
