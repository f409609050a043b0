// Package n8n triggers and inspects the grant research workflows running on
// n8n. Every operation returns a result.Result and never panics.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/metrics"
	"github.com/edvin/grantdesk/internal/result"
)

const (
	apiKeyHeader    = "X-N8N-API-KEY"
	maxResponseSize = 4 << 20
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Client talks to the n8n webhook and REST API described by the resolver's
// automation config.
type Client struct {
	resolver    *config.Resolver
	logger      zerolog.Logger
	httpClient  *http.Client
	now         func() time.Time
	initialized atomic.Bool
}

// NewClient returns a client reading its endpoints from resolver. Initialize
// must be called before use.
func NewClient(resolver *config.Resolver, logger zerolog.Logger) *Client {
	return &Client{
		resolver: resolver,
		logger:   logger.With().Str("component", "n8n").Logger(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Initialize fails with config.ErrNotInitialized when the resolver is not ready.
func (c *Client) Initialize() error {
	if !c.resolver.Ready() {
		return fmt.Errorf("n8n client: %w", config.ErrNotInitialized)
	}
	c.initialized.Store(true)
	return nil
}

// TriggerByWebhook starts a grant search. The result wraps the webhook's raw
// response body.
func (c *Client) TriggerByWebhook(ctx context.Context, p SearchParams) result.Result[json.RawMessage] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[json.RawMessage](c, "trigger", start, "trigger workflow", err)
	}

	ac := c.resolver.AutomationConfig()
	payload := searchPayload{
		SearchTerms:     orEmpty(p.Terms),
		DateRange:       orEmptyMap(p.DateRange),
		Categories:      orEmpty(p.Categories),
		MinAmount:       p.MinAmount,
		MaxAmount:       p.MaxAmount,
		Sources:         p.Sources,
		GeographicScope: p.GeographicScope,
		Environment:     c.resolver.Environment(),
		Timestamp:       c.timestamp(),
	}
	if payload.MinAmount == 0 {
		payload.MinAmount = ac.DefaultMinAmount
	}
	if payload.MaxAmount == 0 {
		payload.MaxAmount = ac.DefaultMaxAmount
	}
	if len(payload.Sources) == 0 {
		payload.Sources = ac.DefaultSources
	}
	if payload.GeographicScope == "" {
		payload.GeographicScope = ac.DefaultGeographicScope
	}

	body, err := c.webhook(ctx, payload)
	if err != nil {
		return fail[json.RawMessage](c, "trigger", start, "trigger workflow", err)
	}

	metrics.ObserveUpstream("n8n", "trigger", "success", start)
	c.logger.Info().Strs("terms", payload.SearchTerms).Msg("workflow triggered")
	return result.Success(body)
}

// ListWorkflows returns every workflow visible to the API key.
func (c *Client) ListWorkflows(ctx context.Context) result.Result[[]Workflow] {
	start := time.Now()
	var resp listEnvelope[Workflow]
	if err := c.api(ctx, http.MethodGet, "workflows", nil, nil, &resp); err != nil {
		return fail[[]Workflow](c, "list_workflows", start, "list workflows", err)
	}
	if resp.Data == nil {
		resp.Data = []Workflow{}
	}

	metrics.ObserveUpstream("n8n", "list_workflows", "success", start)
	c.logger.Debug().Int("count", len(resp.Data)).Msg("workflows listed")
	return result.Success(resp.Data)
}

// GetWorkflowStatus returns one workflow.
func (c *Client) GetWorkflowStatus(ctx context.Context, id string) result.Result[Workflow] {
	start := time.Now()
	if id == "" {
		return fail[Workflow](c, "get_workflow", start, "get workflow", missingID())
	}

	var wf Workflow
	if err := c.api(ctx, http.MethodGet, "workflows/"+url.PathEscape(id), nil, nil, &wf); err != nil {
		return fail[Workflow](c, "get_workflow", start, "get workflow "+id, err)
	}

	metrics.ObserveUpstream("n8n", "get_workflow", "success", start)
	return result.Success(wf)
}

// ListExecutions returns the latest executions of a workflow. A limit of
// zero or less uses the configured default.
func (c *Client) ListExecutions(ctx context.Context, id string, limit int) result.Result[[]Execution] {
	start := time.Now()
	if id == "" {
		return fail[[]Execution](c, "list_executions", start, "list executions", missingID())
	}
	if limit <= 0 {
		limit = c.resolver.AutomationConfig().ExecutionsLimit
	}

	q := url.Values{}
	q.Set("workflowId", id)
	q.Set("limit", strconv.Itoa(limit))

	var resp listEnvelope[Execution]
	if err := c.api(ctx, http.MethodGet, "executions", q, nil, &resp); err != nil {
		return fail[[]Execution](c, "list_executions", start, "list executions of "+id, err)
	}
	if resp.Data == nil {
		resp.Data = []Execution{}
	}

	metrics.ObserveUpstream("n8n", "list_executions", "success", start)
	return result.Success(resp.Data)
}

// SetWorkflowActive activates or deactivates a workflow. The result wraps
// n8n's response body.
func (c *Client) SetWorkflowActive(ctx context.Context, id string, active bool) result.Result[json.RawMessage] {
	start := time.Now()
	if id == "" {
		return fail[json.RawMessage](c, "set_active", start, "change workflow state", missingID())
	}

	var body json.RawMessage
	path := "workflows/" + url.PathEscape(id) + "/activate"
	if err := c.api(ctx, http.MethodPost, path, nil, map[string]bool{"active": active}, &body); err != nil {
		return fail[json.RawMessage](c, "set_active", start, "change workflow state of "+id, err)
	}

	metrics.ObserveUpstream("n8n", "set_active", "success", start)
	c.logger.Info().Str("workflow_id", id).Bool("active", active).Msg("workflow state changed")
	return result.Success(body)
}

// ExecuteWorkflow runs a workflow with input. The environment and a
// timestamp are added to the input.
func (c *Client) ExecuteWorkflow(ctx context.Context, id string, input map[string]any) result.Result[json.RawMessage] {
	start := time.Now()
	if id == "" {
		return fail[json.RawMessage](c, "execute", start, "execute workflow", missingID())
	}

	payload := make(map[string]any, len(input)+2)
	for k, v := range input {
		payload[k] = v
	}
	payload["environment"] = c.resolver.Environment()
	payload["timestamp"] = c.timestamp()

	var body json.RawMessage
	path := "workflows/" + url.PathEscape(id) + "/execute"
	if err := c.api(ctx, http.MethodPost, path, nil, payload, &body); err != nil {
		return fail[json.RawMessage](c, "execute", start, "execute workflow "+id, err)
	}

	metrics.ObserveUpstream("n8n", "execute", "success", start)
	c.logger.Info().Str("workflow_id", id).Msg("workflow executed")
	return result.Success(body)
}

// CreateAndTriggerResearch starts a research project through the webhook.
// Transport failures come back as NETWORK; a response that reports failure
// in its body comes back as BUSINESS_LOGIC.
func (c *Client) CreateAndTriggerResearch(ctx context.Context, rc ResearchConfig) result.Result[ResearchStarted] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[ResearchStarted](c, "research", start, "start research", err)
	}

	ac := c.resolver.AutomationConfig()
	payload := researchPayload{
		Name:            rc.Name,
		Description:     rc.Description,
		SearchTerms:     orEmpty(rc.SearchTerms),
		TargetSectors:   orEmpty(rc.TargetSectors),
		GeographicScope: rc.GeographicScope,
		AmountRange:     AmountRange{Min: ac.DefaultMinAmount, Max: ac.DefaultMaxAmount},
		DeadlineRange:   orEmptyMap(rc.DeadlineRange),
		Sources:         rc.Sources,
		Environment:     c.resolver.Environment(),
		Timestamp:       c.timestamp(),
	}
	if payload.GeographicScope == "" {
		payload.GeographicScope = ac.DefaultGeographicScope
	}
	if rc.AmountRange != nil {
		payload.AmountRange = *rc.AmountRange
	}
	if len(payload.Sources) == 0 {
		payload.Sources = ac.DefaultSources
	}

	body, err := c.webhook(ctx, payload)
	if err != nil {
		return fail[ResearchStarted](c, "research", start, "start research", err)
	}
	if err := rejection(body); err != nil {
		return fail[ResearchStarted](c, "research", start, "start research "+rc.Name, err)
	}

	var ack struct {
		ExecutionID ID `json:"executionId"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		c.logger.Debug().Err(err).Str("name", rc.Name).Msg("research response carries no execution id")
	}

	metrics.ObserveUpstream("n8n", "research", "success", start)
	c.logger.Info().Str("name", rc.Name).Str("execution_id", string(ack.ExecutionID)).Msg("research started")
	return result.Success(ResearchStarted{
		ExecutionID: ack.ExecutionID,
		Message:     "research started",
		Data:        body,
	})
}

// TestConnectivity checks that n8n is reachable. With an API key it lists
// workflows; without one it posts a test payload to the webhook, where any HTTP
// response counts as reachable.
func (c *Client) TestConnectivity(ctx context.Context) result.Result[Connectivity] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[Connectivity](c, "connectivity", start, "test connectivity", err)
	}

	if c.resolver.AutomationConfig().APIKey != "" {
		res := c.ListWorkflows(ctx)
		if !res.Success {
			return result.FailureFrom[Connectivity](res)
		}
		c.logger.Info().Str("method", MethodAPI).Msg("n8n reachable")
		return result.Success(Connectivity{Connected: true, Method: MethodAPI})
	}

	webhookURL := c.resolver.AutomationConfig().WebhookURL
	if webhookURL == "" {
		return fail[Connectivity](c, "connectivity", start, "test connectivity", fmt.Errorf("%w: webhook URL is empty", ErrNotConfigured))
	}
	ping := pingPayload{Test: true, Timestamp: c.timestamp()}
	if _, err := c.send(ctx, http.MethodPost, webhookURL, "", ping); err != nil {
		var se *StatusError
		if !errors.As(err, &se) {
			return fail[Connectivity](c, "connectivity", start, "test connectivity", err)
		}
	}

	metrics.ObserveUpstream("n8n", "connectivity", "success", start)
	c.logger.Info().Str("method", MethodWebhook).Msg("n8n reachable")
	return result.Success(Connectivity{Connected: true, Method: MethodWebhook})
}

// ConfigInfo describes the endpoints in use.
func (c *Client) ConfigInfo() Info {
	ac := c.resolver.AutomationConfig()
	return Info{
		BaseURL:     ac.BaseURL,
		WebhookURL:  ac.WebhookURL,
		HasAPIKey:   ac.APIKey != "",
		Environment: c.resolver.Environment(),
	}
}

func (c *Client) ready() error {
	if !c.initialized.Load() {
		return fmt.Errorf("n8n client: %w", config.ErrNotInitialized)
	}
	return nil
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(timestampLayout)
}

// api calls the authenticated REST API under <base>/api/v1/.
func (c *Client) api(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if err := c.ready(); err != nil {
		return err
	}
	ac := c.resolver.AutomationConfig()
	if ac.APIKey == "" {
		return ErrMissingAPIKey
	}
	if ac.BaseURL == "" {
		return fmt.Errorf("%w: base URL is empty", ErrNotConfigured)
	}

	target := strings.TrimRight(ac.BaseURL, "/") + "/api/v1/" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	raw, err := c.send(ctx, method, target, ac.APIKey, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// webhook posts payload to the webhook URL and returns the response body.
// An empty body is returned as an empty object.
func (c *Client) webhook(ctx context.Context, payload any) (json.RawMessage, error) {
	webhookURL := c.resolver.AutomationConfig().WebhookURL
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: webhook URL is empty", ErrNotConfigured)
	}

	raw, err := c.send(ctx, http.MethodPost, webhookURL, "", payload)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("decode webhook response: invalid JSON")
	}
	return json.RawMessage(raw), nil
}

func (c *Client) send(ctx context.Context, method, target, apiKey string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("n8n request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: req.URL.Path, Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return raw, nil
}

// rejection reports whether a 2xx webhook body describes a failure, either
// with "success": false or a non-null "error".
func rejection(body json.RawMessage) error {
	var ack struct {
		Success *bool           `json:"success"`
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		// Arrays and scalars carry no status.
		return nil
	}

	hasError := len(ack.Error) > 0 && string(ack.Error) != "null"
	if !hasError && (ack.Success == nil || *ack.Success) {
		return nil
	}

	detail := ack.Message
	if hasError {
		var s string
		if json.Unmarshal(ack.Error, &s) == nil {
			detail = s
		} else if detail == "" {
			detail = string(ack.Error)
		}
	}
	if detail == "" {
		detail = "workflow reported failure"
	}
	return fmt.Errorf("%w: %s", ErrRejected, detail)
}

func fail[T any](c *Client, op string, start time.Time, what string, err error) result.Result[T] {
	kind := classify(err)
	metrics.ObserveUpstream("n8n", op, string(kind), start)
	c.logger.Error().Err(err).Str("operation", op).Str("error_type", string(kind)).Msg(what + " failed")
	return result.Failure[T](fmt.Sprintf("%s: %v", what, err), kind, err)
}

// classify: missing configuration or arguments are VALIDATION, a reported
// workflow failure is BUSINESS_LOGIC, everything else NETWORK.
func classify(err error) result.ErrorKind {
	switch {
	case errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, config.ErrNotInitialized):
		return result.Validation
	case errors.Is(err, ErrRejected):
		return result.BusinessLogic
	default:
		return result.Network
	}
}

func missingID() error {
	return fmt.Errorf("%w: missing workflow id", ErrInvalidInput)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
