// Package dashboard holds the shared state behind the grants dashboard: the
// grants and workflow caches, the table mode and the load phase.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/edvin/grantdesk/internal/backend"
	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/metrics"
	"github.com/edvin/grantdesk/internal/n8n"
	"github.com/edvin/grantdesk/internal/result"
)

// Phase is the load state shown by the dashboard.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// initialLoadError is stored in the error slot when Initialize cannot run.
const initialLoadError = "failed to load initial data"

// refetchTimeout bounds a cache refetch, which outlives the request that
// started it.
const refetchTimeout = 30 * time.Second

// GrantsClient is the backend client as used by the store.
type GrantsClient interface {
	Initialize() error
	Table(useTestTable bool) string
	FetchRecords(ctx context.Context, f backend.Filter, useTestTable bool) result.Result[[]backend.Grant]
	CreateRecord(ctx context.Context, useTestTable bool, data backend.Grant) result.Result[backend.Grant]
	UpdateRecord(ctx context.Context, useTestTable bool, id string, data backend.Grant) result.Result[backend.Grant]
	DeleteRecord(ctx context.Context, useTestTable bool, id string) result.Result[string]
}

// WorkflowsClient is the automation client as used by the store.
type WorkflowsClient interface {
	Initialize() error
	ListWorkflows(ctx context.Context) result.Result[[]n8n.Workflow]
	SetWorkflowActive(ctx context.Context, id string, active bool) result.Result[json.RawMessage]
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Phase       Phase              `json:"phase"`
	Loading     bool               `json:"loading"`
	Error       string             `json:"error,omitempty"`
	TestMode    bool               `json:"testMode"`
	Table       string             `json:"table"`
	Environment config.Environment `json:"environment"`
	Grants      []backend.Grant    `json:"grants"`
	Workflows   []n8n.Workflow     `json:"workflows"`
	Debug       *DebugInfo         `json:"debug,omitempty"`
}

// DebugInfo backs the dashboard's debug panel. It is only present when the
// active bundle enables the panel.
type DebugInfo struct {
	Debug    bool          `json:"debug"`
	LogLevel string        `json:"logLevel"`
	Driver   string        `json:"driver"`
	Tables   config.Tables `json:"tables"`
}

// Store orchestrates the clients and caches their results. Caches are only
// ever replaced by a full fetch, never patched.
type Store struct {
	resolver  *config.Resolver
	grants    GrantsClient
	workflows WorkflowsClient
	policy    string
	logger    zerolog.Logger

	loads   singleflight.Group
	fetches singleflight.Group

	mu             sync.Mutex
	started        bool
	inflight       int
	err            string
	testMode       bool
	grantsGen      uint64
	grantsCache    []backend.Grant
	workflowsCache []n8n.Workflow
}

// NewStore returns an idle store. policy decides whether a failed workflow
// fetch sets the error slot (config.PolicySurface) or is only logged.
func NewStore(resolver *config.Resolver, grants GrantsClient, workflows WorkflowsClient, policy string, logger zerolog.Logger) *Store {
	return &Store{
		resolver:       resolver,
		grants:         grants,
		workflows:      workflows,
		policy:         policy,
		logger:         logger.With().Str("component", "dashboard").Logger(),
		grantsCache:    []backend.Grant{},
		workflowsCache: []n8n.Workflow{},
	}
}

// Initialize makes sure the resolver and both clients are initialized, then
// loads grants under the current table mode followed by workflows.
// Concurrent calls share one run. The returned error reports a failed
// precondition; fetch failures land in the error slot.
func (s *Store) Initialize(ctx context.Context) error {
	_, err, _ := s.loads.Do("load", func() (any, error) {
		ctx, cancel := detach(ctx)
		defer cancel()
		return nil, s.load(ctx)
	})
	return err
}

// Refresh re-runs the Initialize sequence.
func (s *Store) Refresh(ctx context.Context) error {
	return s.Initialize(ctx)
}

func (s *Store) load(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.inflight++
	s.err = ""
	s.mu.Unlock()
	defer s.end()

	if err := s.resolver.Initialize(ctx); err != nil {
		return s.loadFailed(err)
	}
	if err := s.grants.Initialize(); err != nil {
		return s.loadFailed(err)
	}
	if err := s.workflows.Initialize(); err != nil {
		return s.loadFailed(err)
	}

	s.FetchGrants(ctx)
	s.FetchWorkflows(ctx)
	s.logger.Info().Msg("dashboard data loaded")
	return nil
}

func (s *Store) loadFailed(err error) error {
	s.logger.Error().Err(err).Msg(initialLoadError)
	s.setError(initialLoadError)
	return fmt.Errorf("load dashboard: %w", err)
}

// FetchGrants replaces the grants cache with the table of the current mode.
// On failure the cache is emptied and the error slot set. A fetch that
// finishes after a newer one started leaves the cache alone.
func (s *Store) FetchGrants(ctx context.Context) result.Result[[]backend.Grant] {
	s.mu.Lock()
	mode := s.testMode
	s.grantsGen++
	gen := s.grantsGen
	s.inflight++
	s.mu.Unlock()
	defer s.end()

	table := s.grants.Table(mode)
	v, _, _ := s.fetches.Do(table, func() (any, error) {
		ctx, cancel := detach(ctx)
		defer cancel()
		return s.grants.FetchRecords(ctx, backend.Filter{}, mode), nil
	})
	res := v.(result.Result[[]backend.Grant])

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.grantsGen {
		s.logger.Debug().Str("table", table).Msg("discarding superseded grants fetch")
		return res
	}
	if res.Success {
		s.grantsCache = res.Data
	} else {
		s.err = res.Error
		s.grantsCache = []backend.Grant{}
	}
	metrics.SetCachedRecords("grants", len(s.grantsCache))
	return res
}

// FetchWorkflows replaces the workflows cache. On failure the cache is
// emptied; the error slot is only set under the surface policy.
func (s *Store) FetchWorkflows(ctx context.Context) result.Result[[]n8n.Workflow] {
	s.begin()
	defer s.end()

	fetchCtx, cancel := detach(ctx)
	res := s.workflows.ListWorkflows(fetchCtx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if res.Success {
		s.workflowsCache = res.Data
	} else {
		s.workflowsCache = []n8n.Workflow{}
		if s.policy == config.PolicySurface {
			s.err = res.Error
		} else {
			s.logger.Warn().Str("error", res.Error).Msg("workflows unavailable")
		}
	}
	metrics.SetCachedRecords("workflows", len(s.workflowsCache))
	return res
}

// QueryGrants reads grants matching f under the current mode without
// touching the cache.
func (s *Store) QueryGrants(ctx context.Context, f backend.Filter) result.Result[[]backend.Grant] {
	return s.grants.FetchRecords(ctx, f, s.TestMode())
}

// CreateGrant inserts a grant and reloads the grants cache.
func (s *Store) CreateGrant(ctx context.Context, data backend.Grant) result.Result[backend.Grant] {
	s.begin()
	defer s.end()

	mode := s.TestMode()
	res := s.grants.CreateRecord(ctx, mode, data)
	if !res.Success {
		s.writeFailed(ctx, res.Error)
		return res
	}
	s.reload(ctx, mode)
	return res
}

// UpdateGrant patches a grant and reloads the grants cache.
func (s *Store) UpdateGrant(ctx context.Context, id string, data backend.Grant) result.Result[backend.Grant] {
	s.begin()
	defer s.end()

	mode := s.TestMode()
	res := s.grants.UpdateRecord(ctx, mode, id, data)
	if !res.Success {
		s.writeFailed(ctx, res.Error)
		return res
	}
	s.reload(ctx, mode)
	return res
}

// DeleteGrant removes a grant and reloads the grants cache.
func (s *Store) DeleteGrant(ctx context.Context, id string) result.Result[string] {
	s.begin()
	defer s.end()

	mode := s.TestMode()
	res := s.grants.DeleteRecord(ctx, mode, id)
	if !res.Success {
		s.writeFailed(ctx, res.Error)
		return res
	}
	s.reload(ctx, mode)
	return res
}

// reload refetches grants after a write. An in-flight read of the same
// table may predate the write, so it is not joined.
func (s *Store) reload(ctx context.Context, mode bool) {
	s.fetches.Forget(s.grants.Table(mode))
	s.FetchGrants(ctx)
}

// ToggleTableMode flips between the test and the normal table and reloads
// grants from the new one.
func (s *Store) ToggleTableMode(ctx context.Context) result.Result[[]backend.Grant] {
	s.mu.Lock()
	s.testMode = !s.testMode
	mode := s.testMode
	s.mu.Unlock()

	s.logger.Info().Bool("test_mode", mode).Str("table", s.grants.Table(mode)).Msg("table mode toggled")
	return s.FetchGrants(ctx)
}

// ToggleWorkflow activates or deactivates a workflow and reloads the
// workflows cache.
func (s *Store) ToggleWorkflow(ctx context.Context, id string, active bool) result.Result[json.RawMessage] {
	s.begin()
	defer s.end()

	res := s.workflows.SetWorkflowActive(ctx, id, active)
	if !res.Success {
		if s.policy == config.PolicySurface {
			s.writeFailed(ctx, res.Error)
		}
		return res
	}
	s.FetchWorkflows(ctx)
	return res
}

// SwitchEnvironment changes the active environment and reloads grants, since
// the environment decides which table the normal mode reads.
func (s *Store) SwitchEnvironment(ctx context.Context, env config.Environment) error {
	if err := s.resolver.SwitchEnvironment(env); err != nil {
		return err
	}
	s.reload(ctx, s.TestMode())
	return nil
}

// TestMode reports whether grants operations target the test table.
func (s *Store) TestMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.testMode
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Phase:     s.phaseLocked(),
		Loading:   s.inflight > 0,
		Error:     s.err,
		TestMode:  s.testMode,
		Grants:    append([]backend.Grant{}, s.grantsCache...),
		Workflows: append([]n8n.Workflow{}, s.workflowsCache...),
	}
	s.mu.Unlock()

	snap.Table = s.grants.Table(snap.TestMode)
	snap.Environment = s.resolver.Environment()
	if settings := s.resolver.Settings(); settings.DebugPanel {
		bc := s.resolver.BackendConfig()
		snap.Debug = &DebugInfo{
			Debug:    settings.Debug,
			LogLevel: settings.LogLevel,
			Driver:   bc.Driver,
			Tables:   bc.Tables,
		}
	}
	return snap
}

func (s *Store) phaseLocked() Phase {
	switch {
	case !s.started:
		return PhaseIdle
	case s.inflight > 0:
		return PhaseLoading
	case s.err != "":
		return PhaseError
	default:
		return PhaseReady
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// detach returns a context for work whose result lands in shared state. It
// keeps ctx's values but not its cancellation, so a client that hangs up
// cannot empty the caches other callers read.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
}

// writeFailed records a failed write in the error slot unless the caller
// abandoned the request.
func (s *Store) writeFailed(ctx context.Context, msg string) {
	if ctx.Err() != nil {
		s.logger.Debug().Str("error", msg).Msg("write abandoned by caller")
		return
	}
	s.setError(msg)
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}
