// Package backend is the structured-data client for grants. It selects the
// target table per call and converts every outcome into a result.Result.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/grantdesk/internal/config"
	"github.com/edvin/grantdesk/internal/metrics"
	"github.com/edvin/grantdesk/internal/result"
)

// Store is a grants storage driver.
type Store interface {
	List(ctx context.Context, table string, f Filter) ([]Grant, error)
	Insert(ctx context.Context, table string, g Grant) (Grant, error)
	Update(ctx context.Context, table, id string, g Grant) (Grant, error)
	Delete(ctx context.Context, table, id string) error
}

// Client performs grants CRUD against the table chosen by each call.
type Client struct {
	resolver    *config.Resolver
	store       Store
	logger      zerolog.Logger
	initialized atomic.Bool
}

// NewClient returns a client over store. Initialize must be called before use.
func NewClient(resolver *config.Resolver, store Store, logger zerolog.Logger) *Client {
	return &Client{
		resolver: resolver,
		store:    store,
		logger:   logger.With().Str("component", "backend").Logger(),
	}
}

// Initialize fails with config.ErrNotInitialized when the resolver is not
// ready. Callers treat that as a startup-order bug.
func (c *Client) Initialize() error {
	if !c.resolver.Ready() {
		return fmt.Errorf("backend client: %w", config.ErrNotInitialized)
	}
	c.initialized.Store(true)
	return nil
}

// Table returns the grants table a call with useTestTable would target.
func (c *Client) Table(useTestTable bool) string {
	tables := c.resolver.BackendConfig().Tables
	if useTestTable {
		return tables.GrantsTest
	}
	return tables.Grants
}

// FetchRecords reads grants matching f in backend order.
func (c *Client) FetchRecords(ctx context.Context, f Filter, useTestTable bool) result.Result[[]Grant] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[[]Grant](c, "fetch", start, "fetch grants", err)
	}
	if err := f.Validate(); err != nil {
		return fail[[]Grant](c, "fetch", start, "fetch grants", err)
	}

	table := c.Table(useTestTable)
	grants, err := c.store.List(ctx, table, f)
	if err != nil {
		return fail[[]Grant](c, "fetch", start, "fetch grants from "+table, err)
	}

	metrics.ObserveUpstream("backend", "fetch", "success", start)
	c.logger.Debug().Str("table", table).Int("count", len(grants)).Msg("grants fetched")
	return result.Success(grants)
}

// CreateRecord inserts data and returns the stored record.
func (c *Client) CreateRecord(ctx context.Context, useTestTable bool, data Grant) result.Result[Grant] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[Grant](c, "create", start, "create grant", err)
	}
	if len(data) == 0 {
		return fail[Grant](c, "create", start, "create grant", fmt.Errorf("%w: empty record", ErrInvalidRecord))
	}

	table := c.Table(useTestTable)
	g, err := c.store.Insert(ctx, table, data)
	if err != nil {
		return fail[Grant](c, "create", start, "create grant in "+table, err)
	}

	metrics.ObserveUpstream("backend", "create", "success", start)
	c.logger.Info().Str("table", table).Str("id", g.ID()).Msg("grant created")
	return result.Success(g)
}

// UpdateRecord patches the record with id.
func (c *Client) UpdateRecord(ctx context.Context, useTestTable bool, id string, data Grant) result.Result[Grant] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[Grant](c, "update", start, "update grant", err)
	}
	if id == "" {
		return fail[Grant](c, "update", start, "update grant", fmt.Errorf("%w: missing id", ErrInvalidRecord))
	}

	table := c.Table(useTestTable)
	g, err := c.store.Update(ctx, table, id, data)
	if err != nil {
		return fail[Grant](c, "update", start, "update grant "+id+" in "+table, err)
	}

	metrics.ObserveUpstream("backend", "update", "success", start)
	c.logger.Info().Str("table", table).Str("id", id).Msg("grant updated")
	return result.Success(g)
}

// DeleteRecord removes the record with id. The result carries the deleted id.
func (c *Client) DeleteRecord(ctx context.Context, useTestTable bool, id string) result.Result[string] {
	start := time.Now()
	if err := c.ready(); err != nil {
		return fail[string](c, "delete", start, "delete grant", err)
	}
	if id == "" {
		return fail[string](c, "delete", start, "delete grant", fmt.Errorf("%w: missing id", ErrInvalidRecord))
	}

	table := c.Table(useTestTable)
	if err := c.store.Delete(ctx, table, id); err != nil {
		return fail[string](c, "delete", start, "delete grant "+id+" from "+table, err)
	}

	metrics.ObserveUpstream("backend", "delete", "success", start)
	c.logger.Info().Str("table", table).Str("id", id).Msg("grant deleted")
	return result.Success(id)
}

func (c *Client) ready() error {
	if !c.initialized.Load() {
		return fmt.Errorf("backend client: %w", config.ErrNotInitialized)
	}
	return nil
}

func fail[T any](c *Client, op string, start time.Time, what string, err error) result.Result[T] {
	kind := classify(err)
	metrics.ObserveUpstream("backend", op, string(kind), start)
	c.logger.Error().Err(err).Str("operation", op).Str("error_type", string(kind)).Msg(what + " failed")
	return result.Failure[T](fmt.Sprintf("%s: %v", what, err), kind, err)
}

// classify maps driver errors onto result kinds: problems with the request,
// the payload or local configuration are VALIDATION, everything else NETWORK.
func classify(err error) result.ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidRecord),
		errors.Is(err, ErrMalformedPayload),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, config.ErrNotInitialized):
		return result.Validation
	default:
		return result.Network
	}
}
