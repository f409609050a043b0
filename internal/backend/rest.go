package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTStore talks to a Supabase (PostgREST) endpoint.
type RESTStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRESTStore returns a store for the PostgREST API under baseURL.
func NewRESTStore(baseURL, apiKey string) *RESTStore {
	return &RESTStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *RESTStore) do(ctx context.Context, method, table string, query url.Values, body any, result any) error {
	if s.baseURL == "" {
		return fmt.Errorf("%w: SUPABASE_URL is empty", ErrNotConfigured)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", ErrInvalidRecord, err)
		}
		reader = bytes.NewReader(b)
	}

	path := "/rest/v1/" + url.PathEscape(table)
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		return decodeJSON(resp.Body, result)
	}
	return nil
}

// List returns the rows of table matching f in backend order.
func (s *RESTStore) List(ctx context.Context, table string, f Filter) ([]Grant, error) {
	var rows []Grant
	if err := s.do(ctx, http.MethodGet, table, f.values(), nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Grant{}
	}
	return rows, nil
}

// Insert creates a row and returns its stored representation.
func (s *RESTStore) Insert(ctx context.Context, table string, g Grant) (Grant, error) {
	var rows []Grant
	if err := s.do(ctx, http.MethodPost, table, nil, g, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty representation for insert into %s", ErrMalformedPayload, table)
	}
	return rows[0], nil
}

// Update patches the row with the given id.
func (s *RESTStore) Update(ctx context.Context, table, id string, g Grant) (Grant, error) {
	var rows []Grant
	if err := s.do(ctx, http.MethodPatch, table, idQuery(id), g, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, id, table)
	}
	return rows[0], nil
}

// Delete removes the row with the given id.
func (s *RESTStore) Delete(ctx context.Context, table, id string) error {
	var rows []Grant
	if err := s.do(ctx, http.MethodDelete, table, idQuery(id), nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, id, table)
	}
	return nil
}

func idQuery(id string) url.Values {
	return url.Values{ColumnID: {"eq." + id}}
}
