package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Grant is a funding opportunity as stored by the backend. Its fields are
// owned by the backend schema; only the "id" key has meaning here.
type Grant map[string]any

// ID returns the backend-assigned identity, or "" when absent.
func (g Grant) ID() string {
	switch v := g["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// clone returns a shallow copy of g.
func (g Grant) clone() Grant {
	out := make(Grant, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// decodeJSON decodes r into v keeping numbers exact.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func decodeGrant(b []byte) (Grant, error) {
	var g Grant
	if err := decodeJSON(bytes.NewReader(b), &g); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: null record", ErrMalformedPayload)
	}
	return g, nil
}
