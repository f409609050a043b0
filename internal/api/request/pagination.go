package request

import (
	"net/http"
	"strconv"
)

// MaxLimit caps every limit query parameter.
const MaxLimit = 200

// ParseLimit reads the limit query parameter. Missing or invalid values
// yield fallback; values above MaxLimit are capped.
func ParseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}
