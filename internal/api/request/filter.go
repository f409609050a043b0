package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edvin/grantdesk/internal/backend"
)

const dateLayout = "2006-01-02"

// ParseGrantFilter builds a grants filter from the query string:
// q, status, amount_min, amount_max, deadline_from, deadline_to, limit and
// order (a column, optionally suffixed with ".asc" or ".desc").
func ParseGrantFilter(r *http.Request) (backend.Filter, error) {
	q := r.URL.Query()
	f := backend.Filter{}.Search(q.Get("q"))

	if status := q.Get("status"); status != "" {
		f = f.Where(backend.ColumnStatus, backend.OpEq, status)
	}

	minAmount, maxAmount := q.Get("amount_min"), q.Get("amount_max")
	for _, b := range []struct{ name, v string }{{"amount_min", minAmount}, {"amount_max", maxAmount}} {
		name, v := b.name, b.v
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return backend.Filter{}, fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	f = f.AmountBetween(minAmount, maxAmount)

	from, to := q.Get("deadline_from"), q.Get("deadline_to")
	for _, b := range []struct{ name, v string }{{"deadline_from", from}, {"deadline_to", to}} {
		name, v := b.name, b.v
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return backend.Filter{}, fmt.Errorf("invalid %s: %q, want YYYY-MM-DD", name, v)
		}
	}
	f = f.DeadlineBetween(from, to)

	if order := q.Get("order"); order != "" {
		col, dir, _ := strings.Cut(order, ".")
		switch dir {
		case "", "asc":
		case "desc":
			f.Descending = true
		default:
			return backend.Filter{}, fmt.Errorf("invalid order direction %q", dir)
		}
		f.Order = col
	}

	f.Limit = ParseLimit(r, 0)

	if err := f.Validate(); err != nil {
		return backend.Filter{}, err
	}
	return f, nil
}
