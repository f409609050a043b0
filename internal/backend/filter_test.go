package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_WhereDoesNotAlias(t *testing.T) {
	base := Filter{}.Where(ColumnStatus, OpEq, "open")
	a := base.Where(ColumnTitle, OpEq, "a")
	b := base.Where(ColumnTitle, OpEq, "b")

	assert.Len(t, base.Conditions, 1)
	assert.Equal(t, "a", a.Conditions[1].Value)
	assert.Equal(t, "b", b.Conditions[1].Value)
}

func TestFilter_SearchAndRanges(t *testing.T) {
	f := Filter{}.Search("  ").AmountBetween("", "").DeadlineBetween("", "")
	assert.Empty(t, f.Conditions)

	f = Filter{}.Search(" kit ").DeadlineBetween("2025-01-01", "2025-12-31")
	assert.Equal(t, []Condition{
		{Column: ColumnTitle, Op: OpILike, Value: "*kit*"},
		{Column: ColumnDeadline, Op: OpGte, Value: "2025-01-01"},
		{Column: ColumnDeadline, Op: OpLte, Value: "2025-12-31"},
	}, f.Conditions)
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"zero value", Filter{}, false},
		{"plain condition", Filter{}.Where("amount", OpGt, "1"), false},
		{"bad column", Filter{}.Where(`amount"`, OpEq, "1"), true},
		{"bad operator", Filter{}.Where("amount", Op("like"), "1"), true},
		{"bad order", Filter{Order: "deadline desc"}, true},
		{"negative limit", Filter{Limit: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilter_Values(t *testing.T) {
	q := Filter{Order: "amount", Descending: true}.Search("eu").values()
	assert.Equal(t, "*", q.Get("select"))
	assert.Equal(t, "ilike.*eu*", q.Get("title"))
	assert.Equal(t, "amount.desc", q.Get("order"))
	assert.Empty(t, q.Get("limit"))
}
