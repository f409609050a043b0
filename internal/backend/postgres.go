package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/grantdesk/internal/platform"
)

// DB is the subset of *pgxpool.Pool the Postgres store uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads and writes the grants tables directly. It serves the
// same tables Supabase exposes, for local development without PostgREST.
type PostgresStore struct {
	db DB
}

// NewPostgresStore returns a store over db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// List returns the rows of table matching f in storage order.
func (s *PostgresStore) List(ctx context.Context, table string, f Filter) ([]Grant, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	var args []any
	fmt.Fprintf(&sb, "SELECT row_to_json(t) FROM %s AS t", pgx.Identifier{table}.Sanitize())

	for i, c := range f.Conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		value := c.Value
		if c.Op == OpILike {
			value = strings.ReplaceAll(value, "*", "%")
		}
		args = append(args, value)
		fmt.Fprintf(&sb, "t.%s %s $%d", pgx.Identifier{c.Column}.Sanitize(), sqlOps[c.Op], len(args))
	}
	if f.Order != "" {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY t.%s %s", pgx.Identifier{f.Order}.Sanitize(), dir)
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	grants := []Grant{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		g, err := decodeGrant(raw)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return grants, nil
}

// Insert creates a row. A record without an id gets a generated UUID.
func (s *PostgresStore) Insert(ctx context.Context, table string, g Grant) (Grant, error) {
	if len(g) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrInvalidRecord)
	}
	g = g.clone()
	if g.ID() == "" {
		g[ColumnID] = platform.NewID()
	}

	cols, err := sortedColumns(g)
	if err != nil {
		return nil, err
	}
	idents := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		idents[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = g[col]
	}

	sql := fmt.Sprintf("INSERT INTO %s AS t (%s) VALUES (%s) RETURNING row_to_json(t)",
		pgx.Identifier{table}.Sanitize(), strings.Join(idents, ", "), strings.Join(placeholders, ", "))

	var raw []byte
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return decodeGrant(raw)
}

// Update sets the given columns on the row with id. The id column itself is
// never rewritten.
func (s *PostgresStore) Update(ctx context.Context, table, id string, g Grant) (Grant, error) {
	patch := g.clone()
	delete(patch, ColumnID)
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidRecord)
	}

	cols, err := sortedColumns(patch)
	if err != nil {
		return nil, err
	}
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		args = append(args, patch[col])
		sets[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), len(args))
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s AS t SET %s WHERE t.%s::text = $%d RETURNING row_to_json(t)",
		pgx.Identifier{table}.Sanitize(), strings.Join(sets, ", "), pgx.Identifier{ColumnID}.Sanitize(), len(args))

	var raw []byte
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, id, table)
		}
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return decodeGrant(raw)
}

// Delete removes the row with id.
func (s *PostgresStore) Delete(ctx context.Context, table, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s::text = $1",
		pgx.Identifier{table}.Sanitize(), pgx.Identifier{ColumnID}.Sanitize())

	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, id, table)
	}
	return nil
}

func sortedColumns(g Grant) ([]string, error) {
	cols := make([]string, 0, len(g))
	for k := range g {
		if !identPattern.MatchString(k) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidRecord, k)
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}
