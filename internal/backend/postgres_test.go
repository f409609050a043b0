package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_List_NoFilter(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("Query", ctx, `SELECT row_to_json(t) FROM "grants" AS t`, []any(nil)).
		Return(newMockRows(`{"id":"b","amount":10}`, `{"id":"a","amount":20}`), nil)

	grants, err := s.List(ctx, "grants", Filter{})
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, "b", grants[0].ID(), "storage order is preserved")
	assert.Equal(t, "a", grants[1].ID())
	db.AssertExpectations(t)
}

func TestPostgresStore_List_Filtered(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	f := Filter{Order: "deadline", Descending: true, Limit: 5}.
		Search("digital").
		AmountBetween("1000", "")
	db.On("Query", ctx,
		`SELECT row_to_json(t) FROM "grants_test" AS t WHERE t."title" ILIKE $1 AND t."amount" >= $2 ORDER BY t."deadline" DESC LIMIT $3`,
		[]any{"%digital%", "1000", 5}).
		Return(newMockRows(), nil)

	grants, err := s.List(ctx, "grants_test", f)
	require.NoError(t, err)
	assert.Equal(t, []Grant{}, grants)
	db.AssertExpectations(t)
}

func TestPostgresStore_List_InvalidFilter(t *testing.T) {
	s := NewPostgresStore(&mockDB{})

	_, err := s.List(context.Background(), "grants", Filter{}.Where("amount; drop", OpEq, "1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestPostgresStore_List_QueryError(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := s.List(ctx, "grants", Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStore_Insert_GeneratesID(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	var sentArgs []any
	db.On("QueryRow", ctx,
		`INSERT INTO "grants" AS t ("amount", "id", "title") VALUES ($1, $2, $3) RETURNING row_to_json(t)`,
		mock.Anything).
		Run(func(args mock.Arguments) { sentArgs = args.Get(2).([]any) }).
		Return(&mockRow{json: `{"id":"generated","title":"Kit Digital","amount":12000}`})

	input := Grant{"title": "Kit Digital", "amount": 12000}
	g, err := s.Insert(ctx, "grants", input)
	require.NoError(t, err)
	assert.Equal(t, "generated", g.ID())

	require.Len(t, sentArgs, 3)
	assert.Equal(t, 12000, sentArgs[0])
	assert.NotEmpty(t, sentArgs[1])
	assert.Equal(t, "Kit Digital", sentArgs[2])
	_, hasID := input["id"]
	assert.False(t, hasID, "caller's record is not mutated")
}

func TestPostgresStore_Insert_Empty(t *testing.T) {
	s := NewPostgresStore(&mockDB{})
	_, err := s.Insert(context.Background(), "grants", Grant{})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestPostgresStore_Update(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx,
		`UPDATE "grants" AS t SET "status" = $1, "title" = $2 WHERE t."id"::text = $3 RETURNING row_to_json(t)`,
		[]any{"closed", "New title", "g-1"}).
		Return(&mockRow{json: `{"id":"g-1","status":"closed","title":"New title"}`})

	g, err := s.Update(ctx, "grants", "g-1", Grant{"id": "ignored", "title": "New title", "status": "closed"})
	require.NoError(t, err)
	assert.Equal(t, "closed", g["status"])
	db.AssertExpectations(t)
}

func TestPostgresStore_Update_NotFound(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.Anything, mock.Anything).Return(&mockRow{err: pgx.ErrNoRows})

	_, err := s.Update(ctx, "grants", "missing", Grant{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Update_OnlyID(t *testing.T) {
	s := NewPostgresStore(&mockDB{})
	_, err := s.Update(context.Background(), "grants", "g-1", Grant{"id": "g-1"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestPostgresStore_Delete(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, `DELETE FROM "grants" WHERE "id"::text = $1`, []any{"g-1"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, s.Delete(ctx, "grants", "g-1"))
	db.AssertExpectations(t)
}

func TestPostgresStore_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	assert.ErrorIs(t, s.Delete(ctx, "grants", "missing"), ErrNotFound)
}
