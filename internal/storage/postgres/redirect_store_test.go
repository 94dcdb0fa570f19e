package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/paintco-web/internal/store"
)

func newMockRedirectStore(t *testing.T) (*RedirectStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewRedirectStore(mock, "")
	require.NoError(t, err)
	return s, mock
}

func TestNewRedirectStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRedirectStore(nil, "redirects")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRedirectStore(mock, "redirects; DROP TABLE x")
	require.Error(t, err)
}

func TestRedirectStoreListActiveZeroesNullColumns(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)

	rows := pgxmock.NewRows([]string{"from_path", "to_path", "status_code"}).
		AddRow("/old", "/new", int64(301)).
		AddRow("/broken", nil, int64(302)).
		AddRow(nil, "/orphan", nil)
	mock.ExpectQuery("WHERE is_active = true").
		WillReturnRows(rows)

	got, err := s.ListActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, []store.Redirect{
		{FromPath: "/old", ToPath: "/new", StatusCode: 301, IsActive: true},
		{FromPath: "/broken", ToPath: "", StatusCode: 302, IsActive: true},
		{FromPath: "", ToPath: "/orphan", StatusCode: 0, IsActive: true},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreListActiveQueryError(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	mock.ExpectQuery("SELECT from_path").WillReturnError(errors.New("connection reset"))

	_, err := s.ListActive(context.Background())
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreGet(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	id := uuid.New()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, from_path").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "from_path", "to_path", "status_code", "is_active", "created_at", "updated_at",
		}).AddRow(id, "/old", "/new", 308, true, now, now))

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, store.Redirect{
		ID: id, FromPath: "/old", ToPath: "/new", StatusCode: 308, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreGetNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	id := uuid.New()
	mock.ExpectQuery("SELECT id, from_path").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "from_path", "to_path", "status_code", "is_active", "created_at", "updated_at",
		}))

	_, err := s.Get(context.Background(), id)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreList(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery("ORDER BY from_path").
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "from_path", "to_path", "status_code", "is_active", "created_at", "updated_at",
		}).
			AddRow(a, "/a", "/x", 301, true, now, now).
			AddRow(b, "/b", "https://example.com", 302, false, now, now))

	got, err := s.List(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, a, got[0].ID)
	require.False(t, got[1].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreCreate(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := store.Redirect{
		ID: uuid.New(), FromPath: "/old", ToPath: "/new", StatusCode: 301, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO redirects").
		WithArgs(r.ID, r.FromPath, r.ToPath, r.StatusCode, r.IsActive, r.CreatedAt, r.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Create(context.Background(), r))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreCreateDuplicate(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	mock.ExpectExec("INSERT INTO redirects").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.Create(context.Background(), store.Redirect{ID: uuid.New(), FromPath: "/old", ToPath: "/new"})
	require.ErrorIs(t, err, store.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreUpdateMissingRow(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	mock.ExpectExec("UPDATE redirects").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Update(context.Background(), store.Redirect{ID: uuid.New(), FromPath: "/old", ToPath: "/new"})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedirectStoreDelete(t *testing.T) {
	t.Parallel()

	s, mock := newMockRedirectStore(t)
	id := uuid.New()
	mock.ExpectExec("DELETE FROM redirects").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM redirects").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(context.Background(), id))
	require.ErrorIs(t, s.Delete(context.Background(), id), store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
