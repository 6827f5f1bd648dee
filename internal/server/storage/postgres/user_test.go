package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authapi/internal/models"
	"github.com/iudanet/authapi/internal/server/storage"
)

var _ storage.Store = (*Storage)(nil)

var userColumns = []string{"id", "email", "password_hash", "is_active", "created_at"}

func newStorageWithMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func testUser() *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		Email:        "a@x.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestStorage_CreateUser(t *testing.T) {
	s, mock := newStorageWithMock(t)
	user := testUser()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, email, password_hash, is_active, created_at)")).
		WithArgs(user.ID, user.Email, user.PasswordHash, user.IsActive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateUser(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CreateUser_UniqueViolation(t *testing.T) {
	s, mock := newStorageWithMock(t)
	user := testUser()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := s.CreateUser(context.Background(), user)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CreateUser_OtherError(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23514"}) // check_violation

	err := s.CreateUser(context.Background(), testUser())
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserAlreadyExists)
	assert.Contains(t, err.Error(), "failed to insert user")
}

func TestStorage_GetUserByEmail(t *testing.T) {
	user := testUser()

	tests := []struct {
		setup     func(mock sqlmock.Sqlmock)
		wantError error
		name      string
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
					WithArgs(user.Email).
					WillReturnRows(sqlmock.NewRows(userColumns).
						AddRow(user.ID, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt))
			},
		},
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
					WithArgs(user.Email).
					WillReturnError(sql.ErrNoRows)
			},
			wantError: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newStorageWithMock(t)
			tt.setup(mock)

			got, err := s.GetUserByEmail(context.Background(), user.Email)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, user.PasswordHash, got.PasswordHash)
				assert.True(t, got.IsActive)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_GetActiveUserByEmail_FiltersInactive(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1 AND is_active")).
		WithArgs("inactive@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := s.GetActiveUserByEmail(context.Background(), "inactive@x.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_GetUserByID(t *testing.T) {
	s, mock := newStorageWithMock(t)
	user := testUser()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(user.ID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(user.ID, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt))

	got, err := s.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Невалидный UUID не должен доходить до базы
func TestStorage_GetUserByID_NotUUID(t *testing.T) {
	s, mock := newStorageWithMock(t)

	_, err := s.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_GetUserByID_DBError(t *testing.T) {
	s, mock := newStorageWithMock(t)
	id := uuid.New().String()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetUserByID(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStorage_Ping(t *testing.T) {
	s, mock := newStorageWithMock(t)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))
}
