package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameAvailableSkipsQueryForBadFormat(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewUserService(db)

	resp, err := svc.UsernameAvailable(context.Background(), "no spaces!")
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.False(t, resp.Available)
}

func TestUsernameAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	resp, err := svc.UsernameAvailable(context.Background(), "Kelly_S")
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.True(t, resp.Available)
	assert.Equal(t, "kelly_s", resp.Username)
}

func TestUsernameTaken(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	resp, err := svc.UsernameAvailable(context.Background(), "kelly_s")
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.Available)
}

func TestUserSearchEmptyQuery(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewUserService(db)

	users, err := svc.Search(context.Background(), uuid.New(), "   ")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserSearchWrapsErrors(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(db)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errors.New("connection reset"))

	_, err := svc.Search(context.Background(), uuid.New(), "kel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search users")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}
