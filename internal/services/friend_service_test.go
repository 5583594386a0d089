package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waversurfing/waver-api/internal/friendship"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
)

var friendshipColumns = []string{"id", "requester_id", "receiver_id", "status", "created_at", "updated_at"}

func TestFriendStatusSelfSkipsQuery(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewFriendService(db, nil)

	me := uuid.New()
	assert.Equal(t, friendship.NotFriends, svc.Status(context.Background(), me, me))
}

func TestFriendStatusFromEdge(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		requester uuid.UUID
		receiver  uuid.UUID
		status    string
		want      friendship.Status
	}{
		{"outgoing pending", me, other, models.FriendshipPending, friendship.RequestSent},
		{"incoming pending", other, me, models.FriendshipPending, friendship.RequestReceived},
		{"accepted", other, me, models.FriendshipAccepted, friendship.Friends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := NewFriendService(db, nil)

			mock.ExpectQuery(`SELECT \* FROM "friendships"`).
				WillReturnRows(sqlmock.NewRows(friendshipColumns).
					AddRow(uuid.New(), tt.requester, tt.receiver, tt.status, now, now))

			assert.Equal(t, tt.want, svc.Status(context.Background(), me, other))
		})
	}
}

func TestFriendStatusNoEdge(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "friendships"`).WillReturnRows(sqlmock.NewRows(friendshipColumns))

	assert.Equal(t, friendship.NotFriends, svc.Status(context.Background(), uuid.New(), uuid.New()))
}

func TestFriendStatusFailsOpen(t *testing.T) {
	db, mock := newMockDB(t)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewFriendService(db, m)

	mock.ExpectQuery(`SELECT \* FROM "friendships"`).WillReturnError(errors.New("timeout"))

	assert.Equal(t, friendship.NotFriends, svc.Status(context.Background(), uuid.New(), uuid.New()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SwallowedReadFails.WithLabelValues("friend_status")))
}

func TestFriendIDsReturnsOtherSide(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)

	me, a, b := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "friendships"`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns).
			AddRow(uuid.New(), me, a, models.FriendshipAccepted, now, now).
			AddRow(uuid.New(), b, me, models.FriendshipAccepted, now, now))

	ids, err := svc.FriendIDs(context.Background(), me)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)
}

func TestSendRequestToSelf(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewFriendService(db, nil)

	me := uuid.New()
	_, err := svc.SendRequest(context.Background(), me, me)
	assert.ErrorIs(t, err, ErrSelfFriend)
}

// expectSendLookups queues the target, block and locked edge lookups that open
// every SendRequest transaction.
func expectSendLookups(mock sqlmock.Sqlmock, other uuid.UUID, blocks int, edge *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(other))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "blocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(blocks))
	if edge != nil {
		mock.ExpectQuery(`SELECT \* FROM "friendships" .* FOR UPDATE`).WillReturnRows(edge)
	}
}

func TestSendRequestCreatesPending(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()

	expectSendLookups(mock, other, 0, sqlmock.NewRows(friendshipColumns))
	mock.ExpectQuery(`INSERT INTO "friendships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	status, err := svc.SendRequest(context.Background(), me, other)
	require.NoError(t, err)
	assert.Equal(t, friendship.RequestSent, status)
}

func TestSendRequestAcceptsReciprocal(t *testing.T) {
	db, mock := newMockDB(t)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewFriendService(db, m)
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	edgeID := uuid.New()
	expectSendLookups(mock, other, 0, sqlmock.NewRows(friendshipColumns).
		AddRow(edgeID, other, me, models.FriendshipPending, now, now))
	mock.ExpectExec(`UPDATE "friendships" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(models.FriendshipAccepted, sqlmock.AnyArg(), edgeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, err := svc.SendRequest(context.Background(), me, other)
	require.NoError(t, err)
	assert.Equal(t, friendship.Friends, status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FriendTransitions.WithLabelValues("send")))
}

func TestSendRequestBlocked(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()

	expectSendLookups(mock, other, 1, nil)
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT \* FROM "friendships"`).WillReturnRows(sqlmock.NewRows(friendshipColumns))

	status, err := svc.SendRequest(context.Background(), me, other)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, friendship.NotFriends, status)
}

func TestSendRequestUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id" FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT \* FROM "friendships"`).WillReturnRows(sqlmock.NewRows(friendshipColumns))

	_, err := svc.SendRequest(context.Background(), me, other)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendRequestCrossedRequestsBecomeFriends(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	// other's request lands between our lookup and our insert.
	expectSendLookups(mock, other, 0, sqlmock.NewRows(friendshipColumns))
	mock.ExpectQuery(`INSERT INTO "friendships"`).WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	edgeID := uuid.New()
	expectSendLookups(mock, other, 0, sqlmock.NewRows(friendshipColumns).
		AddRow(edgeID, other, me, models.FriendshipPending, now, now))
	mock.ExpectExec(`UPDATE "friendships"`).
		WithArgs(models.FriendshipAccepted, sqlmock.AnyArg(), edgeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, err := svc.SendRequest(context.Background(), me, other)
	require.NoError(t, err)
	assert.Equal(t, friendship.Friends, status)
}

func TestSendRequestAlreadyFriends(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	expectSendLookups(mock, other, 0, sqlmock.NewRows(friendshipColumns).
		AddRow(uuid.New(), me, other, models.FriendshipAccepted, now, now))
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT \* FROM "friendships"`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns).
			AddRow(uuid.New(), me, other, models.FriendshipAccepted, now, now))

	status, err := svc.SendRequest(context.Background(), me, other)
	assert.ErrorIs(t, err, friendship.ErrInvalidTransition)
	assert.Equal(t, friendship.Friends, status)
}

func TestFriendMutations(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		requester uuid.UUID
		receiver  uuid.UUID
		status    string
		mutation  string
		run       func(*FriendService) error
	}{
		{
			name:      "accept incoming",
			requester: other,
			receiver:  me,
			status:    models.FriendshipPending,
			mutation:  `UPDATE "friendships" SET "status"=`,
			run:       func(s *FriendService) error { return s.Accept(context.Background(), me, other) },
		},
		{
			name:      "cancel outgoing",
			requester: me,
			receiver:  other,
			status:    models.FriendshipPending,
			mutation:  `DELETE FROM "friendships" WHERE requester_id = \$1 AND receiver_id = \$2 AND status = \$3`,
			run:       func(s *FriendService) error { return s.Cancel(context.Background(), me, other) },
		},
		{
			name:      "remove friend I was asked by",
			requester: other,
			receiver:  me,
			status:    models.FriendshipAccepted,
			mutation:  `DELETE FROM "friendships" WHERE .* OR .*status = `,
			run:       func(s *FriendService) error { return s.Remove(context.Background(), me, other) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := NewFriendService(db, nil)

			mock.ExpectQuery(`SELECT \* FROM "friendships"`).
				WillReturnRows(sqlmock.NewRows(friendshipColumns).
					AddRow(uuid.New(), tt.requester, tt.receiver, tt.status, now, now))
			mock.ExpectExec(tt.mutation).WillReturnResult(sqlmock.NewResult(0, 1))

			assert.NoError(t, tt.run(svc))
		})

		t.Run(tt.name+" lost race", func(t *testing.T) {
			db, mock := newMockDB(t)
			svc := NewFriendService(db, nil)

			mock.ExpectQuery(`SELECT \* FROM "friendships"`).
				WillReturnRows(sqlmock.NewRows(friendshipColumns).
					AddRow(uuid.New(), tt.requester, tt.receiver, tt.status, now, now))
			mock.ExpectExec(tt.mutation).WillReturnResult(sqlmock.NewResult(0, 0))

			assert.ErrorIs(t, tt.run(svc), friendship.ErrInvalidTransition)
		})
	}
}

func TestFriendMutationRejectedByState(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFriendService(db, nil)
	me, other := uuid.New(), uuid.New()
	now := time.Now()

	// My own outgoing request cannot be accepted by me; nothing is written.
	mock.ExpectQuery(`SELECT \* FROM "friendships"`).
		WillReturnRows(sqlmock.NewRows(friendshipColumns).
			AddRow(uuid.New(), me, other, models.FriendshipPending, now, now))

	assert.ErrorIs(t, svc.Accept(context.Background(), me, other), friendship.ErrInvalidTransition)
}
