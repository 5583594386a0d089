package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waversurfing/waver-api/internal/dto"
)

func TestFilterContent(t *testing.T) {
	ms := NewModerationService(nil)

	tests := []struct {
		text   string
		ok     bool
		reason string
	}{
		{"", true, ""},
		{"Glassy and clean, offshore all morning", true, ""},
		{"sooo goood out there", true, ""},
		{"total shit show at the point", false, "inappropriate_language"},
		{"more pics at www.example.com/waves", false, "url_not_allowed"},
		{"dm me kai@example.com", false, "contact_info_not_allowed"},
		{"heyyyyyyyyy", false, "spam_detected"},
		{"HUGE SWELL TODAY BRAHS", false, "excessive_caps"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ok, reason := ms.FilterContent(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestCheckCommentWrapsRejection(t *testing.T) {
	ms := NewModerationService(nil)

	assert.NoError(t, ms.CheckComment("fun little peelers"))

	err := ms.CheckComment("visit https://example.com")
	var rejected *ContentRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "url_not_allowed", rejected.Reason)
	assert.NotEmpty(t, rejected.Message)
}

func TestBlockSelf(t *testing.T) {
	db, _ := newMockDB(t)
	ms := NewModerationService(db)

	id := uuid.New()
	assert.ErrorIs(t, ms.BlockUser(context.Background(), id, id), ErrSelfBlock)
}

func TestCreateFlagMissingTarget(t *testing.T) {
	db, mock := newMockDB(t)
	ms := NewModerationService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := ms.CreateFlag(context.Background(), uuid.New(), &dto.CreateFlagRequest{
		TargetType: "report", TargetID: uuid.New(), Reason: "spam",
	})
	assert.ErrorIs(t, err, ErrFlagTargetAbsent)
}

func TestActionFlagNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	ms := NewModerationService(db)

	mock.ExpectExec(`UPDATE "flags"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := ms.ActionFlag(context.Background(), uuid.New(), &dto.ActionFlagRequest{Status: "dismissed"})
	assert.ErrorIs(t, err, ErrFlagNotFound)
}
