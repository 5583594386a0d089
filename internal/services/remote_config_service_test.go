package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var remoteConfigColumns = []string{"id", "key", "value", "type"}

func TestRemoteConfigPublicDecodesTypes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)

	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).
			AddRow(uuid.New(), "maintenance_mode", "true", "bool").
			AddRow(uuid.New(), "min_app_version", "1.2.0", "string").
			AddRow(uuid.New(), "featured", `["Pipeline"]`, "json"))

	got, err := svc.Public(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, got["maintenance_mode"])
	assert.Equal(t, 30, got["report_cooldown_minutes"])
	assert.Equal(t, "1.2.0", got["min_app_version"])
	assert.Equal(t, []interface{}{"Pipeline"}, got["featured"])
}

func TestRemoteConfigPublicReportsGateCooldown(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 45*time.Minute)

	// A row left over from an older seed must not override the real value.
	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).
			AddRow(uuid.New(), ReportCooldownKey, "30", "int"))

	got, err := svc.Public(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, got[ReportCooldownKey])
}

func TestRemoteConfigCooldownIsReadOnly(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)

	_, err := svc.Set(context.Background(), ReportCooldownKey, "5", "int")
	assert.ErrorIs(t, err, ErrConfigReadOnly)
	assert.ErrorIs(t, svc.Delete(context.Background(), ReportCooldownKey), ErrConfigReadOnly)
}

func TestRemoteConfigSetRejectsMistypedValue(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)

	_, err := svc.Set(context.Background(), "maintenance_mode", "maybe", "bool")
	assert.Error(t, err)
	_, err = svc.Set(context.Background(), "min_reports_for_summary", "three", "int")
	assert.Error(t, err)
	_, err = svc.Set(context.Background(), "featured", "{", "json")
	assert.Error(t, err)
}

func TestRemoteConfigDeleteMissingKey(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)

	mock.ExpectExec(`DELETE FROM "remote_configs"`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), ErrConfigNotFound)
}

func TestInMaintenance(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).AddRow(uuid.New(), "maintenance_mode", "true", "bool"))
	assert.True(t, svc.InMaintenance(context.Background()))

	now = now.Add(maintenanceTTL)
	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).WillReturnError(errors.New("db down"))
	assert.False(t, svc.InMaintenance(context.Background()))
}

func TestInMaintenanceReusesRecentRead(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).AddRow(uuid.New(), "maintenance_mode", "true", "bool"))

	for i := 0; i < 50; i++ {
		assert.True(t, svc.InMaintenance(context.Background()))
	}
	now = now.Add(maintenanceTTL - time.Millisecond)
	assert.True(t, svc.InMaintenance(context.Background()))
}

func TestInMaintenanceSeesOwnWrites(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRemoteConfigService(db, 30*time.Minute)
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).AddRow(uuid.New(), "maintenance_mode", "false", "bool"))
	assert.False(t, svc.InMaintenance(context.Background()))

	mock.ExpectQuery(`INSERT INTO "remote_configs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	_, err := svc.Set(context.Background(), MaintenanceModeKey, "true", "bool")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "remote_configs"`).
		WillReturnRows(sqlmock.NewRows(remoteConfigColumns).AddRow(uuid.New(), "maintenance_mode", "true", "bool"))
	assert.True(t, svc.InMaintenance(context.Background()))
}
