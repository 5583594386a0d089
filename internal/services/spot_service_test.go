package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waversurfing/waver-api/internal/cache"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/regions"
)

func newTestSpotService(t *testing.T) (*SpotService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewSpotService(db, nil, regions.NewRegistry(regions.Default())), mock
}

func TestSpotGetNotFound(t *testing.T) {
	svc, mock := newTestSpotService(t)

	mock.ExpectQuery(`SELECT \* FROM "spots"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSpotNotFound)
}

func TestSpotListWithoutCache(t *testing.T) {
	svc, mock := newTestSpotService(t)

	mock.ExpectQuery(`SELECT \* FROM "spots" WHERE region = \$1 AND sub_region = \$2 ORDER BY name ASC`).
		WithArgs("Hawaii", "Oʻahu").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "region", "sub_region"}).
			AddRow(uuid.New(), "Pipeline", "Hawaii", "Oʻahu").
			AddRow(uuid.New(), "Sunset Beach", "Hawaii", "Oʻahu"))

	spots, err := svc.List(context.Background(), "Hawaii", "Oʻahu", "")
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, "Pipeline", spots[0].Name)
}

func TestSpotListCacheKeepsRegionCase(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	mr := miniredis.RunT(t)
	svc := NewSpotService(db, cache.New(ctx, cache.Options{Addr: mr.Addr()}), regions.NewRegistry(regions.Default()))

	mock.ExpectQuery(`SELECT \* FROM "spots" WHERE region = \$1 ORDER BY name ASC`).
		WithArgs("hawaii").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "region"}))
	mock.ExpectQuery(`SELECT \* FROM "spots" WHERE region = \$1 ORDER BY name ASC`).
		WithArgs("Hawaii").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "region"}).
			AddRow(uuid.New(), "Pipeline", "Hawaii"))

	lower, err := svc.List(ctx, "hawaii", "", "")
	require.NoError(t, err)
	assert.Empty(t, lower)

	spots, err := svc.List(ctx, "Hawaii", "", "")
	require.NoError(t, err)
	require.Len(t, spots, 1)

	// Second read is served from Redis; no query is expected.
	cached, err := svc.List(ctx, "Hawaii", "", "")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Pipeline", cached[0].Name)
}

func TestSpotSearchBlankQuery(t *testing.T) {
	svc, _ := newTestSpotService(t)

	spots, err := svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestSpotCreateRejectsUnknownRegion(t *testing.T) {
	svc, _ := newTestSpotService(t)

	sub := "Atlantis"
	_, err := svc.Create(context.Background(), &dto.CreateSpotRequest{Name: "Nowhere", Region: "Hawaii", SubRegion: &sub})
	assert.ErrorIs(t, err, regions.ErrUnknownRegion)

	subSub := "North Shore"
	_, err = svc.Create(context.Background(), &dto.CreateSpotRequest{Name: "Gap", Region: "Hawaii", SubSubRegion: &subSub})
	assert.ErrorIs(t, err, regions.ErrUnknownRegion)
}

func TestSpotCreate(t *testing.T) {
	svc, mock := newTestSpotService(t)

	mock.ExpectQuery(`INSERT INTO "spots"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	sub, subSub := "Oʻahu", "North Shore"
	spot, err := svc.Create(context.Background(), &dto.CreateSpotRequest{
		Name: " Pipeline ", Region: "Hawaii", SubRegion: &sub, SubSubRegion: &subSub,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pipeline", spot.Name)
	require.NotNil(t, spot.SubSubRegion)
	assert.Equal(t, "North Shore", *spot.SubSubRegion)
}
