package dto

import (
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/regions"
	"github.com/waversurfing/waver-api/internal/stats"
)

type CreateSpotRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Region       string  `json:"region" validate:"required,max=80"`
	SubRegion    *string `json:"sub_region" validate:"omitempty,max=80"`
	SubSubRegion *string `json:"sub_sub_region" validate:"omitempty,max=80"`
}

type SpotListResponse struct {
	Spots []models.Spot `json:"spots"`
}

type RegionsResponse struct {
	Regions []*regions.Node `json:"regions"`
}

// SpotSummaryResponse is a spot with today's visible reports and their summary.
type SpotSummaryResponse struct {
	Spot    models.Spot      `json:"spot"`
	Reports []ReportResponse `json:"reports"`
	Summary stats.Summary    `json:"summary"`
}

type FavoriteStatusResponse struct {
	SpotID    uuid.UUID `json:"spot_id"`
	Favorited bool      `json:"favorited"`
}

type HomeResponse struct {
	Spots []SpotSummaryResponse `json:"spots"`
}
