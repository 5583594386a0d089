package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/stats"
	"golang.org/x/sync/errgroup"
)

// maxSpotFetches bounds concurrent per-spot queries for one dashboard.
const maxSpotFetches = 8

// DashboardService builds the home screen: today's conditions at every favorite spot.
type DashboardService struct {
	favorites *FavoriteService
	reports   *ReportService
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDashboardService(favorites *FavoriteService, reports *ReportService, m *metrics.Metrics) *DashboardService {
	return &DashboardService{favorites: favorites, reports: reports, metrics: m, now: time.Now}
}

// Home fetches today's reports for each favorite spot concurrently. A spot whose
// fetch fails shows an empty list; it never affects the other spots.
func (s *DashboardService) Home(ctx context.Context, userID uuid.UUID, loc *time.Location) dto.HomeResponse {
	resp := dto.HomeResponse{Spots: []dto.SpotSummaryResponse{}}

	spots := s.favorites.List(ctx, userID)
	if len(spots) == 0 {
		return resp
	}

	viewer := s.reports.ViewerFor(ctx, userID)
	since := StartOfDay(s.now(), loc)

	var (
		mu      sync.Mutex
		results = make(map[uuid.UUID][]dto.ReportResponse, len(spots))
		g       errgroup.Group
	)
	g.SetLimit(maxSpotFetches)
	for _, spot := range spots {
		spotID := spot.ID
		g.Go(func() error {
			reports, err := s.reports.SpotReportsSince(ctx, viewer, spotID, since)
			if err != nil {
				slog.Error("home spot reports lookup failed", "error", err, "spot_id", spotID.String())
				s.metrics.ReadDefaulted("home_spot_reports")
				reports = []dto.ReportResponse{}
			}
			mu.Lock()
			results[spotID] = reports
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, spot := range spots {
		reports := results[spot.ID]
		resp.Spots = append(resp.Spots, dto.SpotSummaryResponse{
			Spot:    spot,
			Reports: reports,
			Summary: stats.Summarize(Samples(reports)),
		})
	}
	return resp
}
