package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/stats"
	"github.com/waversurfing/waver-api/internal/submission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrNotReportOwner = errors.New("only the author can change this report")
)

// CooldownError is returned when the user posted too recently.
type CooldownError struct {
	Decision submission.Decision
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("you can post another report in %d seconds", e.Decision.RetryAfterSeconds())
}

type ReportService struct {
	db         *gorm.DB
	gate       *submission.Gate
	moderation *ModerationService
	friends    *FriendService
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewReportService(db *gorm.DB, gate *submission.Gate, moderation *ModerationService, friends *FriendService, m *metrics.Metrics) *ReportService {
	return &ReportService{
		db:         db,
		gate:       gate,
		moderation: moderation,
		friends:    friends,
		metrics:    m,
		now:        time.Now,
	}
}

const reportColumns = "reports.id, reports.user_id, reports.spot_id, reports.rating, reports.height, reports.crowd, " +
	"reports.comment, reports.visibility, reports.timestamp, users.username AS username, spots.name AS spot_name"

// reportRow is a report joined with its author's username and spot name.
type reportRow struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	SpotID     uuid.UUID
	Rating     int
	Height     int
	Crowd      int
	Comment    *string
	Visibility string
	Timestamp  time.Time
	Username   string
	SpotName   string
}

func (s *ReportService) enriched(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("reports").Select(reportColumns).
		Joins("JOIN users ON users.id = reports.user_id AND users.deleted_at IS NULL").
		Joins("JOIN spots ON spots.id = reports.spot_id")
}

func toReportResponse(r reportRow) dto.ReportResponse {
	return dto.ReportResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		Username:   r.Username,
		SpotID:     r.SpotID,
		SpotName:   r.SpotName,
		Rating:     r.Rating,
		RatingText: stats.RatingText(r.Rating),
		Height:     r.Height,
		HeightText: stats.HeightText(r.Height),
		HeightFeet: stats.HeightFeet(r.Height),
		Crowd:      r.Crowd,
		Comment:    r.Comment,
		Visibility: r.Visibility,
		Timestamp:  r.Timestamp,
	}
}

func toReportResponses(rows []reportRow) []dto.ReportResponse {
	out := make([]dto.ReportResponse, len(rows))
	for i, r := range rows {
		out[i] = toReportResponse(r)
	}
	return out
}

// Samples converts responses into aggregator input.
func Samples(reports []dto.ReportResponse) []stats.Sample {
	out := make([]stats.Sample, len(reports))
	for i, r := range reports {
		out[i] = stats.Sample{Rating: r.Rating, Height: r.Height, Crowd: r.Crowd, Timestamp: r.Timestamp}
	}
	return out
}

// normalizeComment trims a comment and turns blank into nil.
func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func lastReportAt(db *gorm.DB, userID uuid.UUID) (*time.Time, error) {
	var last models.Report
	err := db.Select("timestamp").Where("user_id = ?", userID).Order("timestamp DESC").Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last.Timestamp, nil
}

// CanSubmit reports the gate state for userID. A failed lookup lets the user through;
// Create re-checks under a row lock.
func (s *ReportService) CanSubmit(ctx context.Context, userID uuid.UUID) submission.Decision {
	last, err := lastReportAt(s.db.WithContext(ctx), userID)
	if err != nil {
		slog.Error("last report lookup failed", "error", err, "user_id", userID.String())
		s.metrics.ReadDefaulted("can_submit")
		return submission.Decision{Allowed: true}
	}
	return s.gate.Check(last, s.now())
}

// Create stores a new report after the content filter and cooldown checks.
// The author's user row is locked so two concurrent posts cannot both pass the gate.
func (s *ReportService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	comment := normalizeComment(req.Comment)
	if comment != nil {
		if err := s.moderation.CheckComment(*comment); err != nil {
			s.metrics.ReportRejected("content")
			return nil, err
		}
	}

	var (
		created models.Report
		author  models.User
		spot    models.Spot
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "username").First(&author, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.First(&spot, "id = ?", req.SpotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSpotNotFound
			}
			return err
		}

		last, err := lastReportAt(tx, userID)
		if err != nil {
			return err
		}
		now := s.now()
		if d := s.gate.Check(last, now); !d.Allowed {
			return &CooldownError{Decision: d}
		}

		created = models.Report{
			ID:         uuid.New(),
			UserID:     userID,
			SpotID:     spot.ID,
			Rating:     *req.Rating,
			Height:     *req.Height,
			Crowd:      *req.Crowd,
			Comment:    comment,
			Visibility: visibility,
			Timestamp:  now.UTC(),
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		var cooldown *CooldownError
		if errors.As(err, &cooldown) {
			s.metrics.ReportRejected("cooldown")
		}
		return nil, err
	}

	s.metrics.ReportCreated(visibility)
	resp := toReportResponse(reportRow{
		ID: created.ID, UserID: created.UserID, SpotID: created.SpotID,
		Rating: created.Rating, Height: created.Height, Crowd: created.Crowd,
		Comment: created.Comment, Visibility: created.Visibility, Timestamp: created.Timestamp,
		Username: author.Username, SpotName: spot.Name,
	})
	return &resp, nil
}

// Update lets the author change rating, height, crowd, comment and visibility.
func (s *ReportService) Update(ctx context.Context, userID, reportID uuid.UUID, req *dto.UpdateReportRequest) (*dto.ReportResponse, error) {
	db := s.db.WithContext(ctx)

	var report models.Report
	if err := db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if report.UserID != userID {
		return nil, ErrNotReportOwner
	}

	updates := map[string]interface{}{}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Height != nil {
		updates["height"] = *req.Height
	}
	if req.Crowd != nil {
		updates["crowd"] = *req.Crowd
	}
	if req.Visibility != nil {
		updates["visibility"] = *req.Visibility
	}
	if req.Comment != nil {
		if c := normalizeComment(req.Comment); c != nil {
			if err := s.moderation.CheckComment(*c); err != nil {
				return nil, err
			}
			updates["comment"] = *c
		} else {
			updates["comment"] = nil
		}
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Report{}).
			Where("id = ? AND user_id = ?", reportID, userID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update report: %w", err)
		}
	}
	return s.Get(ctx, userID, reportID)
}

func (s *ReportService) Delete(ctx context.Context, userID, reportID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	result := db.Where("id = ? AND user_id = ?", reportID, userID).Delete(&models.Report{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete report: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Report{}).Where("id = ?", reportID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrNotReportOwner
	}
	return ErrReportNotFound
}

// Get returns one report if viewerID may see it. Hidden reports read as not found.
func (s *ReportService) Get(ctx context.Context, viewerID, reportID uuid.UUID) (*dto.ReportResponse, error) {
	var rows []reportRow
	if err := s.enriched(ctx).Where("reports.id = ?", reportID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrReportNotFound
	}

	v := s.ViewerFor(ctx, viewerID)
	if !v.CanSee(rows[0].UserID, rows[0].Visibility) {
		return nil, ErrReportNotFound
	}
	resp := toReportResponse(rows[0])
	return &resp, nil
}

// SpotReportsSince lists reports at spotID from since onwards that v may see, newest first.
func (s *ReportService) SpotReportsSince(ctx context.Context, v Viewer, spotID uuid.UUID, since time.Time) ([]dto.ReportResponse, error) {
	var rows []reportRow
	err := s.enriched(ctx).Scopes(v.Scope).
		Where("reports.spot_id = ? AND reports.timestamp >= ?", spotID, since).
		Order("reports.timestamp DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toReportResponses(rows), nil
}

// TodayForSpot lists today's visible reports at a spot. "Today" starts at
// midnight in loc. A failed lookup reads as no reports.
func (s *ReportService) TodayForSpot(ctx context.Context, viewerID, spotID uuid.UUID, loc *time.Location) []dto.ReportResponse {
	reports, err := s.SpotReportsSince(ctx, s.ViewerFor(ctx, viewerID), spotID, StartOfDay(s.now(), loc))
	if err != nil {
		slog.Error("spot reports lookup failed", "error", err, "spot_id", spotID.String())
		s.metrics.ReadDefaulted("spot_reports")
		return []dto.ReportResponse{}
	}
	return reports
}

// SpotSummary is a spot plus today's visible reports and their aggregate.
// A failed report fetch yields an empty summary rather than an error.
func (s *ReportService) SpotSummary(ctx context.Context, viewerID, spotID uuid.UUID, loc *time.Location) (*dto.SpotSummaryResponse, error) {
	var spot models.Spot
	if err := s.db.WithContext(ctx).First(&spot, "id = ?", spotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}

	reports := s.TodayForSpot(ctx, viewerID, spotID, loc)
	return &dto.SpotSummaryResponse{
		Spot:    spot,
		Reports: reports,
		Summary: stats.Summarize(Samples(reports)),
	}, nil
}

// UserHistory pages through ownerID's reports visible to viewerID, newest first,
// with a summary computed over every visible report rather than just the page.
func (s *ReportService) UserHistory(ctx context.Context, viewerID, ownerID uuid.UUID, limit, offset int) (*dto.ReportHistoryResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", ownerID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	v := s.ViewerFor(ctx, viewerID)

	var rows []reportRow
	if err := s.enriched(ctx).Scopes(v.Scope).
		Where("reports.user_id = ?", ownerID).
		Order("reports.timestamp DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	var samples []stats.Sample
	if err := s.db.WithContext(ctx).Table("reports").
		Select("reports.rating, reports.height, reports.crowd, reports.timestamp").
		Scopes(v.Scope).
		Where("reports.user_id = ?", ownerID).
		Scan(&samples).Error; err != nil {
		return nil, fmt.Errorf("failed to load report stats: %w", err)
	}

	return &dto.ReportHistoryResponse{
		Reports: toReportResponses(rows),
		Summary: stats.Summarize(samples),
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// FriendFeed lists reports by viewerID's accepted friends, newest first.
// Private reports never appear, even to friends. A failed lookup reads as an
// empty feed.
func (s *ReportService) FriendFeed(ctx context.Context, viewerID uuid.UUID, limit, offset int) []dto.ReportResponse {
	v := s.ViewerFor(ctx, viewerID)
	if len(v.Friends) == 0 {
		return []dto.ReportResponse{}
	}

	var rows []reportRow
	query := s.enriched(ctx).
		Where("reports.user_id IN ? AND reports.visibility IN ?", v.Friends,
			[]string{models.VisibilityPublic, models.VisibilityFriends})
	if len(v.Blocked) > 0 {
		query = query.Where("reports.user_id NOT IN ?", v.Blocked)
	}
	if err := query.Order("reports.timestamp DESC").Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
		slog.Error("friend feed lookup failed", "error", err, "user_id", viewerID.String())
		s.metrics.ReadDefaulted("friend_feed")
		return []dto.ReportResponse{}
	}
	return toReportResponses(rows)
}

// ViewerFor gathers what visibility checks need to know about a viewer.
// Lookup failures degrade to no friends and no blocks.
func (s *ReportService) ViewerFor(ctx context.Context, viewerID uuid.UUID) Viewer {
	v := Viewer{ID: viewerID}

	friends, err := s.friends.FriendIDs(ctx, viewerID)
	if err != nil {
		slog.Error("friend ids lookup failed", "error", err, "user_id", viewerID.String())
		s.metrics.ReadDefaulted("viewer_friends")
	} else {
		v.Friends = friends
	}

	blocked, err := s.moderation.BlockedIDs(ctx, viewerID)
	if err != nil {
		slog.Error("blocked ids lookup failed", "error", err, "user_id", viewerID.String())
		s.metrics.ReadDefaulted("viewer_blocks")
	} else {
		v.Blocked = blocked
	}
	return v
}

// StartOfDay is midnight of now's date in loc (UTC when loc is nil).
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
