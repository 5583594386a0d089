package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/stats"
)

type CreateReportRequest struct {
	SpotID     uuid.UUID `json:"spot_id" validate:"required"`
	Rating     *int      `json:"rating" validate:"required,min=0,max=3"`
	Height     *int      `json:"height" validate:"required,min=0,max=9"`
	Crowd      *int      `json:"crowd" validate:"required,min=0,max=3"`
	Comment    *string   `json:"comment" validate:"omitempty,report_comment"`
	Visibility string    `json:"visibility" validate:"omitempty,oneof=public friends private"`
}

// UpdateReportRequest carries only the fields being changed. An empty comment clears it.
type UpdateReportRequest struct {
	Rating     *int    `json:"rating" validate:"omitempty,min=0,max=3"`
	Height     *int    `json:"height" validate:"omitempty,min=0,max=9"`
	Crowd      *int    `json:"crowd" validate:"omitempty,min=0,max=3"`
	Comment    *string `json:"comment" validate:"omitempty,report_comment"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=public friends private"`
}

type ReportResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	SpotID     uuid.UUID `json:"spot_id"`
	SpotName   string    `json:"spot_name,omitempty"`
	Rating     int       `json:"rating"`
	RatingText string    `json:"rating_text"`
	Height     int       `json:"height"`
	HeightText string    `json:"height_text"`
	HeightFeet string    `json:"height_feet"`
	Crowd      int       `json:"crowd"`
	Comment    *string   `json:"comment"`
	Visibility string    `json:"visibility"`
	Timestamp  time.Time `json:"timestamp"`
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ReportHistoryResponse is a user's reports plus stats over all of them.
type ReportHistoryResponse struct {
	Reports []ReportResponse `json:"reports"`
	Summary stats.Summary    `json:"summary"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type CanSubmitResponse struct {
	Allowed    bool       `json:"allowed"`
	RetryAfter int        `json:"retry_after"`
	NextAt     *time.Time `json:"next_at,omitempty"`
}

type CooldownErrorResponse struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
