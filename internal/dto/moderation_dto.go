package dto

import "github.com/google/uuid"

type CreateFlagRequest struct {
	TargetType string    `json:"target_type" validate:"required,oneof=report user"`
	TargetID   uuid.UUID `json:"target_id" validate:"required"`
	Reason     string    `json:"reason" validate:"required,max=500"`
}

type ActionFlagRequest struct {
	Status    string `json:"status" validate:"required,oneof=reviewed actioned dismissed"`
	AdminNote string `json:"admin_note" validate:"max=1000"`
}

type BlockUserRequest struct {
	BlockedID uuid.UUID `json:"blocked_id" validate:"required"`
}

type SetConfigRequest struct {
	Value string `json:"value" validate:"required"`
	Type  string `json:"type" validate:"omitempty,oneof=string bool int json"`
}
