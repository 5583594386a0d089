// Package friendship derives the relationship between two users from the
// single friendship edge stored for their pair, and guards state changes.
package friendship

import (
	"errors"

	"github.com/google/uuid"
)

type Status string

const (
	NotFriends      Status = "not_friends"
	RequestSent     Status = "request_sent"
	RequestReceived Status = "request_received"
	Friends         Status = "friends"
)

// Stored edge statuses.
const (
	EdgePending  = "pending"
	EdgeAccepted = "accepted"
)

var ErrInvalidTransition = errors.New("invalid friendship transition")

// Edge is the stored relationship row, whichever direction it was found in.
type Edge struct {
	RequesterID uuid.UUID
	ReceiverID  uuid.UUID
	Status      string
}

// Resolve returns the status as seen by caller. A nil edge means the pair has no relationship.
func Resolve(caller uuid.UUID, edge *Edge) Status {
	if edge == nil {
		return NotFriends
	}
	switch edge.Status {
	case EdgeAccepted:
		return Friends
	case EdgePending:
		if edge.RequesterID == caller {
			return RequestSent
		}
		return RequestReceived
	default:
		return NotFriends
	}
}

// Action is a mutation a caller can attempt on a relationship.
type Action string

const (
	ActionSend   Action = "send"
	ActionAccept Action = "accept"
	ActionCancel Action = "cancel"
	ActionRemove Action = "remove"
)

// Effect describes what the store must do to apply an allowed action.
type Effect int

const (
	EffectNone Effect = iota
	EffectCreatePending
	EffectMarkAccepted
	EffectDelete
)

// Transition checks action against the current status and returns the store
// effect and resulting status. Sending to someone who already asked you
// collapses into accepting their request.
func Transition(current Status, action Action) (Effect, Status, error) {
	switch action {
	case ActionSend:
		switch current {
		case NotFriends:
			return EffectCreatePending, RequestSent, nil
		case RequestReceived:
			return EffectMarkAccepted, Friends, nil
		}
	case ActionAccept:
		if current == RequestReceived {
			return EffectMarkAccepted, Friends, nil
		}
	case ActionCancel:
		if current == RequestSent {
			return EffectDelete, NotFriends, nil
		}
	case ActionRemove:
		if current == Friends {
			return EffectDelete, NotFriends, nil
		}
	}
	return EffectNone, current, ErrInvalidTransition
}
