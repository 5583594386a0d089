package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/friendship"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSelfFriend = errors.New("cannot befriend yourself")
	ErrBlocked    = errors.New("this user is not accepting requests from you")
)

type FriendService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewFriendService(db *gorm.DB, m *metrics.Metrics) *FriendService {
	return &FriendService{db: db, metrics: m}
}

// findEdge loads the single edge between a and b in either direction, or nil.
func findEdge(db *gorm.DB, a, b uuid.UUID) (*models.Friendship, error) {
	var edge models.Friendship
	err := db.Where(
		"(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
		a, b, b, a,
	).First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func toEdge(f *models.Friendship) *friendship.Edge {
	if f == nil {
		return nil
	}
	return &friendship.Edge{RequesterID: f.RequesterID, ReceiverID: f.ReceiverID, Status: f.Status}
}

// Status resolves the relationship as seen by me. Lookup failures read as not_friends.
func (s *FriendService) Status(ctx context.Context, me, other uuid.UUID) friendship.Status {
	if me == other {
		return friendship.NotFriends
	}
	edge, err := findEdge(s.db.WithContext(ctx), me, other)
	if err != nil {
		slog.Error("friend status lookup failed", "error", err, "user_id", me.String(), "other_id", other.String())
		s.metrics.ReadDefaulted("friend_status")
		return friendship.NotFriends
	}
	return friendship.Resolve(me, toEdge(edge))
}

// SendRequest asks other to be friends. If other already asked me, the two
// requests meet and the friendship is accepted. When both sides send at the
// same moment the losing insert hits the pair index; the send is then rerun
// once in a fresh transaction so it finds and accepts the other request.
func (s *FriendService) SendRequest(ctx context.Context, me, other uuid.UUID) (friendship.Status, error) {
	if me == other {
		return friendship.NotFriends, ErrSelfFriend
	}

	var result friendship.Status
	send := func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Select("id").First(&target, "id = ?", other).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var blocks int64
		if err := tx.Model(&models.Block{}).
			Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", other, me, me, other).
			Count(&blocks).Error; err != nil {
			return err
		}
		if blocks > 0 {
			return ErrBlocked
		}

		edge, err := findEdge(tx.Clauses(clause.Locking{Strength: "UPDATE"}), me, other)
		if err != nil {
			return err
		}
		effect, next, err := friendship.Transition(friendship.Resolve(me, toEdge(edge)), friendship.ActionSend)
		if err != nil {
			return err
		}

		switch effect {
		case friendship.EffectCreatePending:
			created := models.Friendship{
				ID:          uuid.New(),
				RequesterID: me,
				ReceiverID:  other,
				Status:      models.FriendshipPending,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
		case friendship.EffectMarkAccepted:
			if err := tx.Model(&models.Friendship{}).
				Where("id = ?", edge.ID).
				Update("status", models.FriendshipAccepted).Error; err != nil {
				return err
			}
		}
		result = next
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(send)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.db.WithContext(ctx).Transaction(send)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = friendship.ErrInvalidTransition
		}
	}
	if err != nil {
		return s.Status(ctx, me, other), err
	}
	s.metrics.FriendTransition(string(friendship.ActionSend))
	return result, nil
}

// Accept turns other's pending request to me into a friendship.
func (s *FriendService) Accept(ctx context.Context, me, other uuid.UUID) error {
	return s.apply(ctx, me, other, friendship.ActionAccept, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Friendship{}).
			Where("requester_id = ? AND receiver_id = ? AND status = ?", other, me, models.FriendshipPending).
			Update("status", models.FriendshipAccepted)
	})
}

// Cancel withdraws my pending request to other.
func (s *FriendService) Cancel(ctx context.Context, me, other uuid.UUID) error {
	return s.apply(ctx, me, other, friendship.ActionCancel, func(db *gorm.DB) *gorm.DB {
		return db.Where("requester_id = ? AND receiver_id = ? AND status = ?", me, other, models.FriendshipPending).
			Delete(&models.Friendship{})
	})
}

// Remove ends an accepted friendship regardless of who sent the original request.
func (s *FriendService) Remove(ctx context.Context, me, other uuid.UUID) error {
	return s.apply(ctx, me, other, friendship.ActionRemove, func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"((requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)) AND status = ?",
			me, other, other, me, models.FriendshipAccepted,
		).Delete(&models.Friendship{})
	})
}

// apply checks the transition against the current edge, then runs a mutation
// whose WHERE clause re-asserts the expected state so a concurrent change
// surfaces as ErrInvalidTransition instead of a silent overwrite.
func (s *FriendService) apply(ctx context.Context, me, other uuid.UUID, action friendship.Action, mutate func(*gorm.DB) *gorm.DB) error {
	if me == other {
		return ErrSelfFriend
	}
	db := s.db.WithContext(ctx)

	edge, err := findEdge(db, me, other)
	if err != nil {
		return fmt.Errorf("failed to load friendship: %w", err)
	}
	if _, _, err := friendship.Transition(friendship.Resolve(me, toEdge(edge)), action); err != nil {
		return err
	}

	result := mutate(db)
	if result.Error != nil {
		return fmt.Errorf("failed to %s friendship: %w", action, result.Error)
	}
	if result.RowsAffected == 0 {
		return friendship.ErrInvalidTransition
	}
	s.metrics.FriendTransition(string(action))
	return nil
}

// FriendIDs lists the users I have an accepted friendship with.
func (s *FriendService) FriendIDs(ctx context.Context, me uuid.UUID) ([]uuid.UUID, error) {
	var edges []models.Friendship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR receiver_id = ?) AND status = ?", me, me, models.FriendshipAccepted).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		if e.RequesterID == me {
			ids = append(ids, e.ReceiverID)
		} else {
			ids = append(ids, e.RequesterID)
		}
	}
	return ids, nil
}

// Friends lists accepted friends ordered by username. Failures yield an empty list.
func (s *FriendService) Friends(ctx context.Context, me uuid.UUID) []dto.FriendResponse {
	db := s.db.WithContext(ctx)
	result := []dto.FriendResponse{}

	var edges []models.Friendship
	if err := db.Where("(requester_id = ? OR receiver_id = ?) AND status = ?", me, me, models.FriendshipAccepted).
		Find(&edges).Error; err != nil {
		slog.Error("list friends failed", "error", err, "user_id", me.String())
		s.metrics.ReadDefaulted("friends")
		return result
	}
	if len(edges) == 0 {
		return result
	}

	since := make(map[uuid.UUID]models.Friendship, len(edges))
	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		other := e.RequesterID
		if other == me {
			other = e.ReceiverID
		}
		since[other] = e
		ids = append(ids, other)
	}

	usernames, err := usernamesByID(db, ids)
	if err != nil {
		slog.Error("list friends usernames failed", "error", err, "user_id", me.String())
		s.metrics.ReadDefaulted("friends")
		return result
	}
	for id, name := range usernames {
		result = append(result, dto.FriendResponse{UserID: id, Username: name, Since: since[id].UpdatedAt})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

// IncomingRequests lists pending requests sent to me, newest first. Failures yield an empty list.
func (s *FriendService) IncomingRequests(ctx context.Context, me uuid.UUID) []dto.FriendRequestResponse {
	db := s.db.WithContext(ctx)
	result := []dto.FriendRequestResponse{}

	var edges []models.Friendship
	if err := db.Where("receiver_id = ? AND status = ?", me, models.FriendshipPending).
		Order("created_at DESC").
		Find(&edges).Error; err != nil {
		slog.Error("list friend requests failed", "error", err, "user_id", me.String())
		s.metrics.ReadDefaulted("friend_requests")
		return result
	}
	if len(edges) == 0 {
		return result
	}

	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.RequesterID
	}
	usernames, err := usernamesByID(db, ids)
	if err != nil {
		slog.Error("list friend requests usernames failed", "error", err, "user_id", me.String())
		s.metrics.ReadDefaulted("friend_requests")
		return result
	}
	for _, e := range edges {
		name, ok := usernames[e.RequesterID]
		if !ok {
			continue
		}
		result = append(result, dto.FriendRequestResponse{UserID: e.RequesterID, Username: name, RequestedAt: e.CreatedAt})
	}
	return result
}

func usernamesByID(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}
