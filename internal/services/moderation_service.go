package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrFlagNotFound     = errors.New("flag not found")
	ErrFlagTargetAbsent = errors.New("flagged report or user does not exist")
	ErrAlreadyBlocked   = errors.New("user already blocked")
	ErrSelfBlock        = errors.New("cannot block yourself")
)

// ContentRejectedError is returned when free text fails the content filter.
type ContentRejectedError struct {
	Reason  string
	Message string
}

func (e *ContentRejectedError) Error() string {
	return "content rejected: " + e.Reason
}

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

type ModerationService struct {
	db                  *gorm.DB
	bannedWordRegexps   []*regexp.Regexp
	urlPattern          *regexp.Regexp
	emailPattern        *regexp.Regexp
	phonePattern        *regexp.Regexp
	repeatedCharPattern *regexp.Regexp
	allCapsPattern      *regexp.Regexp
	compiled            bool
	mu                  sync.RWMutex
}

func NewModerationService(db *gorm.DB) *ModerationService {
	ms := &ModerationService{db: db}
	ms.compilePatterns()
	return ms
}

func (ms *ModerationService) compilePatterns() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.compiled {
		return
	}

	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			ms.bannedWordRegexps = append(ms.bannedWordRegexps, re)
		}
	}

	ms.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	ms.emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	ms.phonePattern = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`)
	// Surfers stretch words ("sooo goood"), so only long runs count as spam.
	ms.repeatedCharPattern = regexp.MustCompile(`(?i)(a{7,}|b{7,}|c{7,}|d{7,}|e{7,}|f{7,}|g{7,}|h{7,}|i{7,}|j{7,}|k{7,}|l{7,}|m{7,}|n{7,}|o{7,}|p{7,}|q{7,}|r{7,}|s{7,}|t{7,}|u{7,}|v{7,}|w{7,}|x{7,}|y{7,}|z{7,}|!{7,}|\?{7,}|\.{7,})`)
	ms.allCapsPattern = regexp.MustCompile(`[A-Z]{5,}`)
	ms.compiled = true
}

func (ms *ModerationService) FilterContent(text string) (bool, string) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if ms.urlPattern.MatchString(text) {
		return false, "url_not_allowed"
	}
	if ms.emailPattern.MatchString(text) {
		return false, "contact_info_not_allowed"
	}
	if ms.phonePattern.MatchString(text) {
		return false, "contact_info_not_allowed"
	}
	if ms.repeatedCharPattern.MatchString(text) {
		return false, "spam_detected"
	}
	capsMatches := ms.allCapsPattern.FindAllString(text, -1)
	if len(capsMatches) > 2 {
		return false, "excessive_caps"
	}
	return true, ""
}

func (ms *ModerationService) ContainsProfanity(text string) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (ms *ModerationService) GetRejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language":   "Your comment contains inappropriate language.",
		"url_not_allowed":          "URLs and web links are not allowed in comments.",
		"contact_info_not_allowed": "Contact information is not allowed in comments.",
		"spam_detected":            "Your comment appears to be spam.",
		"excessive_caps":           "Please avoid using excessive capital letters.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your comment does not meet our content guidelines."
}

// CheckComment runs FilterContent and wraps a rejection as *ContentRejectedError.
func (ms *ModerationService) CheckComment(text string) error {
	if ok, reason := ms.FilterContent(text); !ok {
		return &ContentRejectedError{Reason: reason, Message: ms.GetRejectionMessage(reason)}
	}
	return nil
}

func (s *ModerationService) CreateFlag(ctx context.Context, reporterID uuid.UUID, req *dto.CreateFlagRequest) (*models.Flag, error) {
	db := s.db.WithContext(ctx)

	var target interface{} = &models.User{}
	if req.TargetType == "report" {
		target = &models.Report{}
	}
	var count int64
	if err := db.Model(target).Where("id = ?", req.TargetID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check flag target: %w", err)
	}
	if count == 0 {
		return nil, ErrFlagTargetAbsent
	}

	flag := models.Flag{
		ID:         uuid.New(),
		ReporterID: reporterID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     "pending",
	}
	if err := db.Create(&flag).Error; err != nil {
		return nil, fmt.Errorf("failed to create flag: %w", err)
	}
	return &flag, nil
}

func (s *ModerationService) ListFlags(ctx context.Context, status string, limit, offset int) ([]models.Flag, int64, error) {
	var flags []models.Flag
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Flag{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&flags).Error; err != nil {
		return nil, 0, err
	}
	return flags, total, nil
}

func (s *ModerationService) ActionFlag(ctx context.Context, flagID uuid.UUID, req *dto.ActionFlagRequest) error {
	result := s.db.WithContext(ctx).Model(&models.Flag{}).
		Where("id = ?", flagID).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"admin_note": req.AdminNote,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFlagNotFound
	}
	return nil
}

// BlockUser also ends any friendship or pending request between the two users.
func (s *ModerationService) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", blockedID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}

		block := models.Block{
			ID:        uuid.New(),
			BlockerID: blockerID,
			BlockedID: blockedID,
		}
		if err := tx.Create(&block).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBlocked
			}
			return err
		}

		return tx.Where(
			"(requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?)",
			blockerID, blockedID, blockedID, blockerID,
		).Delete(&models.Friendship{}).Error
	})
}

func (s *ModerationService) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
}

// BlockedIDs lists users whose content userID has hidden.
func (s *ModerationService) BlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var blocks []models.Block
	if err := s.db.WithContext(ctx).Where("blocker_id = ?", userID).Find(&blocks).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	return ids, nil
}
