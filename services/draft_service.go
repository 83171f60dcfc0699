package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"easyform/models"
	"easyform/repository"
	"easyform/utils"

	"gorm.io/datatypes"
)

// minSessionIDLength is a format guard on session identifiers, not a
// cryptographic check.
const minSessionIDLength = 10

// DraftService defines the interface for the draft save/resume lifecycle.
type DraftService interface {
	SaveDraft(req *models.SaveDraftRequest, metadata *models.RequestMetadata) (*models.DraftSaveResult, error)
	GetDraft(sessionID string) (*models.DraftView, error)
	DeleteDraft(sessionID string) error
	CleanupExpiredDrafts() *models.CleanupResult
	GetDraftStatistics(formID string) (*models.DraftStatistics, error)
}

// draftService implements the DraftService interface.
type draftService struct {
	draftRepo repository.DraftRepository
}

// NewDraftService creates a new instance of DraftService.
func NewDraftService(draftRepo repository.DraftRepository) DraftService {
	return &draftService{draftRepo: draftRepo}
}

// SaveDraft creates or replaces the draft for the request's session, bumping
// lastModified and pushing expiry out by the draft retention period.
func (s *draftService) SaveDraft(req *models.SaveDraftRequest, metadata *models.RequestMetadata) (*models.DraftSaveResult, error) {
	if len(req.SessionID) < minSessionIDLength {
		return nil, utils.NewBadRequest("Invalid session ID format")
	}
	if req.CurrentStep < 0 {
		return nil, utils.NewBadRequest("Current step must be a non-negative number")
	}

	if metadata == nil {
		metadata = &models.RequestMetadata{}
	}

	answers := req.Answers
	if answers == nil {
		answers = map[string]interface{}{}
	}

	now := time.Now()
	draft := &models.DraftSubmission{
		SessionID:            req.SessionID,
		FormID:               req.FormID,
		Answers:              datatypes.JSONMap(answers),
		CurrentStep:          req.CurrentStep,
		LastModified:         now,
		ExpiresAt:            now.AddDate(0, 0, models.DraftExpiryDays),
		UserAgent:            metadata.UserAgent,
		IPAddress:            metadata.IPAddress,
		AnswerCount:          len(answers),
		LastQuestionAnswered: lastAnsweredQuestion(answers),
	}

	saved, err := s.draftRepo.Upsert(draft)
	if err != nil {
		log.Printf("ERROR: [DraftService] Failed to save draft for sessionID '%s': %v", req.SessionID, err)
		return &models.DraftSaveResult{
			Success: false,
			Message: "Failed to save draft",
			Errors:  []string{"An unexpected error occurred"},
		}, nil
	}

	log.Printf("INFO: [DraftService] Saved draft %s for sessionID '%s' (step %d, %d answers).", saved.ID, saved.SessionID, saved.CurrentStep, saved.AnswerCount)
	return &models.DraftSaveResult{
		Success:      true,
		Message:      "Draft saved successfully",
		DraftID:      saved.ID,
		LastModified: utils.FormatTimestamp(saved.LastModified),
	}, nil
}

// GetDraft retrieves the live draft for a session. Returns (nil, nil) when
// no draft exists or the draft has expired, even if the expired row has not
// been physically purged yet.
func (s *draftService) GetDraft(sessionID string) (*models.DraftView, error) {
	if len(sessionID) < minSessionIDLength {
		return nil, utils.NewBadRequest("Invalid session ID format")
	}

	draft, err := s.draftRepo.GetActiveBySession(sessionID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch draft for session %s: %w", sessionID, err)
	}
	if draft == nil {
		return nil, nil
	}

	return &models.DraftView{
		SessionID:    draft.SessionID,
		FormID:       draft.FormID,
		Answers:      map[string]interface{}(draft.Answers),
		CurrentStep:  draft.CurrentStep,
		LastModified: utils.FormatTimestamp(draft.LastModified),
		ExpiresAt:    utils.FormatTimestamp(draft.ExpiresAt),
	}, nil
}

// DeleteDraft removes the draft for a session, failing with not-found when
// nothing was stored for it.
func (s *draftService) DeleteDraft(sessionID string) error {
	if len(sessionID) < minSessionIDLength {
		return utils.NewBadRequest("Invalid session ID format")
	}

	deleted, err := s.draftRepo.DeleteBySession(sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete draft for session %s: %w", sessionID, err)
	}
	if deleted == 0 {
		return utils.NewNotFound("Draft not found")
	}

	log.Printf("INFO: [DraftService] Deleted draft for sessionID '%s'.", sessionID)
	return nil
}

// CleanupExpiredDrafts bulk-removes every draft past its expiry. Idempotent
// and safe to run repeatedly; failures report a zero count rather than an
// error so schedulers and admin calls never have to handle one.
func (s *draftService) CleanupExpiredDrafts() *models.CleanupResult {
	deleted, err := s.draftRepo.DeleteExpired(time.Now())
	if err != nil {
		log.Printf("ERROR: [DraftService] Failed to cleanup expired drafts: %v", err)
		return &models.CleanupResult{
			DeletedCount: 0,
			Message:      "Failed to cleanup expired drafts",
		}
	}
	return &models.CleanupResult{
		DeletedCount: deleted,
		Message:      fmt.Sprintf("Successfully cleaned up %d expired drafts", deleted),
	}
}

// GetDraftStatistics aggregates over non-expired drafts, optionally filtered
// by form. An empty match yields a zeroed record, never an error.
func (s *draftService) GetDraftStatistics(formID string) (*models.DraftStatistics, error) {
	stats, err := s.draftRepo.Stats(formID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get draft statistics: %w", err)
	}
	return stats, nil
}

// lastAnsweredQuestion returns the last answer key, in sorted key order,
// whose value is present and non-empty. Empty string when none qualify.
func lastAnsweredQuestion(answers map[string]interface{}) string {
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	last := ""
	for _, key := range keys {
		if !isEmptyAnswer(answers[key]) {
			last = key
		}
	}
	return last
}
