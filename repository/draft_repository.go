package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"easyform/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository defines the interface for interacting with draft submissions.
type DraftRepository interface {
	Upsert(draft *models.DraftSubmission) (*models.DraftSubmission, error)
	GetActiveBySession(sessionID string, now time.Time) (*models.DraftSubmission, error)
	DeleteBySession(sessionID string) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
	Stats(formID string, now time.Time) (*models.DraftStatistics, error)
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new instance of DraftRepository.
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

// Upsert creates or replaces the draft row for the draft's session ID.
// The session_id unique index plus OnConflict keeps at most one live draft
// per session even under concurrent saves.
func (r *draftRepository) Upsert(draft *models.DraftSubmission) (*models.DraftSubmission, error) {
	if draft == nil {
		log.Printf("ERROR: [DraftRepository] Upsert: draft cannot be nil")
		return nil, errors.New("draft cannot be nil")
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"form_id", "answers", "current_step", "last_modified", "expires_at",
			"user_agent", "ip_address", "answer_count", "last_question_answered",
			"updated_at",
		}),
	}).Create(draft).Error
	if err != nil {
		log.Printf("ERROR: [DraftRepository] Failed to upsert draft for sessionID '%s': %v", draft.SessionID, err)
		return nil, fmt.Errorf("failed to upsert draft for session %s: %w", draft.SessionID, err)
	}

	// On conflict the struct keeps the freshly generated ID, not the one of
	// the surviving row. Re-fetch to return the actual stored state.
	var current models.DraftSubmission
	if fetchErr := r.db.First(&current, "session_id = ?", draft.SessionID).Error; fetchErr != nil {
		log.Printf("ERROR: [DraftRepository] Failed to fetch draft for sessionID '%s' after upsert: %v", draft.SessionID, fetchErr)
		return nil, fmt.Errorf("failed to fetch draft for session %s after upsert: %w", draft.SessionID, fetchErr)
	}

	log.Printf("INFO: [DraftRepository] Upserted draft ID %s for sessionID '%s' (step %d, %d answers).", current.ID, current.SessionID, current.CurrentStep, current.AnswerCount)
	return &current, nil
}

// GetActiveBySession retrieves the draft for a session, treating expired
// drafts as absent even if the sweep has not removed them yet.
// Returns (nil, nil) when no live draft exists.
func (r *draftRepository) GetActiveBySession(sessionID string, now time.Time) (*models.DraftSubmission, error) {
	var draft models.DraftSubmission
	err := r.db.First(&draft, "session_id = ? AND expires_at > ?", sessionID, now).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [DraftRepository] No live draft found for sessionID '%s'.", sessionID)
			return nil, nil
		}
		log.Printf("ERROR: [DraftRepository] Failed to retrieve draft for sessionID '%s': %v", sessionID, err)
		return nil, fmt.Errorf("failed to retrieve draft for session %s: %w", sessionID, err)
	}
	return &draft, nil
}

// DeleteBySession removes the draft for a session and reports how many rows
// were affected (0 when no draft existed).
func (r *draftRepository) DeleteBySession(sessionID string) (int64, error) {
	result := r.db.Delete(&models.DraftSubmission{}, "session_id = ?", sessionID)
	if result.Error != nil {
		log.Printf("ERROR: [DraftRepository] Failed to delete draft for sessionID '%s': %v", sessionID, result.Error)
		return 0, fmt.Errorf("failed to delete draft for session %s: %w", sessionID, result.Error)
	}
	log.Printf("INFO: [DraftRepository] Deleted %d draft(s) for sessionID '%s'.", result.RowsAffected, sessionID)
	return result.RowsAffected, nil
}

// DeleteExpired bulk-removes every draft past its expiry. Idempotent.
func (r *draftRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Delete(&models.DraftSubmission{}, "expires_at < ?", now)
	if result.Error != nil {
		log.Printf("ERROR: [DraftRepository] Failed to delete expired drafts: %v", result.Error)
		return 0, fmt.Errorf("failed to delete expired drafts: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("INFO: [DraftRepository] Deleted %d expired draft(s).", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// draftStatsRow is the raw aggregate row scanned from the drafts table.
type draftStatsRow struct {
	TotalDrafts    int64
	AverageStep    *float64
	AverageAnswers *float64
	OldestDraft    *time.Time
	NewestDraft    *time.Time
}

// Stats aggregates over non-expired drafts, optionally filtered by formID.
func (r *draftRepository) Stats(formID string, now time.Time) (*models.DraftStatistics, error) {
	query := r.db.Model(&models.DraftSubmission{}).
		Select("COUNT(*) AS total_drafts, AVG(current_step) AS average_step, AVG(answer_count) AS average_answers, MIN(last_modified) AS oldest_draft, MAX(last_modified) AS newest_draft").
		Where("expires_at > ?", now)
	if formID != "" {
		query = query.Where("form_id = ?", formID)
	}

	var row draftStatsRow
	if err := query.Scan(&row).Error; err != nil {
		log.Printf("ERROR: [DraftRepository] Failed to aggregate draft statistics (formID '%s'): %v", formID, err)
		return nil, fmt.Errorf("failed to aggregate draft statistics: %w", err)
	}

	stats := &models.DraftStatistics{
		TotalDrafts: row.TotalDrafts,
		OldestDraft: row.OldestDraft,
		NewestDraft: row.NewestDraft,
	}
	if row.AverageStep != nil {
		stats.AverageStep = *row.AverageStep
	}
	if row.AverageAnswers != nil {
		stats.AverageAnswers = *row.AverageAnswers
	}
	return stats, nil
}
