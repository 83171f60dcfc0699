package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"easyform/models"

	"gorm.io/gorm"
)

// SubmissionRepository defines the interface for interacting with stored form submissions.
type SubmissionRepository interface {
	Create(submission *models.FormSubmission) error
	GetByID(id string) (*models.FormSubmission, error)
	List(formID, userEmail string, limit, offset int) ([]*models.FormSubmission, int64, error)
	FindRecentBySession(sessionID string, since time.Time) ([]*models.FormSubmission, error)
	IncrementAttempts(id string, now time.Time) error
	CountRecentByIP(ipAddress string, since time.Time) (int64, error)
	CountSubmissions(formID string) (int64, error)
	SubmissionsByDate(formID string) ([]models.DateCount, error)
	AverageQuestionCount(formID string) (float64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create persists a new form submission.
func (r *submissionRepository) Create(submission *models.FormSubmission) error {
	if submission == nil {
		log.Printf("ERROR: [SubmissionRepository] Create: submission cannot be nil")
		return errors.New("submission cannot be nil")
	}
	err := r.db.Create(submission).Error
	if err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to create submission for formID '%s': %v", submission.FormID, err)
		return fmt.Errorf("failed to create submission: %w", err)
	}
	log.Printf("INFO: [SubmissionRepository] Successfully created submission ID %s (formID '%s', %d questions).", submission.ID, submission.FormID, len(submission.Questions))
	return nil
}

// GetByID retrieves a submission by its ID. Returns (nil, nil) when absent.
func (r *submissionRepository) GetByID(id string) (*models.FormSubmission, error) {
	var submission models.FormSubmission
	err := r.db.First(&submission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [SubmissionRepository] Submission with ID %s not found.", id)
			return nil, nil
		}
		log.Printf("ERROR: [SubmissionRepository] Failed to retrieve submission ID %s: %v", id, err)
		return nil, fmt.Errorf("failed to retrieve submission ID %s: %w", id, err)
	}
	return &submission, nil
}

// List retrieves submissions newest-first with optional formID/userEmail
// filters, plus the total count matching the filter.
func (r *submissionRepository) List(formID, userEmail string, limit, offset int) ([]*models.FormSubmission, int64, error) {
	query := r.db.Model(&models.FormSubmission{})
	if formID != "" {
		query = query.Where("form_id = ?", formID)
	}
	if userEmail != "" {
		query = query.Where("user_email = ?", userEmail)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to count submissions: %v", err)
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var submissions []*models.FormSubmission
	err := query.Order("submitted_at desc").Limit(limit).Offset(offset).Find(&submissions).Error
	if err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to list submissions: %v", err)
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	log.Printf("INFO: [SubmissionRepository] Listed %d of %d submissions (formID '%s', userEmail '%s').", len(submissions), total, formID, userEmail)
	return submissions, total, nil
}

// FindRecentBySession retrieves submissions for a session whose last attempt
// falls after `since`, newest attempt first. Used by the submission guard.
func (r *submissionRepository) FindRecentBySession(sessionID string, since time.Time) ([]*models.FormSubmission, error) {
	var submissions []*models.FormSubmission
	err := r.db.
		Where("session_id = ? AND last_submission_attempt >= ?", sessionID, since).
		Order("last_submission_attempt desc").
		Find(&submissions).Error
	if err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to find recent submissions for sessionID '%s': %v", sessionID, err)
		return nil, fmt.Errorf("failed to find recent submissions for session %s: %w", sessionID, err)
	}
	return submissions, nil
}

// IncrementAttempts bumps the attempt counter and timestamp on the given
// submission row so the next guard check sees an up-to-date window.
func (r *submissionRepository) IncrementAttempts(id string, now time.Time) error {
	err := r.db.Model(&models.FormSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"submission_attempts":     gorm.Expr("submission_attempts + 1"),
			"last_submission_attempt": now,
		}).Error
	if err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to increment attempts for submission ID %s: %v", id, err)
		return fmt.Errorf("failed to increment attempts for submission %s: %w", id, err)
	}
	log.Printf("INFO: [SubmissionRepository] Incremented submission attempts for ID %s.", id)
	return nil
}

// CountRecentByIP counts submissions from an IP address whose last attempt
// falls after `since`.
func (r *submissionRepository) CountRecentByIP(ipAddress string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.FormSubmission{}).
		Where("ip_address = ? AND last_submission_attempt >= ?", ipAddress, since).
		Count(&count).Error
	if err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to count recent submissions for IP '%s': %v", ipAddress, err)
		return 0, fmt.Errorf("failed to count recent submissions for IP: %w", err)
	}
	return count, nil
}

// CountSubmissions counts stored submissions, optionally filtered by formID.
func (r *submissionRepository) CountSubmissions(formID string) (int64, error) {
	query := r.db.Model(&models.FormSubmission{})
	if formID != "" {
		query = query.Where("form_id = ?", formID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to count submissions for formID '%s': %v", formID, err)
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// SubmissionsByDate groups submissions into per-day counts, ascending by date.
func (r *submissionRepository) SubmissionsByDate(formID string) ([]models.DateCount, error) {
	query := r.db.Model(&models.FormSubmission{}).
		Select("DATE(submitted_at) AS date, COUNT(*) AS count").
		Group("DATE(submitted_at)").
		Order("date asc")
	if formID != "" {
		query = query.Where("form_id = ?", formID)
	}
	var counts []models.DateCount
	if err := query.Scan(&counts).Error; err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to aggregate submissions by date (formID '%s'): %v", formID, err)
		return nil, fmt.Errorf("failed to aggregate submissions by date: %w", err)
	}
	return counts, nil
}

// AverageQuestionCount averages the question-set size across submissions.
// Questions are stored as a JSON array column, so SQLite's json_array_length
// does the counting.
func (r *submissionRepository) AverageQuestionCount(formID string) (float64, error) {
	query := r.db.Model(&models.FormSubmission{}).
		Select("COALESCE(AVG(json_array_length(questions)), 0)")
	if formID != "" {
		query = query.Where("form_id = ?", formID)
	}
	var average float64
	if err := query.Scan(&average).Error; err != nil {
		log.Printf("ERROR: [SubmissionRepository] Failed to compute average question count (formID '%s'): %v", formID, err)
		return 0, fmt.Errorf("failed to compute average question count: %w", err)
	}
	return average, nil
}
