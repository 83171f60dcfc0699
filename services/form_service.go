package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"easyform/models"
	"easyform/repository"
	"easyform/utils"

	"gorm.io/datatypes"
)

// Submission guard thresholds. The guard consults prior submissions sharing
// a session or IP within the trailing protection window.
const (
	protectionWindow   = 5 * time.Minute  // Trailing window for duplicate/burst detection
	resubmitCooldown   = 30 * time.Second // Minimum gap between attempts from one session
	maxSessionAttempts = 3                // Attempts per session within the window
	maxIPSubmissions   = 10               // Submissions per IP within the window
)

// Fixed tags merged into every stored submission's metadata.
const (
	metadataVersion = "1.0.0"
	metadataSource  = "easyform-frontend"
)

// FormService defines the interface for the form submission use cases.
type FormService interface {
	SubmitForm(req *models.FormSubmissionRequest, metadata *models.RequestMetadata) (*models.SubmissionResult, error)
	GetFormSubmissions(formID, userEmail string, limit, offset int) ([]*models.FormSubmission, int64, error)
	GetFormSubmissionByID(id string) (*models.FormSubmission, error)
	GetFormStatistics(formID string) (*models.FormStatistics, error)
}

// formService implements the FormService interface.
type formService struct {
	submissionRepo repository.SubmissionRepository
	draftRepo      repository.DraftRepository
	validation     ValidationService
}

// NewFormService creates a new instance of FormService.
func NewFormService(submissionRepo repository.SubmissionRepository, draftRepo repository.DraftRepository, validation ValidationService) FormService {
	return &formService{
		submissionRepo: submissionRepo,
		draftRepo:      draftRepo,
		validation:     validation,
	}
}

// SubmitForm executes the full submit use case: validate, guard, sanitize,
// persist, then best-effort draft cleanup when converting. Validation and
// persistence failures come back as an unsuccessful result; guard rejections
// surface as a rate-limit error for the transport layer.
func (s *formService) SubmitForm(req *models.FormSubmissionRequest, metadata *models.RequestMetadata) (*models.SubmissionResult, error) {
	if err := s.validation.ValidateFormSubmission(req); err != nil {
		log.Printf("INFO: [FormService] Submission rejected by validation (formID '%s'): %v", req.FormID, err)
		return &models.SubmissionResult{
			Success: false,
			Message: "Form submission failed",
			Errors:  []string{err.Error()},
		}, nil
	}

	if metadata == nil {
		metadata = &models.RequestMetadata{}
	}

	// Sessionless submissions skip the guard entirely; there is no
	// correlation key to count attempts against.
	if req.SessionID != "" {
		if err := s.checkSubmissionProtection(req.SessionID, metadata.IPAddress); err != nil {
			if httpErr, ok := utils.AsHTTPError(err); ok {
				log.Printf("WARN: [FormService] Submission guard rejected sessionID '%s': %s", req.SessionID, httpErr.Message)
				return nil, err
			}
			log.Printf("ERROR: [FormService] Submission guard failed for sessionID '%s': %v", req.SessionID, err)
			return &models.SubmissionResult{
				Success: false,
				Message: "Form submission failed",
				Errors:  []string{"An unexpected error occurred"},
			}, nil
		}
	}

	sanitizedQuestions := s.validation.SanitizeQuestions(req.Questions)
	sanitizedAnswers := s.validation.SanitizeAnswers(req.Answers)

	now := time.Now()
	submission := &models.FormSubmission{
		FormID:                req.FormID,
		Questions:             sanitizedQuestions,
		Answers:               datatypes.JSONMap(sanitizedAnswers),
		UserEmail:             req.UserEmail,
		UserAgent:             metadata.UserAgent,
		IPAddress:             metadata.IPAddress,
		SubmittedAt:           now,
		SessionID:             req.SessionID,
		IsDraft:               false,
		SubmissionAttempts:    1,
		LastSubmissionAttempt: now,
		Metadata:              buildSubmissionMetadata(metadata, req.ConvertFromDraft),
	}
	if req.ConvertFromDraft {
		submission.DraftSessionID = req.SessionID
	}

	if err := s.submissionRepo.Create(submission); err != nil {
		log.Printf("ERROR: [FormService] Failed to persist submission (formID '%s'): %v", req.FormID, err)
		return &models.SubmissionResult{
			Success: false,
			Message: "Form submission failed",
			Errors:  []string{"An unexpected error occurred"},
		}, nil
	}

	if req.ConvertFromDraft && req.SessionID != "" {
		s.cleanupConvertedDraft(req.SessionID)
	}

	log.Printf("INFO: [FormService] Submission %s accepted (formID '%s', sessionID '%s').", submission.ID, req.FormID, req.SessionID)
	return &models.SubmissionResult{
		Success:      true,
		Message:      "Form submitted successfully",
		SubmissionID: submission.ID,
	}, nil
}

// checkSubmissionProtection applies the session cooldown and burst limits,
// then the independent IP burst limit. When the session is allowed through
// with prior attempts in the window, the latest record's attempt counter is
// bumped so the next check sees the up-to-date count.
//
// The read-then-increment is deliberately not transactional: concurrent
// submissions from one session can race past the burst check, at the cost of
// a handful of extra accepted submissions.
func (s *formService) checkSubmissionProtection(sessionID, ipAddress string) error {
	now := time.Now()
	windowStart := now.Add(-protectionWindow)

	recent, err := s.submissionRepo.FindRecentBySession(sessionID, windowStart)
	if err != nil {
		return fmt.Errorf("failed to check submission protection for session %s: %w", sessionID, err)
	}

	if len(recent) > 0 {
		last := recent[0]
		if now.Sub(last.LastSubmissionAttempt) < resubmitCooldown {
			return utils.NewTooManyRequests("Please wait before submitting again")
		}
		if len(recent) >= maxSessionAttempts {
			return utils.NewTooManyRequests("Too many submission attempts. Please wait 5 minutes before trying again")
		}
		if err := s.submissionRepo.IncrementAttempts(last.ID, now); err != nil {
			return fmt.Errorf("failed to record submission attempt for session %s: %w", sessionID, err)
		}
	}

	if ipAddress != "" {
		count, err := s.submissionRepo.CountRecentByIP(ipAddress, windowStart)
		if err != nil {
			return fmt.Errorf("failed to check IP submission count: %w", err)
		}
		if count >= maxIPSubmissions {
			return utils.NewTooManyRequests("Too many submissions from this IP address")
		}
	}

	return nil
}

// cleanupConvertedDraft removes the draft a successful submission was
// converted from. Non-critical: the submission already succeeded, so a
// failure here is logged and swallowed.
func (s *formService) cleanupConvertedDraft(sessionID string) {
	if _, err := s.draftRepo.DeleteBySession(sessionID); err != nil {
		log.Printf("ERROR: [FormService] Failed to cleanup converted draft for sessionID '%s': %v", sessionID, err)
		return
	}
	log.Printf("INFO: [FormService] Cleaned up converted draft for sessionID '%s'.", sessionID)
}

// GetFormSubmissions retrieves stored submissions newest-first with optional
// filters, plus the total matching count.
func (s *formService) GetFormSubmissions(formID, userEmail string, limit, offset int) ([]*models.FormSubmission, int64, error) {
	submissions, total, err := s.submissionRepo.List(formID, userEmail, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch form submissions: %w", err)
	}
	return submissions, total, nil
}

// GetFormSubmissionByID retrieves a single submission. Returns (nil, nil)
// when absent; the handler maps that to 404.
func (s *formService) GetFormSubmissionByID(id string) (*models.FormSubmission, error) {
	submission, err := s.submissionRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form submission: %w", err)
	}
	return submission, nil
}

// GetFormStatistics aggregates submission counts, per-day volumes and the
// average questionnaire size, optionally scoped to one form.
func (s *formService) GetFormStatistics(formID string) (*models.FormStatistics, error) {
	total, err := s.submissionRepo.CountSubmissions(formID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form statistics: %w", err)
	}

	byDate, err := s.submissionRepo.SubmissionsByDate(formID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form statistics: %w", err)
	}
	if byDate == nil {
		byDate = []models.DateCount{}
	}

	avgQuestions, err := s.submissionRepo.AverageQuestionCount(formID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch form statistics: %w", err)
	}

	return &models.FormStatistics{
		TotalSubmissions:              total,
		SubmissionsByDate:             byDate,
		AverageQuestionsPerSubmission: math.Round(avgQuestions*100) / 100,
	}, nil
}

// buildSubmissionMetadata merges request context with the fixed version and
// source tags every stored submission carries.
func buildSubmissionMetadata(metadata *models.RequestMetadata, convertedFromDraft bool) datatypes.JSONMap {
	merged := datatypes.JSONMap{
		"version":            metadataVersion,
		"source":             metadataSource,
		"convertedFromDraft": convertedFromDraft,
	}
	if metadata.UserAgent != "" {
		merged["userAgent"] = metadata.UserAgent
	}
	if metadata.IPAddress != "" {
		merged["ipAddress"] = metadata.IPAddress
	}
	if metadata.Referer != "" {
		merged["referer"] = metadata.Referer
	}
	if metadata.Origin != "" {
		merged["origin"] = metadata.Origin
	}
	return merged
}
