package models

import "time"

// SubmissionResult is the payload returned by the submit-form use case.
// Field names are part of the contract consumed by the frontend.
type SubmissionResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	SubmissionID string   `json:"submissionId,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// DraftSaveResult is the payload returned when saving a draft.
type DraftSaveResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	DraftID      string   `json:"draftId,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// DraftView is the read model returned when fetching a draft.
type DraftView struct {
	SessionID    string                 `json:"sessionId"`
	FormID       string                 `json:"formId,omitempty"`
	Answers      map[string]interface{} `json:"answers"`
	CurrentStep  int                    `json:"currentStep"`
	LastModified string                 `json:"lastModified"`
	ExpiresAt    string                 `json:"expiresAt"`
}

// DraftStatistics aggregates over non-expired drafts. A zeroed value (with
// nil timestamps) is returned when no drafts match, never an error.
type DraftStatistics struct {
	TotalDrafts    int64      `json:"totalDrafts"`
	AverageStep    float64    `json:"averageStep"`
	AverageAnswers float64    `json:"averageAnswers"`
	OldestDraft    *time.Time `json:"oldestDraft"`
	NewestDraft    *time.Time `json:"newestDraft"`
}

// CleanupResult reports how many expired drafts a sweep removed.
type CleanupResult struct {
	DeletedCount int64  `json:"deletedCount"`
	Message      string `json:"message"`
}

// DateCount is a per-day submission count used by form statistics.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// FormStatistics aggregates over stored submissions.
type FormStatistics struct {
	TotalSubmissions              int64       `json:"totalSubmissions"`
	SubmissionsByDate             []DateCount `json:"submissionsByDate"`
	AverageQuestionsPerSubmission float64     `json:"averageQuestionsPerSubmission"`
}
