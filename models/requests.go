package models

// FormSubmissionRequest is the inbound payload for the submit-form use case.
// Answers stay loosely typed here; the validation layer checks them against
// the question set before anything is persisted.
type FormSubmissionRequest struct {
	FormID           string                 `json:"formId,omitempty"`
	Questions        []Question             `json:"questions"`
	Answers          map[string]interface{} `json:"answers"`
	UserEmail        string                 `json:"userEmail,omitempty"`
	SessionID        string                 `json:"sessionId,omitempty"`
	ConvertFromDraft bool                   `json:"convertFromDraft,omitempty"`
}

// SaveDraftRequest is the inbound payload for saving or replacing a draft.
type SaveDraftRequest struct {
	SessionID   string                 `json:"sessionId"`
	FormID      string                 `json:"formId,omitempty"`
	Answers     map[string]interface{} `json:"answers"`
	CurrentStep int                    `json:"currentStep"`
}

// RequestMetadata carries transport-level context attached to a submission.
type RequestMetadata struct {
	UserAgent string
	IPAddress string
	Referer   string
	Origin    string
}
