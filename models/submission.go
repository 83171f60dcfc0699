package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType defines the type of a questionnaire question.
type QuestionType string

const (
	QuestionTypeText           QuestionType = "text"            // Free text input
	QuestionTypeEmail          QuestionType = "email"           // Email address input
	QuestionTypeMultipleChoice QuestionType = "multiple-choice" // Pick one of the provided options
)

// IsValid reports whether t is one of the known question types.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeEmail, QuestionTypeMultipleChoice:
		return true
	}
	return false
}

// Question defines a single question of a submitted questionnaire. Questions
// are denormalized into the submission that carries them and are immutable
// once submitted.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	Options     []string     `json:"options,omitempty"` // Required for multiple-choice questions
	HelperText  string       `json:"helperText,omitempty"`
}

// QuestionList stores an ordered question set as a JSON column.
type QuestionList []Question

// Value implements driver.Valuer so GORM can persist the question set.
func (q QuestionList) Value() (driver.Value, error) {
	return json.Marshal(q)
}

// Scan implements sql.Scanner for reading the question set back.
func (q *QuestionList) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for QuestionList", value)
	}
	return json.Unmarshal(data, q)
}

// FormSubmission represents a finalized, validated form response.
// Answers and metadata are kept schema-less at the storage boundary; the
// validation layer is where answer values are checked against the question set.
type FormSubmission struct {
	ID                    string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FormID                string            `json:"formId,omitempty" gorm:"index"`
	Questions             QuestionList      `json:"questions" gorm:"type:text;not null"`
	Answers               datatypes.JSONMap `json:"answers" gorm:"not null"`
	UserEmail             string            `json:"userEmail,omitempty" gorm:"index"`
	UserAgent             string            `json:"userAgent,omitempty"`
	IPAddress             string            `json:"ipAddress,omitempty" gorm:"index"`
	SubmittedAt           time.Time         `json:"submittedAt" gorm:"index"`
	SessionID             string            `json:"sessionId,omitempty" gorm:"index"`
	IsDraft               bool              `json:"isDraft" gorm:"default:false"`
	DraftSessionID        string            `json:"draftSessionId,omitempty"` // Set when converted from a draft
	SubmissionAttempts    int               `json:"submissionAttempts" gorm:"default:1"`
	LastSubmissionAttempt time.Time         `json:"lastSubmissionAttempt" gorm:"index"`
	Metadata              datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the FormSubmission model.
func (FormSubmission) TableName() string {
	return "form_submissions"
}

// BeforeCreate assigns an opaque identifier so result payloads never expose
// sequential row ids.
func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
