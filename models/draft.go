package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DraftSubmission represents an in-progress, unsubmitted answer set keyed by
// session. At most one live draft exists per session id; saves replace the
// existing row. Drafts past ExpiresAt are invisible to reads regardless of
// whether the sweep has physically removed them yet.
type DraftSubmission struct {
	ID           string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SessionID    string            `json:"sessionId" gorm:"uniqueIndex;not null"`
	FormID       string            `json:"formId,omitempty" gorm:"index"`
	Answers      datatypes.JSONMap `json:"answers" gorm:"not null"`
	CurrentStep  int               `json:"currentStep" gorm:"not null;default:0"`
	LastModified time.Time         `json:"lastModified" gorm:"index;not null"`
	ExpiresAt    time.Time         `json:"expiresAt" gorm:"index;not null"`
	UserAgent    string            `json:"userAgent,omitempty"`
	IPAddress    string            `json:"ipAddress,omitempty"`
	// Derived bookkeeping, recomputed on every save.
	AnswerCount          int       `json:"answerCount" gorm:"default:0"`
	LastQuestionAnswered string    `json:"lastQuestionAnswered,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for the DraftSubmission model.
func (DraftSubmission) TableName() string {
	return "draft_submissions"
}

// BeforeCreate assigns an opaque identifier for new draft rows.
func (d *DraftSubmission) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DraftExpiryDays is how long a saved draft remains resumable.
const DraftExpiryDays = 7
