package services

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"easyform/models"
	"easyform/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

// MockDraftRepository is a mock type for the DraftRepository interface.
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Upsert(draft *models.DraftSubmission) (*models.DraftSubmission, error) {
	args := m.Called(draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftSubmission), args.Error(1)
}

func (m *MockDraftRepository) GetActiveBySession(sessionID string, now time.Time) (*models.DraftSubmission, error) {
	args := m.Called(sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftSubmission), args.Error(1)
}

func (m *MockDraftRepository) DeleteBySession(sessionID string) (int64, error) {
	args := m.Called(sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDraftRepository) DeleteExpired(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDraftRepository) Stats(formID string, now time.Time) (*models.DraftStatistics, error) {
	args := m.Called(formID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftStatistics), args.Error(1)
}

func TestDraftService_SaveDraft(t *testing.T) {
	t.Run("Short session id fails with bad request", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		result, err := service.SaveDraft(&models.SaveDraftRequest{SessionID: "short"}, nil)

		assert.Nil(t, result)
		httpErr, ok := utils.AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "Invalid session ID format", httpErr.Message)
		draftRepo.AssertNotCalled(t, "Upsert", mock.Anything)
	})

	t.Run("Negative current step fails with bad request", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		result, err := service.SaveDraft(&models.SaveDraftRequest{SessionID: "abcdefghij", CurrentStep: -1}, nil)

		assert.Nil(t, result)
		httpErr, ok := utils.AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		draftRepo.AssertNotCalled(t, "Upsert", mock.Anything)
	})

	t.Run("Save derives bookkeeping and sets expiry a week out", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		req := &models.SaveDraftRequest{
			SessionID:   "abcdefghij",
			FormID:      "form-1",
			CurrentStep: 2,
			Answers: map[string]interface{}{
				"q1": "x",
				"q2": "",
				"q3": nil,
			},
		}

		draftRepo.On("Upsert", mock.MatchedBy(func(d *models.DraftSubmission) bool {
			weekOut := time.Now().AddDate(0, 0, 7)
			return d.SessionID == "abcdefghij" &&
				d.CurrentStep == 2 &&
				d.AnswerCount == 3 &&
				d.LastQuestionAnswered == "q1" &&
				d.ExpiresAt.Sub(weekOut) < time.Minute &&
				weekOut.Sub(d.ExpiresAt) < time.Minute
		})).Return(&models.DraftSubmission{
			ID:           "draft-1",
			SessionID:    "abcdefghij",
			CurrentStep:  2,
			AnswerCount:  3,
			LastModified: time.Now(),
		}, nil).Once()

		result, err := service.SaveDraft(req, &models.RequestMetadata{UserAgent: "ua", IPAddress: "1.2.3.4"})

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Draft saved successfully", result.Message)
		assert.Equal(t, "draft-1", result.DraftID)
		assert.NotEmpty(t, result.LastModified)
		draftRepo.AssertExpectations(t)
	})

	t.Run("Store failure returns an unsuccessful result", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("Upsert", mock.AnythingOfType("*models.DraftSubmission")).Return(nil, errors.New("store offline")).Once()

		result, err := service.SaveDraft(&models.SaveDraftRequest{SessionID: "abcdefghij"}, nil)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Failed to save draft", result.Message)
		draftRepo.AssertExpectations(t)
	})
}

func TestDraftService_GetDraft(t *testing.T) {
	t.Run("Short session id fails with bad request", func(t *testing.T) {
		service := NewDraftService(new(MockDraftRepository))

		draft, err := service.GetDraft("short")

		assert.Nil(t, draft)
		httpErr, ok := utils.AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	})

	t.Run("Round-trip returns stored answers and step", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		stored := &models.DraftSubmission{
			ID:           "draft-1",
			SessionID:    "abcdefghij",
			FormID:       "form-1",
			Answers:      datatypes.JSONMap{"q1": "x"},
			CurrentStep:  2,
			LastModified: time.Now(),
			ExpiresAt:    time.Now().AddDate(0, 0, 7),
		}
		draftRepo.On("GetActiveBySession", "abcdefghij", mock.AnythingOfType("time.Time")).Return(stored, nil).Once()

		draft, err := service.GetDraft("abcdefghij")

		assert.NoError(t, err)
		assert.NotNil(t, draft)
		assert.Equal(t, "abcdefghij", draft.SessionID)
		assert.Equal(t, 2, draft.CurrentStep)
		assert.Equal(t, map[string]interface{}{"q1": "x"}, draft.Answers)
		draftRepo.AssertExpectations(t)
	})

	t.Run("Absent or expired draft returns nil without error", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		// The repository already filters expired rows; service sees nil.
		draftRepo.On("GetActiveBySession", "abcdefghij", mock.AnythingOfType("time.Time")).Return(nil, nil).Once()

		draft, err := service.GetDraft("abcdefghij")

		assert.NoError(t, err)
		assert.Nil(t, draft)
		draftRepo.AssertExpectations(t)
	})
}

func TestDraftService_DeleteDraft(t *testing.T) {
	t.Run("Deleting an existing draft succeeds", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("DeleteBySession", "abcdefghij").Return(int64(1), nil).Once()

		err := service.DeleteDraft("abcdefghij")

		assert.NoError(t, err)
		draftRepo.AssertExpectations(t)
	})

	t.Run("Deleting a missing draft fails with not found", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("DeleteBySession", "abcdefghij").Return(int64(0), nil).Once()

		err := service.DeleteDraft("abcdefghij")

		httpErr, ok := utils.AsHTTPError(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
		assert.Equal(t, "Draft not found", httpErr.Message)
		draftRepo.AssertExpectations(t)
	})
}

func TestDraftService_CleanupExpiredDrafts(t *testing.T) {
	t.Run("Second consecutive sweep reports zero deletions", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("DeleteExpired", mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()
		draftRepo.On("DeleteExpired", mock.AnythingOfType("time.Time")).Return(int64(0), nil).Once()

		first := service.CleanupExpiredDrafts()
		second := service.CleanupExpiredDrafts()

		assert.Equal(t, int64(3), first.DeletedCount)
		assert.Equal(t, int64(0), second.DeletedCount)
		assert.Equal(t, "Successfully cleaned up 0 expired drafts", second.Message)
		draftRepo.AssertExpectations(t)
	})

	t.Run("Store failure reports zero deletions, never an error", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("DeleteExpired", mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("store offline")).Once()

		result := service.CleanupExpiredDrafts()

		assert.Equal(t, int64(0), result.DeletedCount)
		assert.Equal(t, "Failed to cleanup expired drafts", result.Message)
		draftRepo.AssertExpectations(t)
	})
}

func TestDraftService_GetDraftStatistics(t *testing.T) {
	t.Run("Zero matching drafts yields a zeroed record", func(t *testing.T) {
		draftRepo := new(MockDraftRepository)
		service := NewDraftService(draftRepo)

		draftRepo.On("Stats", "form-1", mock.AnythingOfType("time.Time")).Return(&models.DraftStatistics{}, nil).Once()

		stats, err := service.GetDraftStatistics("form-1")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalDrafts)
		assert.Equal(t, 0.0, stats.AverageStep)
		assert.Equal(t, 0.0, stats.AverageAnswers)
		assert.Nil(t, stats.OldestDraft)
		assert.Nil(t, stats.NewestDraft)
		draftRepo.AssertExpectations(t)
	})
}

func TestLastAnsweredQuestion(t *testing.T) {
	t.Run("Skips empty and nil values", func(t *testing.T) {
		answers := map[string]interface{}{
			"q1": "x",
			"q2": "y",
			"q3": "",
			"q4": nil,
		}
		assert.Equal(t, "q2", lastAnsweredQuestion(answers))
	})

	t.Run("Empty map yields empty key", func(t *testing.T) {
		assert.Equal(t, "", lastAnsweredQuestion(map[string]interface{}{}))
	})
}
