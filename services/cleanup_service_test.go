package services

import (
	"testing"
	"time"

	"easyform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDraftService is a mock type for the DraftService interface.
type MockDraftService struct {
	mock.Mock
}

func (m *MockDraftService) SaveDraft(req *models.SaveDraftRequest, metadata *models.RequestMetadata) (*models.DraftSaveResult, error) {
	args := m.Called(req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftSaveResult), args.Error(1)
}

func (m *MockDraftService) GetDraft(sessionID string) (*models.DraftView, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftView), args.Error(1)
}

func (m *MockDraftService) DeleteDraft(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockDraftService) CleanupExpiredDrafts() *models.CleanupResult {
	args := m.Called()
	return args.Get(0).(*models.CleanupResult)
}

func (m *MockDraftService) GetDraftStatistics(formID string) (*models.DraftStatistics, error) {
	args := m.Called(formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftStatistics), args.Error(1)
}

func TestCleanupScheduler(t *testing.T) {
	t.Run("Sweeps on the tick and stops cleanly", func(t *testing.T) {
		draftService := new(MockDraftService)
		swept := make(chan struct{}, 10)
		draftService.On("CleanupExpiredDrafts").Run(func(mock.Arguments) {
			swept <- struct{}{}
		}).Return(&models.CleanupResult{DeletedCount: 1})

		scheduler := NewCleanupScheduler(draftService, 10*time.Millisecond)
		scheduler.Start()

		select {
		case <-swept:
		case <-time.After(time.Second):
			t.Fatal("scheduler never swept")
		}

		scheduler.Stop()
		draftService.AssertCalled(t, "CleanupExpiredDrafts")
	})

	t.Run("Non-positive interval falls back to a sane default", func(t *testing.T) {
		scheduler := NewCleanupScheduler(new(MockDraftService), 0)
		assert.Equal(t, time.Hour, scheduler.interval)
	})
}
