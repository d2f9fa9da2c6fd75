package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fleetrent-backend/internal/domain"
)

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil && n.ID == "" {
		n.ID = "note-1"
	}
	return args.Error(0)
}
func (m *MockNotificationRepo) ExistsByDedupeKey(ctx context.Context, userID, key string, since time.Time) (bool, error) {
	args := m.Called(ctx, userID, key, since)
	return args.Bool(0), args.Error(1)
}
func (m *MockNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}
