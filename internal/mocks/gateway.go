package mocks

import (
	"context"
	"time"

	"github.com/segyhp/invoice-followups/internal/mailer"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Send(ctx context.Context, msg *mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseLock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}
