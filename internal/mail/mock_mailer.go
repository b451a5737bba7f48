package mail

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to string, resetLink string) error {
	args := m.Called(ctx, to, resetLink)
	return args.Error(0)
}

func (m *MockMailer) SendLeaderActivation(ctx context.Context, to string, msg ActivationMail) error {
	args := m.Called(ctx, to, msg)
	return args.Error(0)
}
