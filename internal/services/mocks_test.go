package services_test

import (
	"context"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockLeadStore is a mock implementation of services.LeadStore
type MockLeadStore struct {
	mock.Mock
}

func (m *MockLeadStore) Create(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// MockCaptchaVerifier is a mock implementation of services.CaptchaVerifier
type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockLeadNotifier is a mock implementation of services.LeadNotifier
type MockLeadNotifier struct {
	mock.Mock
}

func (m *MockLeadNotifier) Dispatch(ctx context.Context, lead *models.Lead) {
	m.Called(ctx, lead)
}

// MockDownloadLinkIssuer is a mock implementation of services.DownloadLinkIssuer
type MockDownloadLinkIssuer struct {
	mock.Mock
}

func (m *MockDownloadLinkIssuer) IssueDownloadURL(lead *models.Lead) (string, error) {
	args := m.Called(lead)
	return args.String(0), args.Error(1)
}
