package mocks

import (
	"context"

	"github.com/you/uploaddoc/domain"
)

// MockProfileAPI implements domain.ProfileAPI for testing
type MockProfileAPI struct {
	UpdateProfileFunc func(ctx context.Context, req domain.UpdateProfileRequest, token string) (*domain.User, error)
	UserProfileFunc   func(ctx context.Context, userID, token string) (*domain.User, error)
}

// NewMockProfileAPI creates a new MockProfileAPI
func NewMockProfileAPI() *MockProfileAPI {
	return &MockProfileAPI{}
}

// UpdateProfile performs a mock profile update
func (m *MockProfileAPI) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, token string) (*domain.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, req, token)
	}
	// Default behavior: unauthorized
	return nil, &domain.APIError{StatusCode: 401, Message: "Unauthorized"}
}

// UserProfile performs a mock profile fetch
func (m *MockProfileAPI) UserProfile(ctx context.Context, userID, token string) (*domain.User, error) {
	if m.UserProfileFunc != nil {
		return m.UserProfileFunc(ctx, userID, token)
	}
	// Default behavior: not found
	return nil, &domain.APIError{StatusCode: 404, Message: "User not found"}
}
