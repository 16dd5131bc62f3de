package mocks

import (
	"context"

	"github.com/you/uploaddoc/domain"
)

// MockAuthAPI implements domain.AuthAPI for testing
type MockAuthAPI struct {
	LoginFunc              func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error)
	RegisterFunc           func(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error)
	VerifyEmailFunc        func(ctx context.Context, req domain.VerifyEmailRequest) (*domain.Credentials, error)
	ResendVerificationFunc func(ctx context.Context, email string) (*domain.ResendAck, error)
	CheckStatusFunc        func(ctx context.Context, token string) (*domain.Credentials, error)
	ForgotPasswordFunc     func(ctx context.Context, email string) (*domain.PasswordResetAck, error)
	ResetPasswordFunc      func(ctx context.Context, email, otp, newPassword string) (*domain.PasswordResetAck, error)

	// Call counters for asserting an endpoint was (not) hit
	LoginCalls    int
	RegisterCalls int
	StatusCalls   int
}

// NewMockAuthAPI creates a new MockAuthAPI with default behaviors
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{}
}

// Login performs a mock login
func (m *MockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
	m.LoginCalls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	// Default behavior: rejected
	return nil, &domain.APIError{StatusCode: 401, Message: "Invalid credentials"}
}

// Register performs a mock registration
func (m *MockAuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error) {
	m.RegisterCalls++
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	// Default behavior: acknowledged
	return &domain.RegisterAck{Message: "Check your email", Email: req.Email, CanResend: true}, nil
}

// VerifyEmail performs a mock email verification
func (m *MockAuthAPI) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) (*domain.Credentials, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, req)
	}
	// Default behavior: wrong code
	return nil, &domain.APIError{StatusCode: 400, Message: "Invalid verification code"}
}

// ResendVerification performs a mock resend
func (m *MockAuthAPI) ResendVerification(ctx context.Context, email string) (*domain.ResendAck, error) {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	// Default behavior: sent
	return &domain.ResendAck{Message: "Verification code sent", CanResend: false}, nil
}

// CheckStatus performs a mock status check
func (m *MockAuthAPI) CheckStatus(ctx context.Context, token string) (*domain.Credentials, error) {
	m.StatusCalls++
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, token)
	}
	// Default behavior: token rejected
	return nil, &domain.APIError{StatusCode: 401, Message: "Invalid or expired token"}
}

// ForgotPassword performs a mock forgot-password request
func (m *MockAuthAPI) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetAck, error) {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	// Default behavior: acknowledged
	return &domain.PasswordResetAck{Success: true, Message: "Reset code sent"}, nil
}

// ResetPassword performs a mock password reset
func (m *MockAuthAPI) ResetPassword(ctx context.Context, email, otp, newPassword string) (*domain.PasswordResetAck, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, otp, newPassword)
	}
	// Default behavior: acknowledged
	return &domain.PasswordResetAck{Success: true, Message: "Password updated"}, nil
}
