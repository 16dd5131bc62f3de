package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/uploaddoc/domain"
	"github.com/you/uploaddoc/internal/mocks"
)

func validUser() *domain.User {
	return &domain.User{
		ID:         "u1",
		Name:       "Ada",
		Email:      "ada@x.com",
		IsVerified: true,
	}
}

func validCredentials() *domain.Credentials {
	return &domain.Credentials{Token: "tok_1", User: validUser()}
}

// assertInvariant checks that an authenticated session always carries
// both a user and a token.
func assertInvariant(t *testing.T, state domain.SessionState) {
	t.Helper()
	if state.Authenticated {
		require.NotNil(t, state.User, "authenticated session without user")
		require.NotEmpty(t, state.Token, "authenticated session without token")
	}
}

func TestManager_Login_WriteThrough(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		require.Equal(t, "ada@x.com", req.Email)
		require.Equal(t, "secret1", req.Password)
		return validCredentials(), nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))

	state := mgr.State()
	assertInvariant(t, state)
	assert.True(t, state.Authenticated)
	assert.False(t, state.Loading)
	assert.Empty(t, state.LastError)

	// Read-after-write: storage holds exactly what memory holds.
	storedToken, ok := store.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, state.Token, storedToken)
	storedUser, ok := store.User(ctx)
	require.True(t, ok)
	assert.Equal(t, state.User, storedUser)
}

func TestManager_Login_ErrorPassthrough(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return nil, &domain.APIError{
			StatusCode:        403,
			Message:           "Please verify your email",
			NeedsVerification: true,
		}
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	err := mgr.Login(ctx, "ada@x.com", "secret1")
	require.Error(t, err)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.NeedsVerification)
	assert.Equal(t, "Please verify your email", apiErr.Message)

	state := mgr.State()
	assertInvariant(t, state)
	assert.False(t, state.Authenticated)
	assert.Equal(t, "Please verify your email", state.LastError)
	assert.False(t, store.HasAuthData(ctx))
}

func TestManager_Login_StorageWriteFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mocks.MockSessionStore)
	}{
		{
			name: "token write fails",
			setup: func(store *mocks.MockSessionStore) {
				store.SaveTokenFunc = func(ctx context.Context, token string) error {
					return &domain.StorageWriteError{Key: "@uploaddoc_token", Err: errors.New("disk full")}
				}
			},
		},
		{
			name: "user write fails after token write",
			setup: func(store *mocks.MockSessionStore) {
				store.SaveUserFunc = func(ctx context.Context, user *domain.User) error {
					return &domain.StorageWriteError{Key: "@uploaddoc_user", Err: errors.New("disk full")}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			api := mocks.NewMockAuthAPI()
			api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
				return validCredentials(), nil
			}
			store := mocks.NewMockSessionStore()
			tt.setup(store)
			mgr := NewManager(api, store)

			err := mgr.Login(ctx, "ada@x.com", "secret1")
			require.Error(t, err)

			var writeErr *domain.StorageWriteError
			require.ErrorAs(t, err, &writeErr)

			// The network call succeeded, but the session would not
			// survive a restart, so it must not appear established.
			state := mgr.State()
			assertInvariant(t, state)
			assert.False(t, state.Authenticated)
			assert.False(t, store.HasAuthData(ctx), "no half-written auth data may remain")
		})
	}
}

func TestManager_Register_NoSessionChange(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.RegisterFunc = func(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error) {
		require.Equal(t, domain.RegisterRequest{
			Name:         "Ada",
			Email:        "ada@x.com",
			MatricNumber: "M123",
			Password:     "secret1",
		}, req)
		return &domain.RegisterAck{Message: "Check your email", Email: "ada@x.com", CanResend: true}, nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	ack, err := mgr.Register(ctx, domain.RegisterRequest{
		Name:         "Ada",
		Email:        "ada@x.com",
		MatricNumber: "M123",
		Password:     "secret1",
	})
	require.NoError(t, err)

	// The acknowledgement comes back verbatim.
	assert.Equal(t, &domain.RegisterAck{Message: "Check your email", Email: "ada@x.com", CanResend: true}, ack)

	// No session, no storage writes.
	state := mgr.State()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
	assert.False(t, store.HasAuthData(ctx))
}

func TestManager_Register_Failure(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.RegisterFunc = func(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error) {
		return nil, &domain.APIError{StatusCode: 409, Message: "Email already registered"}
	}
	mgr := NewManager(api, mocks.NewMockSessionStore())

	_, err := mgr.Register(ctx, domain.RegisterRequest{Email: "ada@x.com"})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", mgr.State().LastError)
}

func TestManager_VerifyEmail_EstablishesSession(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.VerifyEmailFunc = func(ctx context.Context, req domain.VerifyEmailRequest) (*domain.Credentials, error) {
		require.Equal(t, "ada@x.com", req.Email)
		require.Equal(t, "123456", req.OTP)
		return validCredentials(), nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	require.NoError(t, mgr.VerifyEmail(ctx, "ada@x.com", "123456"))

	state := mgr.State()
	assertInvariant(t, state)
	assert.True(t, state.Authenticated)
	assert.True(t, store.HasAuthData(ctx))
}

func TestManager_VerifyEmail_NeedsRegistration(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.VerifyEmailFunc = func(ctx context.Context, req domain.VerifyEmailRequest) (*domain.Credentials, error) {
		return nil, &domain.APIError{
			StatusCode:        404,
			Message:           "No pending registration for this email",
			NeedsRegistration: true,
		}
	}
	mgr := NewManager(api, mocks.NewMockSessionStore())

	err := mgr.VerifyEmail(ctx, "ghost@x.com", "123456")
	require.Error(t, err)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.NeedsRegistration, "callers distinguish missing registration from a wrong code")
}

func TestManager_CheckAuthStatus_EmptyStorage(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	mgr.CheckAuthStatus(ctx)

	state := mgr.State()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
	assert.Empty(t, state.LastError, "bootstrap never surfaces errors")
	assert.Equal(t, 0, api.StatusCalls, "no stored token means no network call")
}

func TestManager_CheckAuthStatus_ValidToken(t *testing.T) {
	ctx := context.Background()
	staleUser := validUser()
	staleUser.Name = "Old Name"
	freshUser := validUser()
	freshUser.Name = "Fresh Name"

	api := mocks.NewMockAuthAPI()
	api.CheckStatusFunc = func(ctx context.Context, token string) (*domain.Credentials, error) {
		require.Equal(t, "tok_1", token)
		return &domain.Credentials{User: freshUser}, nil
	}
	store := mocks.NewMockSessionStore()
	store.Seed("tok_1", staleUser)
	mgr := NewManager(api, store)

	mgr.CheckAuthStatus(ctx)

	state := mgr.State()
	assertInvariant(t, state)
	assert.True(t, state.Authenticated)
	assert.Equal(t, "Fresh Name", state.User.Name, "server copy wins over the stored snapshot")
	assert.Equal(t, "tok_1", state.Token, "token unchanged when the backend did not rotate")

	storedUser, ok := store.User(ctx)
	require.True(t, ok)
	assert.Equal(t, "Fresh Name", storedUser.Name, "fresh user written through")
}

func TestManager_CheckAuthStatus_RejectedToken(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.CheckStatusFunc = func(ctx context.Context, token string) (*domain.Credentials, error) {
		return nil, &domain.APIError{StatusCode: 401, Message: "Invalid or expired token"}
	}
	store := mocks.NewMockSessionStore()
	store.Seed("tok_expired", validUser())
	mgr := NewManager(api, store)

	mgr.CheckAuthStatus(ctx)

	state := mgr.State()
	assert.False(t, state.Authenticated)
	assert.Empty(t, state.LastError, "silent fallback to logged out")
	assert.False(t, store.HasAuthData(ctx), "dead token must be purged")
}

func TestManager_CheckAuthStatus_NetworkFailureKeepsStorage(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.CheckStatusFunc = func(ctx context.Context, token string) (*domain.Credentials, error) {
		return nil, &domain.NetworkError{BaseURL: "http://backend", Err: errors.New("dial timeout")}
	}
	store := mocks.NewMockSessionStore()
	store.Seed("tok_1", validUser())
	mgr := NewManager(api, store)

	mgr.CheckAuthStatus(ctx)

	state := mgr.State()
	assert.False(t, state.Authenticated, "cannot claim a session that was not validated")
	// The token was not rejected, only unreachable; keep it so the next
	// launch can retry.
	assert.True(t, store.HasAuthData(ctx))
}

func TestManager_CheckAuthStatus_RotatedToken(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.CheckStatusFunc = func(ctx context.Context, token string) (*domain.Credentials, error) {
		return &domain.Credentials{Token: "tok_rotated", User: validUser()}, nil
	}
	store := mocks.NewMockSessionStore()
	store.Seed("tok_1", validUser())
	mgr := NewManager(api, store)

	mgr.CheckAuthStatus(ctx)

	state := mgr.State()
	assertInvariant(t, state)
	assert.Equal(t, "tok_rotated", state.Token)

	storedToken, ok := store.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok_rotated", storedToken, "rotated token persisted before adoption")
}

func TestManager_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	mgr := NewManager(mocks.NewMockAuthAPI(), store)

	// Already unauthenticated: logout succeeds and changes nothing.
	assert.True(t, mgr.Logout(ctx))
	first := mgr.State()
	assert.False(t, first.Authenticated)
	assert.False(t, store.HasAuthData(ctx))

	assert.True(t, mgr.Logout(ctx))
	assert.Equal(t, first, mgr.State())
}

func TestManager_Logout_StorageFailureStillLogsOut(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return validCredentials(), nil
	}
	store := mocks.NewMockSessionStore()
	store.ClearAuthDataFunc = func(ctx context.Context) error {
		return &domain.StorageWriteError{Key: "@uploaddoc_token", Err: errors.New("store down")}
	}
	mgr := NewManager(api, store)
	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))

	cleared := mgr.Logout(ctx)
	assert.False(t, cleared, "caller is told the clear did not fully land")

	state := mgr.State()
	assert.False(t, state.Authenticated, "logout never fails from the caller's perspective")
	assert.Empty(t, state.LastError)
}

func TestManager_SingleFlight_LogoutDiscardsStaleLogin(t *testing.T) {
	ctx := context.Background()

	loginEntered := make(chan struct{})
	release := make(chan struct{})

	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		close(loginEntered)
		<-release
		return validCredentials(), nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	var wg sync.WaitGroup
	var loginErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		loginErr = mgr.Login(ctx, "ada@x.com", "secret1")
	}()

	<-loginEntered
	// The user logs out while the login response is still in flight.
	mgr.Logout(ctx)
	close(release)
	wg.Wait()

	require.ErrorIs(t, loginErr, domain.ErrOperationStale)

	state := mgr.State()
	assert.False(t, state.Authenticated, "stale login must not resurrect the session")
	// The logout's storage clear wins: the superseded login never gets
	// to write its credentials.
	assert.False(t, store.HasAuthData(ctx))
}

func TestManager_SingleFlight_SupersededLoginKeepsWinner(t *testing.T) {
	ctx := context.Background()

	userA := &domain.User{ID: "uA", Name: "Ada", Email: "ada@x.com", IsVerified: true}
	userB := &domain.User{ID: "uB", Name: "Brin", Email: "brin@x.com", IsVerified: true}

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})

	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		if req.Email == "ada@x.com" {
			close(firstEntered)
			<-releaseFirst
			return &domain.Credentials{Token: "tok_A", User: userA}, nil
		}
		return &domain.Credentials{Token: "tok_B", User: userB}, nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = mgr.Login(ctx, "ada@x.com", "secret1")
	}()

	// A second login supersedes the first and commits while the first
	// response is still in flight.
	<-firstEntered
	require.NoError(t, mgr.Login(ctx, "brin@x.com", "secret2"))

	close(releaseFirst)
	wg.Wait()

	require.ErrorIs(t, firstErr, domain.ErrOperationStale)

	state := mgr.State()
	assertInvariant(t, state)
	require.True(t, state.Authenticated)
	assert.Equal(t, "tok_B", state.Token)
	assert.Equal(t, "uB", state.User.ID)

	// Storage must match memory: the late completion must not overwrite
	// the winning session's credentials.
	tok, ok := store.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "tok_B", tok)
	storedUser, ok := store.User(ctx)
	require.True(t, ok)
	assert.Equal(t, "uB", storedUser.ID)
}

func TestManager_SingleFlight_LogoutDiscardsStaleProfileUpdate(t *testing.T) {
	ctx := context.Background()

	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return validCredentials(), nil
	}

	hours := "9-17"
	updated := validUser()
	updated.OpeningHours = &hours

	updateEntered := make(chan struct{})
	release := make(chan struct{})
	profile := mocks.NewMockProfileAPI()
	profile.UpdateProfileFunc = func(ctx context.Context, req domain.UpdateProfileRequest, token string) (*domain.User, error) {
		close(updateEntered)
		<-release
		return updated, nil
	}

	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store, WithProfileAPI(profile))
	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))

	var wg sync.WaitGroup
	var updateErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, updateErr = mgr.UpdateProfile(ctx, domain.UpdateProfileRequest{OpeningHours: &hours})
	}()

	<-updateEntered
	mgr.Logout(ctx)
	close(release)
	wg.Wait()

	require.ErrorIs(t, updateErr, domain.ErrOperationStale)
	assert.False(t, mgr.State().Authenticated)
	// The stale update must not repopulate the cleared store.
	_, ok := store.User(ctx)
	assert.False(t, ok)
}

func TestManager_ClearError(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(mocks.NewMockAuthAPI(), mocks.NewMockSessionStore())

	_ = mgr.Login(ctx, "ada@x.com", "wrong")
	require.NotEmpty(t, mgr.State().LastError)

	mgr.ClearError()
	assert.Empty(t, mgr.State().LastError)
}

func TestManager_Subscribe(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return validCredentials(), nil
	}
	mgr := NewManager(api, mocks.NewMockSessionStore())

	var events []domain.SessionEventType
	unsubscribe := mgr.Subscribe(func(e domain.SessionEvent) {
		events = append(events, e.Type)
		assertInvariant(t, e.State)
	})

	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))
	mgr.Logout(ctx)

	require.Equal(t, []domain.SessionEventType{domain.SessionEstablished, domain.SessionCleared}, events)

	unsubscribe()
	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))
	assert.Len(t, events, 2, "unsubscribed callback must not fire")
}

func TestManager_ResendVerification_Stateless(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.ResendVerificationFunc = func(ctx context.Context, email string) (*domain.ResendAck, error) {
		return &domain.ResendAck{Message: "Code sent", CanResend: false}, nil
	}
	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store)
	before := mgr.State()

	ack, err := mgr.ResendVerificationCode(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Code sent", ack.Message)
	assert.Equal(t, before, mgr.State())
	assert.False(t, store.HasAuthData(ctx))
}

func TestManager_PasswordReset(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.ResetPasswordFunc = func(ctx context.Context, email, otp, newPassword string) (*domain.PasswordResetAck, error) {
		require.Equal(t, "ada@x.com", email)
		require.Equal(t, "654321", otp)
		require.Equal(t, "newsecret", newPassword)
		return &domain.PasswordResetAck{Success: true, Message: "Password updated"}, nil
	}
	mgr := NewManager(api, mocks.NewMockSessionStore())

	ack, err := mgr.ForgotPassword(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	ack, err = mgr.ResetPassword(ctx, "ada@x.com", "654321", "newsecret")
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.False(t, mgr.State().Authenticated, "password reset does not establish a session")
}

func TestManager_UpdateProfile_WriteThrough(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return validCredentials(), nil
	}

	hours := "9-17"
	updated := validUser()
	updated.OpeningHours = &hours

	profile := mocks.NewMockProfileAPI()
	profile.UpdateProfileFunc = func(ctx context.Context, req domain.UpdateProfileRequest, token string) (*domain.User, error) {
		require.Equal(t, "tok_1", token)
		return updated, nil
	}

	store := mocks.NewMockSessionStore()
	mgr := NewManager(api, store, WithProfileAPI(profile))
	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))

	user, err := mgr.UpdateProfile(ctx, domain.UpdateProfileRequest{OpeningHours: &hours})
	require.NoError(t, err)
	require.NotNil(t, user.OpeningHours)

	state := mgr.State()
	assertInvariant(t, state)
	assert.Equal(t, updated, state.User)

	storedUser, ok := store.User(ctx)
	require.True(t, ok)
	assert.Equal(t, updated, storedUser, "refreshed user written through before memory")
}

func TestManager_UpdateProfile_RequiresAuth(t *testing.T) {
	mgr := NewManager(mocks.NewMockAuthAPI(), mocks.NewMockSessionStore(),
		WithProfileAPI(mocks.NewMockProfileAPI()))

	_, err := mgr.UpdateProfile(context.Background(), domain.UpdateProfileRequest{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestManager_RememberedEmail(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(mocks.NewMockAuthAPI(), mocks.NewMockSessionStore())

	_, ok := mgr.RememberedEmail(ctx)
	assert.False(t, ok)

	require.NoError(t, mgr.RememberEmail(ctx, "ada@x.com"))
	email, ok := mgr.RememberedEmail(ctx)
	require.True(t, ok)
	assert.Equal(t, "ada@x.com", email)

	require.NoError(t, mgr.ForgetEmail(ctx))
	_, ok = mgr.RememberedEmail(ctx)
	assert.False(t, ok)
}

func TestManager_Token(t *testing.T) {
	ctx := context.Background()
	api := mocks.NewMockAuthAPI()
	api.LoginFunc = func(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
		return validCredentials(), nil
	}
	mgr := NewManager(api, mocks.NewMockSessionStore())

	_, err := mgr.Token()
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	require.NoError(t, mgr.Login(ctx, "ada@x.com", "secret1"))
	token, err := mgr.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok_1", token)
}
