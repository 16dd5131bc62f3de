package e2e

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/uploaddoc/domain"
	"github.com/you/uploaddoc/internal/gateway"
	"github.com/you/uploaddoc/internal/session"
	"github.com/you/uploaddoc/internal/storage"
)

// clientStack is a full client wired against the fake backend, with
// file-backed storage that survives "restarts" (new stacks on the same
// path).
type clientStack struct {
	backend *FakeBackend
	client  *gateway.Client
	store   *storage.Adapter
	manager *session.Manager
	path    string
}

func newClientStack(t *testing.T, backend *FakeBackend, path string) *clientStack {
	t.Helper()

	fileStore, err := storage.NewFileStore(path)
	require.NoError(t, err)

	client := gateway.NewClient(backend.URL())
	adapter := storage.NewAdapter(fileStore)
	manager := session.NewManager(client, adapter, session.WithProfileAPI(client))

	return &clientStack{
		backend: backend,
		client:  client,
		store:   adapter,
		manager: manager,
		path:    path,
	}
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	stack := newClientStack(t, backend, filepath.Join(t.TempDir(), "session.json"))

	// Register: acknowledged, no session.
	ack, err := stack.manager.Register(ctx, domain.RegisterRequest{
		Name:         "Ada",
		Email:        "ada@x.com",
		MatricNumber: "M123",
		Password:     "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", ack.Email)
	assert.True(t, ack.CanResend)
	assert.False(t, stack.manager.State().Authenticated)
	assert.False(t, stack.store.HasAuthData(ctx))

	// Logging in before verification redirects to the verify screen.
	err = stack.manager.Login(ctx, "ada@x.com", "secret1")
	require.Error(t, err)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.NeedsVerification)
	assert.Equal(t, "ada@x.com", apiErr.Email)

	// Wrong code: attempts are counted down.
	err = stack.manager.VerifyEmail(ctx, "ada@x.com", "000000")
	require.Error(t, err)
	apiErr, ok = domain.AsAPIError(err)
	require.True(t, ok)
	require.NotNil(t, apiErr.AttemptsRemaining)
	assert.Equal(t, 2, *apiErr.AttemptsRemaining)

	// Resend invalidates the old code and resets attempts.
	resendAck, err := stack.manager.ResendVerificationCode(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, resendAck.Message)

	// Right code: session established and persisted.
	require.NoError(t, stack.manager.VerifyEmail(ctx, "ada@x.com", backend.OTPFor("ada@x.com")))
	state := stack.manager.State()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "Ada", state.User.Name)
	assert.True(t, stack.store.HasAuthData(ctx))
}

func TestBootstrapAfterRestart(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")

	path := filepath.Join(t.TempDir(), "session.json")
	first := newClientStack(t, backend, path)
	require.NoError(t, first.manager.Login(ctx, "shop@x.com", "hunter2"))

	// A new stack on the same storage path is a process restart.
	second := newClientStack(t, backend, path)
	assert.True(t, second.manager.State().Loading, "fresh manager starts loading")

	second.manager.CheckAuthStatus(ctx)
	state := second.manager.State()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "shop@x.com", state.User.Email)
	assert.False(t, state.Loading)
}

func TestBootstrapWithDeadToken(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")

	path := filepath.Join(t.TempDir(), "session.json")
	stack := newClientStack(t, backend, path)

	// Forge storage contents with a token the backend will reject.
	require.NoError(t, stack.store.SaveToken(ctx, "tok_forged"))
	require.NoError(t, stack.store.SaveUser(ctx, &domain.User{ID: "u1", Email: "shop@x.com"}))

	stack.manager.CheckAuthStatus(ctx)

	state := stack.manager.State()
	assert.False(t, state.Authenticated)
	assert.Empty(t, state.LastError, "bootstrap failures are silent")
	assert.False(t, stack.store.HasAuthData(ctx), "rejected token purged from storage")
}

func TestLogoutClearsPersistedSession(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")

	path := filepath.Join(t.TempDir(), "session.json")
	stack := newClientStack(t, backend, path)
	require.NoError(t, stack.manager.Login(ctx, "shop@x.com", "hunter2"))

	assert.True(t, stack.manager.Logout(ctx))
	assert.False(t, stack.manager.State().Authenticated)

	// After a restart there is nothing to hydrate.
	restarted := newClientStack(t, backend, path)
	restarted.manager.CheckAuthStatus(ctx)
	assert.False(t, restarted.manager.State().Authenticated)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")
	stack := newClientStack(t, backend, filepath.Join(t.TempDir(), "session.json"))

	ack, err := stack.manager.ForgotPassword(ctx, "shop@x.com")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	otp := backend.ResetOTPFor("shop@x.com")
	require.NotEmpty(t, otp)

	// Wrong code is rejected.
	_, err = stack.manager.ResetPassword(ctx, "shop@x.com", "000000", "newsecret")
	require.Error(t, err)

	ack, err = stack.manager.ResetPassword(ctx, "shop@x.com", otp, "newsecret")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	// Old password no longer works, new one does.
	require.Error(t, stack.manager.Login(ctx, "shop@x.com", "hunter2"))
	require.NoError(t, stack.manager.Login(ctx, "shop@x.com", "newsecret"))
}

func TestProfileUpdateWritesThrough(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")
	stack := newClientStack(t, backend, filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, stack.manager.Login(ctx, "shop@x.com", "hunter2"))

	hours := "Mon-Fri 9-17"
	cost := "50 per page"
	user, err := stack.manager.UpdateProfile(ctx, domain.UpdateProfileRequest{
		OpeningHours: &hours,
		PrintingCost: &cost,
	})
	require.NoError(t, err)
	require.NotNil(t, user.OpeningHours)
	assert.Equal(t, "Mon-Fri 9-17", *user.OpeningHours)

	// The refreshed profile survives a restart without a new login.
	stored, ok := stack.store.User(ctx)
	require.True(t, ok)
	require.NotNil(t, stored.PrintingCost)
	assert.Equal(t, "50 per page", *stored.PrintingCost)
}

func TestProviderDirectoryAndUpload(t *testing.T) {
	ctx := context.Background()
	backend := NewFakeBackend()
	t.Cleanup(backend.Close)
	backend.SeedProvider("Campus Print", "shop@x.com", "hunter2")
	provider := backend.SeedProvider("Library Copy Center", "library@x.com", "hunter2")
	stack := newClientStack(t, backend, filepath.Join(t.TempDir(), "session.json"))

	// Register and verify a student.
	_, err := stack.manager.Register(ctx, domain.RegisterRequest{
		Name: "Ada", Email: "ada@x.com", MatricNumber: "M123", Password: "secret1",
	})
	require.NoError(t, err)
	require.NoError(t, stack.manager.VerifyEmail(ctx, "ada@x.com", backend.OTPFor("ada@x.com")))

	token, err := stack.manager.Token()
	require.NoError(t, err)

	// Browse providers with search.
	page, err := stack.client.Providers(ctx, 1, 10, "library", token)
	require.NoError(t, err)
	require.Len(t, page.Admins, 1)
	assert.Equal(t, "Library Copy Center", page.Admins[0].Name)

	all, err := stack.client.Providers(ctx, 1, 10, "", token)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Pagination.TotalItems)

	// Upload a document to the chosen provider.
	project, err := stack.client.Upload(ctx, domain.ProjectUpload{
		Title:    "Thesis",
		FileName: "thesis.pdf",
		AdminID:  provider.ID,
		Copies:   2,
		Content:  []byte("%PDF-1.4 fake"),
	}, token)
	require.NoError(t, err)
	assert.Equal(t, "pending", project.Status)
	assert.Equal(t, provider.ID, project.AssignedAdmin)

	// It shows up in the student's project list.
	student := stack.manager.State().User
	list, err := stack.client.StudentProjects(ctx, student.ID, 1, 10, token)
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "Thesis", list.Projects[0].Title)
}
