// Package session owns the client's authentication state machine. The
// Manager is the only component that mutates session state; everything
// else reads published snapshots and invokes operations.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/you/uploaddoc/domain"
)

// ResendCooldown is the client-side wait between verification-code
// resends. Enforcing it is the caller's job, not the manager's.
const ResendCooldown = 60 * time.Second

// Manager orchestrates login, registration, verification and logout
// against the backend gateway, writing through to durable storage
// before publishing in-memory state. Instances are constructor-injected
// so tests can run isolated managers side by side.
type Manager struct {
	api     domain.AuthAPI
	profile domain.ProfileAPI
	store   domain.SessionStore
	logger  *log.Logger

	mu     sync.Mutex // guards state, seq, subs
	state  domain.SessionState
	seq    uint64
	nextID int
	subs   map[int]domain.Subscriber
}

// Option configures a Manager.
type Option func(*Manager)

// WithProfileAPI enables UpdateProfile and FetchProfile.
func WithProfileAPI(api domain.ProfileAPI) Option {
	return func(m *Manager) { m.profile = api }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager. The session starts empty with
// Loading set, matching the period before the first bootstrap resolves.
func NewManager(api domain.AuthAPI, store domain.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		logger: log.Default(),
		state:  domain.SessionState{Loading: true},
		subs:   map[int]domain.Subscriber{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current session.
func (m *Manager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a callback for session events and returns an
// unsubscribe function. Callbacks run synchronously after each
// published transition and must not call back into the manager.
func (m *Manager) Subscribe(sub domain.Subscriber) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = sub

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// publish must be called with the lock held.
func (m *Manager) publish(eventType domain.SessionEventType) {
	event := domain.SessionEvent{Type: eventType, State: m.state}
	for _, sub := range m.subs {
		sub(event)
	}
}

// begin starts a session-mutating operation: it bumps the operation
// sequence, invalidating any still-in-flight older operation, and marks
// the session loading. Returns the operation's sequence number.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.state.Loading = true
	m.state.LastError = ""
	return m.seq
}

// current reports whether op is still the most recently issued
// operation. Must be called with the lock held.
func (m *Manager) current(op uint64) bool { return op == m.seq }

// fail records a failed operation. Stale completions leave state alone:
// whatever superseded them already owns the session.
func (m *Manager) fail(op uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(op) {
		return
	}
	m.failLocked(err)
}

// failLocked must be called with the lock held.
func (m *Manager) failLocked(err error) {
	m.state.Loading = false
	m.state.LastError = err.Error()
	m.publish(domain.SessionFailed)
}

// establish commits credentials: storage first, then in-memory state,
// so a crash in between leaves a durable session the next bootstrap can
// re-validate. The whole commit runs under the state lock after a
// currency check, so a superseded completion never touches storage and
// a logout's clear cannot interleave with the writes. A failed write
// aborts the whole operation.
func (m *Manager) establish(ctx context.Context, op uint64, creds *domain.Credentials, eventType domain.SessionEventType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(op) {
		return domain.ErrOperationStale
	}

	if err := m.store.SaveToken(ctx, creds.Token); err != nil {
		m.failLocked(err)
		return err
	}
	if err := m.store.SaveUser(ctx, creds.User); err != nil {
		// Half-written: drop the token too so storage never holds a
		// token without its user.
		if clearErr := m.store.ClearAuthData(ctx); clearErr != nil {
			m.logger.Printf("session: clearing partial auth data: %v", clearErr)
		}
		m.failLocked(err)
		return err
	}

	m.state = domain.SessionState{
		User:          creds.User,
		Token:         creds.Token,
		Authenticated: true,
		Loading:       false,
	}
	m.publish(eventType)
	return nil
}

// settle publishes an unauthenticated terminal state for op.
func (m *Manager) settle(op uint64, eventType domain.SessionEventType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(op) {
		return
	}
	m.state = domain.SessionState{}
	m.publish(eventType)
}

// CheckAuthStatus hydrates the session from storage and re-validates it
// with the backend. It is invoked once at startup and may be called
// again at any time. It never returns an error: every failure settles
// silently into the unauthenticated state.
func (m *Manager) CheckAuthStatus(ctx context.Context) {
	op := m.begin()

	token, haveToken := m.store.Token(ctx)
	user, haveUser := m.store.User(ctx)
	if !haveToken || !haveUser {
		m.settle(op, domain.SessionBootstrapped)
		return
	}

	creds, err := m.api.CheckStatus(ctx, token)
	if err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.current(op) {
			return
		}
		if _, ok := domain.AsAPIError(err); ok {
			// The backend rejected the token: it is dead, drop it.
			if clearErr := m.store.ClearAuthData(ctx); clearErr != nil {
				m.logger.Printf("session: clearing rejected auth data: %v", clearErr)
			}
		} else {
			// Unreachable backend: keep the stored session so the next
			// launch can retry, but do not claim authentication now.
			m.logger.Printf("session: status check failed: %v", err)
		}
		m.state = domain.SessionState{}
		m.publish(domain.SessionBootstrapped)
		return
	}

	// Prefer the fresh server copy of the user; fall back to the stored
	// snapshot if the response carried none.
	freshUser := creds.User
	if freshUser == nil {
		freshUser = user
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current(op) {
		return
	}

	// The backend may rotate the token on status checks. Adopt and
	// persist a replacement; otherwise keep what storage already holds.
	// Writes happen under the lock so a concurrent logout's clear
	// cannot interleave with them.
	activeToken := token
	if creds.Token != "" && creds.Token != token {
		if err := m.store.SaveToken(ctx, creds.Token); err != nil {
			m.logger.Printf("session: persisting rotated token: %v", err)
		} else {
			activeToken = creds.Token
		}
	}
	if err := m.store.SaveUser(ctx, freshUser); err != nil {
		// Storage still holds the previous consistent snapshot, so the
		// session survives a restart regardless.
		m.logger.Printf("session: refreshing stored user: %v", err)
	}

	m.state = domain.SessionState{
		User:          freshUser,
		Token:         activeToken,
		Authenticated: true,
		Loading:       false,
	}
	m.publish(domain.SessionBootstrapped)
}

// Login authenticates with email and password. On success the session
// is established and persisted; on failure the error is recorded in
// LastError and returned so callers can branch on its structured fields
// (for example NeedsVerification).
func (m *Manager) Login(ctx context.Context, email, password string) error {
	op := m.begin()

	creds, err := m.api.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		m.fail(op, err)
		return err
	}
	return m.establish(ctx, op, creds, domain.SessionEstablished)
}

// Register submits a registration. No session is established: the
// backend returns an acknowledgement that drives the email-verification
// step. Session state is left untouched apart from the loading flag.
func (m *Manager) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error) {
	op := m.begin()

	ack, err := m.api.Register(ctx, req)
	if err != nil {
		m.fail(op, err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current(op) {
		m.state.Loading = false
	}
	return ack, nil
}

// VerifyEmail confirms a registration code. Success behaves exactly
// like a login: credentials are persisted and the session established.
func (m *Manager) VerifyEmail(ctx context.Context, email, otp string) error {
	op := m.begin()

	creds, err := m.api.VerifyEmail(ctx, domain.VerifyEmailRequest{Email: email, OTP: otp})
	if err != nil {
		m.fail(op, err)
		return err
	}
	return m.establish(ctx, op, creds, domain.SessionEstablished)
}

// ResendVerificationCode requests a fresh code. Stateless with respect
// to the session; callers own the ResendCooldown timing.
func (m *Manager) ResendVerificationCode(ctx context.Context, email string) (*domain.ResendAck, error) {
	ack, err := m.api.ResendVerification(ctx, email)
	if err != nil {
		m.setError(err)
		return nil, err
	}
	return ack, nil
}

// ForgotPassword starts a password reset. Stateless with respect to the
// session.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetAck, error) {
	return m.api.ForgotPassword(ctx, email)
}

// ResetPassword completes a password reset with the emailed code.
func (m *Manager) ResetPassword(ctx context.Context, email, otp, newPassword string) (*domain.PasswordResetAck, error) {
	return m.api.ResetPassword(ctx, email, otp, newPassword)
}

// Logout clears storage and unconditionally transitions to the
// unauthenticated state. It never fails from the caller's perspective;
// the return value reports whether the storage clear fully succeeded,
// for logging or metrics.
func (m *Manager) Logout(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Bump the sequence and clear under one critical section: every
	// in-flight operation becomes stale before the clear, and nothing
	// can write credentials between the clear and the state reset.
	m.seq++

	cleared := true
	if err := m.store.ClearAuthData(ctx); err != nil {
		m.logger.Printf("session: logout storage clear: %v", err)
		cleared = false
	}

	m.state = domain.SessionState{}
	m.publish(domain.SessionCleared)
	return cleared
}

// ClearError drops LastError without other side effects, so a stale
// message never bleeds into the next attempt.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = ""
}

func (m *Manager) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastError = err.Error()
}

// UpdateProfile edits the authenticated user's provider attributes. The
// refreshed user is written through storage before the in-memory copy
// is replaced, same as any state-establishing operation.
func (m *Manager) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.User, error) {
	if m.profile == nil {
		return nil, errors.New("profile API not configured")
	}

	m.mu.Lock()
	token := m.state.Token
	authed := m.state.Authenticated
	m.mu.Unlock()
	if !authed {
		return nil, domain.ErrNotAuthenticated
	}

	op := m.begin()
	user, err := m.profile.UpdateProfile(ctx, req, token)
	if err != nil {
		m.fail(op, err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(op) {
		// Superseded while the request was in flight, typically by a
		// logout. Leave storage to whoever owns the session now.
		return nil, domain.ErrOperationStale
	}
	if err := m.store.SaveUser(ctx, user); err != nil {
		m.failLocked(err)
		return nil, err
	}
	m.state.User = user
	m.state.Loading = false
	m.publish(domain.SessionRefreshed)
	return user, nil
}

// FetchProfile reads a user profile. Read-only; no session mutation.
func (m *Manager) FetchProfile(ctx context.Context, userID string) (*domain.User, error) {
	if m.profile == nil {
		return nil, errors.New("profile API not configured")
	}

	m.mu.Lock()
	token := m.state.Token
	m.mu.Unlock()
	return m.profile.UserProfile(ctx, userID, token)
}

// RememberEmail persists the login email for prefilling the next login.
func (m *Manager) RememberEmail(ctx context.Context, email string) error {
	return m.store.SaveRememberedEmail(ctx, email)
}

// RememberedEmail returns the persisted login email, if any.
func (m *Manager) RememberedEmail(ctx context.Context) (string, bool) {
	return m.store.RememberedEmail(ctx)
}

// ForgetEmail removes the persisted login email.
func (m *Manager) ForgetEmail(ctx context.Context) error {
	return m.store.RemoveRememberedEmail(ctx)
}

// Token returns the current bearer token for callers that talk to
// endpoints outside the session manager's scope.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Authenticated {
		return "", domain.ErrNotAuthenticated
	}
	return m.state.Token, nil
}
