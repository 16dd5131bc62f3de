package domain

import "context"

// KeyValueStore is an opaque durable string store. Implementations must
// survive process restarts; Get returns ErrRecordNotFound for missing keys.
type KeyValueStore interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionStore is typed, durable access to the three session records.
// Reads degrade to absent results on store failure so a corrupted store
// means "logged out", never a startup crash. Writes fail with
// *StorageWriteError.
type SessionStore interface {
	SaveToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, bool)
	RemoveToken(ctx context.Context) error

	SaveUser(ctx context.Context, user *User) error
	User(ctx context.Context) (*User, bool)
	RemoveUser(ctx context.Context) error

	SaveRememberedEmail(ctx context.Context, email string) error
	RememberedEmail(ctx context.Context) (string, bool)
	RemoveRememberedEmail(ctx context.Context) error

	// ClearAuthData removes token and user together, best-effort: both
	// deletes are attempted even if the first fails.
	ClearAuthData(ctx context.Context) error
	HasAuthData(ctx context.Context) bool
}

// AuthAPI defines the backend authentication endpoints the session
// manager composes.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (*Credentials, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterAck, error)
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*Credentials, error)
	ResendVerification(ctx context.Context, email string) (*ResendAck, error)
	CheckStatus(ctx context.Context, token string) (*Credentials, error)
	ForgotPassword(ctx context.Context, email string) (*PasswordResetAck, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (*PasswordResetAck, error)
}

// ProfileAPI defines the profile endpoints.
type ProfileAPI interface {
	UpdateProfile(ctx context.Context, req UpdateProfileRequest, token string) (*User, error)
	UserProfile(ctx context.Context, userID, token string) (*User, error)
}

// DirectoryAPI lists printing providers with pagination and search.
type DirectoryAPI interface {
	Providers(ctx context.Context, page, limit int, search, token string) (*ProviderPage, error)
}

// ProjectAPI defines the print-job endpoints.
type ProjectAPI interface {
	Upload(ctx context.Context, up ProjectUpload, token string) (*Project, error)
	StudentProjects(ctx context.Context, studentID string, page, limit int, token string) (*ProjectPage, error)
	AssignedProjects(ctx context.Context, adminID string, page, limit int, token string) (*ProjectPage, error)
	AcceptProject(ctx context.Context, projectID, token string) (*Project, error)
	DeleteProject(ctx context.Context, projectID, token string) error
}
