package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/you/uploaddoc/domain"
)

// Storage keys, matching the records the mobile client persisted.
const (
	KeyToken          = "@uploaddoc_token"
	KeyUser           = "@uploaddoc_user"
	KeyRememberedMail = "@uploaddoc_remember_email"
)

// Adapter implements domain.SessionStore over any KeyValueStore.
//
// Reads never propagate store failures: a broken store reads as empty,
// so startup degrades to "logged out" instead of crashing. Writes wrap
// failures in *domain.StorageWriteError so the session manager can
// refuse to treat the session as established.
type Adapter struct {
	kv domain.KeyValueStore
}

// NewAdapter creates a session store over the given key-value backend.
func NewAdapter(kv domain.KeyValueStore) *Adapter {
	return &Adapter{kv: kv}
}

// SaveToken implements domain.SessionStore.
func (a *Adapter) SaveToken(ctx context.Context, token string) error {
	if err := a.kv.Set(ctx, KeyToken, token); err != nil {
		return &domain.StorageWriteError{Key: KeyToken, Err: err}
	}
	return nil
}

// Token implements domain.SessionStore.
func (a *Adapter) Token(ctx context.Context) (string, bool) {
	token, err := a.kv.Get(ctx, KeyToken)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			log.Printf("storage: reading token: %v", err)
		}
		return "", false
	}
	return token, token != ""
}

// RemoveToken implements domain.SessionStore.
func (a *Adapter) RemoveToken(ctx context.Context) error {
	if err := a.kv.Delete(ctx, KeyToken); err != nil {
		return &domain.StorageWriteError{Key: KeyToken, Err: err}
	}
	return nil
}

// SaveUser implements domain.SessionStore.
func (a *Adapter) SaveUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &domain.StorageWriteError{Key: KeyUser, Err: err}
	}
	if err := a.kv.Set(ctx, KeyUser, string(data)); err != nil {
		return &domain.StorageWriteError{Key: KeyUser, Err: err}
	}
	return nil
}

// User implements domain.SessionStore. A record that fails to decode is
// treated as absent; the next status check will re-hydrate it.
func (a *Adapter) User(ctx context.Context) (*domain.User, bool) {
	raw, err := a.kv.Get(ctx, KeyUser)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			log.Printf("storage: reading user: %v", err)
		}
		return nil, false
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Printf("storage: decoding user record: %v", err)
		return nil, false
	}
	return &user, true
}

// RemoveUser implements domain.SessionStore.
func (a *Adapter) RemoveUser(ctx context.Context) error {
	if err := a.kv.Delete(ctx, KeyUser); err != nil {
		return &domain.StorageWriteError{Key: KeyUser, Err: err}
	}
	return nil
}

// SaveRememberedEmail implements domain.SessionStore.
func (a *Adapter) SaveRememberedEmail(ctx context.Context, email string) error {
	if err := a.kv.Set(ctx, KeyRememberedMail, email); err != nil {
		return &domain.StorageWriteError{Key: KeyRememberedMail, Err: err}
	}
	return nil
}

// RememberedEmail implements domain.SessionStore.
func (a *Adapter) RememberedEmail(ctx context.Context) (string, bool) {
	email, err := a.kv.Get(ctx, KeyRememberedMail)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			log.Printf("storage: reading remembered email: %v", err)
		}
		return "", false
	}
	return email, email != ""
}

// RemoveRememberedEmail implements domain.SessionStore.
func (a *Adapter) RemoveRememberedEmail(ctx context.Context) error {
	if err := a.kv.Delete(ctx, KeyRememberedMail); err != nil {
		return &domain.StorageWriteError{Key: KeyRememberedMail, Err: err}
	}
	return nil
}

// ClearAuthData implements domain.SessionStore. Both deletes are
// attempted even when the first fails; the first failure is returned.
func (a *Adapter) ClearAuthData(ctx context.Context) error {
	tokenErr := a.RemoveToken(ctx)
	userErr := a.RemoveUser(ctx)
	if tokenErr != nil {
		return tokenErr
	}
	return userErr
}

// HasAuthData implements domain.SessionStore.
func (a *Adapter) HasAuthData(ctx context.Context) bool {
	if _, ok := a.Token(ctx); !ok {
		return false
	}
	_, ok := a.User(ctx)
	return ok
}
