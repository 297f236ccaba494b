package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionProvider exposes the signed-in user to the presentation layer.
type SessionProvider interface {
	Current() (*User, bool)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignOut()
	Refresh(ctx context.Context) error
}

// Session is an in-process SessionProvider backed by the auth service.
type Session struct {
	svc *Service

	mu    sync.RWMutex
	user  *User
	token string
}

var _ SessionProvider = (*Session)(nil)

func NewSession(svc *Service) *Session {
	return &Session{svc: svc}
}

func (s *Session) Current() (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user, s.user != nil
}

// UserID returns the signed-in user's ID or uuid.Nil.
func (s *Session) UserID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return uuid.Nil
	}

	return s.user.ID
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	token, u, err := s.svc.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user, s.token = u, token
	s.mu.Unlock()

	return u, nil
}

// SignUp registers the account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password string) (*User, error) {
	if _, err := s.svc.SignUp(ctx, email, password); err != nil {
		return nil, err
	}

	return s.SignIn(ctx, email, password)
}

func (s *Session) SignOut() {
	s.mu.Lock()
	s.user, s.token = nil, ""
	s.mu.Unlock()
}

// Refresh reloads the signed-in user, e.g. after the email changed.
func (s *Session) Refresh(ctx context.Context) error {
	id := s.UserID()
	if id == uuid.Nil {
		return ErrNotSignedIn
	}

	u, err := s.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()

	return nil
}
