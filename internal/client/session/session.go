// Package session owns the authenticated identity: the bearer token, its
// durable copy, and the profile resolved against the server. It is the only
// component allowed to mutate either.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/andeansoft/cotizador/internal/models"
	"go.uber.org/zap"
)

// CredentialStore persists the token across restarts.
type CredentialStore interface {
	// Token returns the persisted token, or "" when none is stored.
	Token() (string, error)
	// SaveToken stores the token durably.
	SaveToken(token string) error
	// ClearToken removes any persisted token; clearing an absent token
	// is a no-op.
	ClearToken() error
}

// ProfileFetcher validates a token by fetching the profile it belongs to.
// The api.Client satisfies this; it reads the token back from this store.
type ProfileFetcher interface {
	Me(ctx context.Context) (*models.Profile, error)
}

const resolveTimeout = 10 * time.Second

// Store is the single source of truth for "who is logged in". The profile
// is only populated once the token has been validated against the server;
// any validation failure clears token and profile together, in memory and
// on disk.
type Store struct {
	mu        sync.Mutex
	creds     CredentialStore
	fetcher   ProfileFetcher
	log       *zap.Logger
	token     string
	user      *models.Profile
	resolving bool
	subs      []func()
}

// New constructs a Store around the given credential store. Call Start to
// load the persisted token and begin validation.
func New(creds CredentialStore, log *zap.Logger) *Store {
	return &Store{creds: creds, log: log}
}

// Start binds the profile fetcher, loads any persisted token, and kicks off
// validation. Setting the fetcher after construction breaks the dependency
// cycle with the API client, which reads its bearer token from this store.
func (s *Store) Start(f ProfileFetcher) {
	s.mu.Lock()
	s.fetcher = f
	tok, err := s.creds.Token()
	if err != nil {
		s.log.Warn("failed to read persisted token", zap.Error(err))
		tok = ""
	}
	if tok == "" {
		s.mu.Unlock()
		return
	}
	s.token = tok
	s.resolving = true
	s.mu.Unlock()

	s.notify()
	go s.resolve(tok)
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the resolved profile, or nil while logged out or resolving.
func (s *Store) User() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsResolving reports whether a profile validation is in flight.
func (s *Store) IsResolving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolving
}

// Subscribe registers fn to run after every session identity change
// (login, logout, resolution outcome, profile update). Subscriptions live
// for the process lifetime.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Login persists the token, installs it, and triggers re-validation. The
// profile is populated (or the session cleared) once validation settles.
func (s *Store) Login(token string) {
	s.mu.Lock()
	if err := s.creds.SaveToken(token); err != nil {
		s.log.Warn("failed to persist token", zap.Error(err))
	}
	s.token = token
	s.user = nil
	s.resolving = true
	s.mu.Unlock()

	s.notify()
	go s.resolve(token)
}

// Logout clears the session synchronously, memory and disk. No network
// call is made.
func (s *Store) Logout() {
	s.mu.Lock()
	if err := s.creds.ClearToken(); err != nil {
		s.log.Warn("failed to clear persisted token", zap.Error(err))
	}
	s.token = ""
	s.user = nil
	s.resolving = false
	s.mu.Unlock()

	s.notify()
}

// UpdateUser shallow-merges the non-nil fields of upd into the resolved
// profile. This is a local cache update only; with no user present it is a
// no-op.
func (s *Store) UpdateUser(upd models.ProfileUpdate) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	u := *s.user
	if upd.BusinessName != nil {
		u.BusinessName = *upd.BusinessName
	}
	if upd.BusinessAddress != nil {
		u.BusinessAddress = *upd.BusinessAddress
	}
	if upd.BusinessRUC != nil {
		u.BusinessRUC = *upd.BusinessRUC
	}
	if upd.BusinessPhone != nil {
		u.BusinessPhone = *upd.BusinessPhone
	}
	if upd.PrimaryColor != nil {
		u.PrimaryColor = *upd.PrimaryColor
	}
	if upd.PDFNote1 != nil {
		u.PDFNote1 = *upd.PDFNote1
	}
	if upd.PDFNote1Color != nil {
		u.PDFNote1Color = *upd.PDFNote1Color
	}
	if upd.PDFNote2 != nil {
		u.PDFNote2 = *upd.PDFNote2
	}
	if upd.BankAccounts != nil {
		u.BankAccounts = *upd.BankAccounts
	}
	s.user = &u
	s.mu.Unlock()

	s.notify()
}

// resolve validates the given token against the profile endpoint. A result
// only applies while the token it was issued for is still current; a login
// that supersedes it wins and this response is discarded.
func (s *Store) resolve(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	p, err := s.fetcher.Me(ctx)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.log.Info("session validation failed, clearing session", zap.Error(err))
		if cerr := s.creds.ClearToken(); cerr != nil {
			s.log.Warn("failed to clear persisted token", zap.Error(cerr))
		}
		s.token = ""
		s.user = nil
	} else {
		s.user = p
	}
	s.resolving = false
	s.mu.Unlock()

	s.notify()
}
