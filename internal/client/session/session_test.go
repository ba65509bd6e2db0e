package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeansoft/cotizador/internal/models"
)

// memCreds is an in-memory CredentialStore.
type memCreds struct {
	mu    sync.Mutex
	token string
}

func (m *memCreds) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memCreds) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memCreds) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// fakeFetcher resolves profiles per token, optionally blocking until
// released.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]*models.Profile
	errs    map[string]error
	block   chan struct{}
	tokens  func() string
}

func (f *fakeFetcher) Me(ctx context.Context) (*models.Profile, error) {
	tok := f.tokens()
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[tok]; ok {
		return nil, err
	}
	if p, ok := f.results[tok]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errors.New("unknown token")
}

func TestStore_LoginResolvesProfile(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-1": {ID: 1, Email: "a@b.com"}},
		tokens:  s.Token,
	}
	s.Start(f)

	s.Login("tok-1")

	require.Eventually(t, func() bool {
		return !s.IsResolving() && s.User() != nil
	}, time.Second, 5*time.Millisecond)

	u := s.User()
	require.Equal(t, "a@b.com", u.Email)
	require.Equal(t, "tok-1", s.Token())

	stored, _ := creds.Token()
	require.Equal(t, "tok-1", stored)
}

func TestStore_StartResumesPersistedToken(t *testing.T) {
	creds := &memCreds{token: "tok-saved"}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-saved": {ID: 2, Email: "saved@b.com"}},
		tokens:  s.Token,
	}
	s.Start(f)

	require.Equal(t, "tok-saved", s.Token())
	require.Eventually(t, func() bool {
		u := s.User()
		return u != nil && u.Email == "saved@b.com"
	}, time.Second, 5*time.Millisecond)
}

func TestStore_InvalidTokenClearsEverything(t *testing.T) {
	creds := &memCreds{token: "tok-stale"}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		errs:   map[string]error{"tok-stale": errors.New("401")},
		tokens: s.Token,
	}
	s.Start(f)

	require.Eventually(t, func() bool {
		return !s.IsResolving()
	}, time.Second, 5*time.Millisecond)

	require.Empty(t, s.Token())
	require.Nil(t, s.User())
	stored, _ := creds.Token()
	require.Empty(t, stored, "persisted token must be cleared too")
}

func TestStore_NewerLoginWins(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	release := make(chan struct{})
	f := &fakeFetcher{
		results: map[string]*models.Profile{
			"tok-old": {ID: 1, Email: "old@b.com"},
			"tok-new": {ID: 2, Email: "new@b.com"},
		},
		block:  release,
		tokens: s.Token,
	}
	s.Start(f)

	s.Login("tok-old")
	s.Login("tok-new")
	close(release)

	require.Eventually(t, func() bool {
		u := s.User()
		return u != nil && u.Email == "new@b.com"
	}, time.Second, 5*time.Millisecond)

	// The superseded resolution must not have clobbered the newer one.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, "new@b.com", s.User().Email)
	require.Equal(t, "tok-new", s.Token())
}

func TestStore_Logout(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-1": {ID: 1, Email: "a@b.com"}},
		tokens:  s.Token,
	}
	s.Start(f)
	s.Login("tok-1")
	require.Eventually(t, func() bool { return s.User() != nil }, time.Second, 5*time.Millisecond)

	s.Logout()

	require.Empty(t, s.Token())
	require.Nil(t, s.User())
	require.False(t, s.IsResolving())
	stored, _ := creds.Token()
	require.Empty(t, stored)
}

func TestStore_SubscribersNotified(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-1": {ID: 1, Email: "a@b.com"}},
		tokens:  s.Token,
	}
	s.Start(f)

	var mu sync.Mutex
	var calls int
	s.Subscribe(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	s.Login("tok-1")
	// One notification for the login, one for the resolution outcome.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestStore_UpdateUserMergesNonNilFields(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-1": {
			ID:           1,
			Email:        "a@b.com",
			BusinessName: "Negocio Original",
			BusinessRUC:  "20123456789",
		}},
		tokens: s.Token,
	}
	s.Start(f)
	s.Login("tok-1")
	require.Eventually(t, func() bool { return s.User() != nil }, time.Second, 5*time.Millisecond)

	name := "Negocio Nuevo"
	s.UpdateUser(models.ProfileUpdate{BusinessName: &name})

	u := s.User()
	require.Equal(t, "Negocio Nuevo", u.BusinessName)
	require.Equal(t, "20123456789", u.BusinessRUC, "unset fields keep their value")
}

func TestStore_UpdateUserWithoutUserIsNoop(t *testing.T) {
	s := New(&memCreds{}, zap.NewNop())
	name := "x"
	s.UpdateUser(models.ProfileUpdate{BusinessName: &name})
	require.Nil(t, s.User())
}

func TestStore_UserReturnsCopy(t *testing.T) {
	creds := &memCreds{}
	s := New(creds, zap.NewNop())
	f := &fakeFetcher{
		results: map[string]*models.Profile{"tok-1": {ID: 1, Email: "a@b.com"}},
		tokens:  s.Token,
	}
	s.Start(f)
	s.Login("tok-1")
	require.Eventually(t, func() bool { return s.User() != nil }, time.Second, 5*time.Millisecond)

	u := s.User()
	u.Email = "mutated@b.com"
	require.Equal(t, "a@b.com", s.User().Email)
}
