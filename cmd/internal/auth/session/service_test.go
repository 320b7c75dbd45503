package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reel/cmd/identity"
)

// fakeStore is an in-memory Store for unit tests. It reproduces the
// conditional-swap semantics of the Postgres store.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*fakeUser
}

type fakeUser struct {
	user        identity.User
	password    string
	refreshHash string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*fakeUser{}}
}

func (f *fakeStore) addUser(u identity.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &fakeUser{user: u, password: password}
}

func (f *fakeStore) VerifyCredentials(_ context.Context, identifier, password string) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fu := range f.users {
		if fu.user.Username == identifier || fu.user.Email == identifier {
			if fu.password != password {
				return identity.User{}, identity.ErrInvalidCredentials
			}
			return fu.user, nil
		}
	}
	return identity.User{}, identity.ErrInvalidCredentials
}

func (f *fakeStore) GetUserByID(_ context.Context, userID string) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.users[userID]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "fake.GetUserByID", Resource: "user"}
	}
	return fu.user, nil
}

func (f *fakeStore) ReplaceRefreshToken(_ context.Context, userID, newHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.users[userID]
	if !ok {
		return identity.NotFoundError{Op: "fake.ReplaceRefreshToken", Resource: "user"}
	}
	fu.refreshHash = newHash
	return nil
}

func (f *fakeStore) SwapRefreshToken(_ context.Context, userID, oldHash, newHash string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	if fu.refreshHash == "" || fu.refreshHash != oldHash {
		return false, nil
	}
	fu.refreshHash = newHash
	return true, nil
}

func (f *fakeStore) ClearRefreshToken(_ context.Context, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fu, ok := f.users[userID]; ok {
		fu.refreshHash = ""
	}
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeStore) {
	t.Helper()

	codec := mustNewCodec(t)
	store := newFakeStore()
	store.addUser(identity.User{
		ID:       "01J0000000000000000000TEST",
		Username: "alice",
		Email:    "alice@example.com",
	}, "correct horse battery")

	return NewManager(codec, store), store
}

func TestManager_Login(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if issued.AccessToken == issued.RefreshToken {
		t.Fatalf("token pair must be distinct")
	}
	if issued.User.Username != "alice" {
		t.Fatalf("user: %+v", issued.User)
	}
	if got := store.users["01J0000000000000000000TEST"].refreshHash; got != identity.HashRefreshTokenHex(issued.RefreshToken) {
		t.Fatalf("stored digest does not match issued refresh token")
	}
}

func TestManager_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := m.Login(ctx, now, "alice", "wrong"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := m.Login(ctx, now, "nobody", "correct horse battery"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestManager_Refresh_RotatesAndInvalidatesOldToken(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := m.Refresh(ctx, now.Add(time.Minute), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh must issue a new refresh token")
	}

	// Replaying the consumed token fails and does not disturb the new one.
	if _, err := m.Refresh(ctx, now.Add(2*time.Minute), first.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("replay: expected ErrTokenInvalid, got %v", err)
	}
	third, err := m.Refresh(ctx, now.Add(3*time.Minute), second.RefreshToken)
	if err != nil {
		t.Fatalf("refresh with current token after replay attempt: %v", err)
	}
	if third.RefreshToken == second.RefreshToken {
		t.Fatalf("rotation must advance the token")
	}
}

func TestManager_Refresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := m.Refresh(ctx, now, issued.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestManager_Logout_ThenRefreshFails(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := m.Logout(ctx, now, issued.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := m.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after logout, got %v", err)
	}

	// Logout is idempotent.
	if err := m.Logout(ctx, now, issued.User.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestManager_SecondLoginInvalidatesFirstRefreshToken(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login 1: %v", err)
	}
	second, err := m.Login(ctx, now.Add(time.Second), "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login 2: %v", err)
	}

	if _, err := m.Refresh(ctx, now.Add(time.Minute), first.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("first session token must be dead, got %v", err)
	}
	if _, err := m.Refresh(ctx, now.Add(time.Minute), second.RefreshToken); err != nil {
		t.Fatalf("second session token must work: %v", err)
	}
}

func TestManager_Refresh_DeletedUser(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := m.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	store.mu.Lock()
	delete(store.users, issued.User.ID)
	store.mu.Unlock()

	if _, err := m.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for deleted user, got %v", err)
	}
}
