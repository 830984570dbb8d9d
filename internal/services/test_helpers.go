package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/interplink/internal/models"
)

// FakeInterpreterStore is an in-memory credential store for tests.
// Err* fields force the matching method to fail.
type FakeInterpreterStore struct {
	mu       sync.Mutex
	accounts map[string]*models.InterpreterAccount // by user id

	LookupErr error
	WriteErr  error
	Writes    int
}

func NewFakeInterpreterStore(accounts ...*models.InterpreterAccount) *FakeInterpreterStore {
	s := &FakeInterpreterStore{accounts: make(map[string]*models.InterpreterAccount)}
	for _, a := range accounts {
		s.accounts[a.User.ID] = a
	}
	return s
}

// Snapshot returns a deep copy of the stored account for assertions
func (s *FakeInterpreterStore) Snapshot(userID string) *models.InterpreterAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil
	}
	return cloneAccount(a)
}

func (s *FakeInterpreterStore) find(match func(*models.InterpreterAccount) bool) (*models.InterpreterAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LookupErr != nil {
		return nil, s.LookupErr
	}
	for _, a := range s.accounts {
		if a.User.Role == models.RoleInterpreter && match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *FakeInterpreterStore) GetInterpreterByEmail(ctx context.Context, email string) (*models.InterpreterAccount, error) {
	return s.find(func(a *models.InterpreterAccount) bool { return a.User.Email == email })
}

func (s *FakeInterpreterStore) GetInterpreterByUserID(ctx context.Context, userID string) (*models.InterpreterAccount, error) {
	return s.find(func(a *models.InterpreterAccount) bool { return a.User.ID == userID })
}

func (s *FakeInterpreterStore) GetInterpreterByProfileID(ctx context.Context, profileID string) (*models.InterpreterAccount, error) {
	return s.find(func(a *models.InterpreterAccount) bool { return a.Profile.ID == profileID })
}

func (s *FakeInterpreterStore) ListInterpreters(ctx context.Context, limit, offset int) ([]*models.InterpreterAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LookupErr != nil {
		return nil, s.LookupErr
	}
	out := make([]*models.InterpreterAccount, 0)
	i := 0
	for _, a := range s.accounts {
		if a.User.Role != models.RoleInterpreter {
			continue
		}
		if i >= offset && len(out) < limit {
			out = append(out, cloneAccount(a))
		}
		i++
	}
	return out, nil
}

func (s *FakeInterpreterStore) CountInterpreters(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LookupErr != nil {
		return 0, s.LookupErr
	}
	n := 0
	for _, a := range s.accounts {
		if a.User.Role == models.RoleInterpreter {
			n++
		}
	}
	return n, nil
}

func (s *FakeInterpreterStore) credential(id string) *models.InterpreterAccount {
	for _, a := range s.accounts {
		if a.Credential != nil && a.Credential.ID == id {
			return a
		}
	}
	return nil
}

func (s *FakeInterpreterStore) StampLastLogin(ctx context.Context, credentialID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	a := s.credential(credentialID)
	if a == nil {
		return models.ErrNotFound
	}
	a.Credential.LastLoginAt = &at
	s.Writes++
	return nil
}

func (s *FakeInterpreterStore) CompleteFirstLogin(ctx context.Context, userID, credentialID, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	a := s.credential(credentialID)
	if a == nil || a.User.ID != userID {
		return models.ErrNotFound
	}
	a.User.PasswordHash = passwordHash
	a.Credential.TempPasswordHash = nil
	a.Credential.LoginToken = nil
	a.Credential.TokenExpiry = nil
	a.Credential.FirstLogin = false
	a.Credential.LastLoginAt = &at
	s.Writes++
	return nil
}

func (s *FakeInterpreterStore) IssueCredential(ctx context.Context, profileID, tempPasswordHash, loginToken string, tokenExpiry, at time.Time,
	deliver func(ctx context.Context, cred *models.Credential) error) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}

	var target *models.InterpreterAccount
	for _, a := range s.accounts {
		if a.Profile.ID == profileID {
			target = a
		}
	}
	if target == nil {
		return nil, models.ErrBadRequest
	}

	cred := &models.Credential{ID: "cred-" + profileID, InterpreterID: profileID, CreatedAt: at}
	if target.Credential != nil {
		c := *target.Credential
		cred = &c
	}
	cred.TempPasswordHash = &tempPasswordHash
	cred.LoginToken = &loginToken
	cred.TokenExpiry = &tokenExpiry
	cred.FirstLogin = true
	cred.UpdatedAt = at

	if deliver != nil {
		if err := deliver(ctx, cred); err != nil {
			return nil, err
		}
	}
	target.Credential = cred
	s.Writes++
	c := *cred
	return &c, nil
}

func cloneAccount(a *models.InterpreterAccount) *models.InterpreterAccount {
	u := *a.User
	p := *a.Profile
	out := &models.InterpreterAccount{User: &u, Profile: &p}
	if a.Credential != nil {
		c := *a.Credential
		out.Credential = &c
	}
	return out
}

// MockSessionRevoker implements SessionRevoker for testing
type MockSessionRevoker struct {
	RevokeSessionFunc func(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error
}

func (m *MockSessionRevoker) RevokeSession(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error {
	if m.RevokeSessionFunc != nil {
		return m.RevokeSessionFunc(ctx, jti, userID, expiresAt, reason)
	}
	return nil
}

// MockSessionIssuer implements SessionIssuer for testing
type MockSessionIssuer struct {
	CreateFunc func(payload models.SessionPayload) (string, error)
}

func (m *MockSessionIssuer) CreateSessionCredential(payload models.SessionPayload) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(payload)
	}
	return "session-for-" + payload.UserID, nil
}

func (m *MockSessionIssuer) TTL() time.Duration {
	return 7 * 24 * time.Hour
}

// MockCredentialMailer records every notice it is asked to send
type MockCredentialMailer struct {
	Err  error
	Sent []CredentialNotice
}

func (m *MockCredentialMailer) SendCredentials(ctx context.Context, notice CredentialNotice) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, notice)
	return nil
}

// MockUserLookup implements UserLookup over a fixed set of users
type MockUserLookup struct {
	Users map[string]*models.User // keyed by lower-case e-mail
	Err   error
}

func (m *MockUserLookup) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if u, ok := m.Users[email]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}
