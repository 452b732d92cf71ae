package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/repository"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/mail"
)

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	linked   map[string]string
	lastSeen map[string]time.Time
	revoked  []string
	err      error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:    map[string]*models.User{},
		tokens:   map[string]*models.RefreshToken{},
		linked:   map[string]string{},
		lastSeen: map[string]time.Time{},
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context) (map[models.UserRole]int, error) {
	out := map[models.UserRole]int{}
	for _, u := range r.users {
		if u.Active {
			out[u.Role]++
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.lastSeen[id] = ts
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.users[id].PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) LinkProvider(ctx context.Context, id, provider, subject string) error {
	r.linked[id] = provider + ":" + subject
	return nil
}

func (r *fakeUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	if t, ok := r.tokens[tokenHash]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID == id {
			if t.Revoked {
				return false, nil
			}
			t.Revoked = true
			t.RevokedAt = &revokedAt
			r.revoked = append(r.revoked, id)
			return true, nil
		}
	}
	return false, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (a *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeOTPStore struct {
	codes map[string]string
}

func (s *fakeOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[email] = code
	return nil
}

func (s *fakeOTPStore) Verify(ctx context.Context, email, code string) (int, error) {
	stored, ok := s.codes[email]
	if !ok {
		return repository.OTPMissing, nil
	}
	if stored != code {
		return repository.OTPMismatch, nil
	}
	delete(s.codes, email)
	return repository.OTPValid, nil
}

type fakeMailSender struct {
	sent []mail.Message
}

func (m *fakeMailSender) Dispatch(msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return errors.New("connection refused")
	}
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.items, key)
		}
	}
	return nil
}
