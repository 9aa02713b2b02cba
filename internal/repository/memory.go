package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/campaign-tracker/internal/model"
)

// table keeps rows in insertion order so listings are stable.
type table[T any] struct {
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] { return &table[T]{rows: make(map[string]T)} }

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) del(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

// MemoryStore implements every store for tests and local development. One
// mutex guards all collections, so the two-document operations are atomic
// exactly like their MySQL transactions.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts *table[model.Account]
	tokens   *table[model.RefreshToken]
	profiles *table[model.UserProfile]
	videos   *table[model.VideoRecord]
	requests *table[model.DeletionRequest]
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: newTable[model.Account](),
		tokens:   newTable[model.RefreshToken](),
		profiles: newTable[model.UserProfile](),
		videos:   newTable[model.VideoRecord](),
		requests: newTable[model.DeletionRequest](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (m *MemoryStore) WithNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Accounts returns the account store view.
func (m *MemoryStore) Accounts() *MemoryAccounts { return &MemoryAccounts{m} }

// Tokens returns the refresh-token store view.
func (m *MemoryStore) Tokens() *MemoryTokens { return &MemoryTokens{m} }

// Profiles returns the profile store view.
func (m *MemoryStore) Profiles() *MemoryProfiles { return &MemoryProfiles{m} }

// Videos returns the video store view.
func (m *MemoryStore) Videos() *MemoryVideos { return &MemoryVideos{m} }

// Deletions returns the deletion-request store view.
func (m *MemoryStore) Deletions() *MemoryDeletions { return &MemoryDeletions{m} }

// MemoryAccounts is the in-memory AccountRepo.
type MemoryAccounts struct{ m *MemoryStore }

func (s *MemoryAccounts) Create(_ context.Context, a model.Account) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a.Email = normalizeEmail(a.Email)
	for _, other := range s.m.accounts.rows {
		if other.Email == a.Email {
			return ErrEmailExists
		}
	}
	a.CreatedAt = s.m.now()
	s.m.accounts.put(a.ID, a)
	return nil
}

func (s *MemoryAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	email = normalizeEmail(email)
	for _, a := range s.m.accounts.rows {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, ErrNotFound
}

func (s *MemoryAccounts) GetByID(_ context.Context, id string) (model.Account, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	a, ok := s.m.accounts.get(id)
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryAccounts) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.m.accounts.del(id) {
		return ErrNotFound
	}
	return nil
}

// MemoryTokens is the in-memory TokenRepo.
type MemoryTokens struct{ m *MemoryStore }

func (s *MemoryTokens) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.tokens.put(tokenHash, model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: s.m.now()})
	return nil
}

func (s *MemoryTokens) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	t, ok := s.m.tokens.get(tokenHash)
	if !ok || t.RevokedAt != nil || s.m.now().After(t.ExpiresAt) {
		return "", ErrNotFound
	}
	return t.UserID, nil
}

func (s *MemoryTokens) RevokeByHash(_ context.Context, tokenHash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if t, ok := s.m.tokens.get(tokenHash); ok && t.RevokedAt == nil {
		now := s.m.now()
		t.RevokedAt = &now
		s.m.tokens.put(tokenHash, t)
	}
	return nil
}

func (s *MemoryTokens) RevokeAllForUser(_ context.Context, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := s.m.now()
	for k, t := range s.m.tokens.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.m.tokens.rows[k] = t
		}
	}
	return nil
}

// MemoryProfiles is the in-memory ProfileRepo.
type MemoryProfiles struct{ m *MemoryStore }

func (s *MemoryProfiles) Get(_ context.Context, uid string) (model.UserProfile, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	p, ok := s.m.profiles.get(uid)
	if !ok {
		return model.UserProfile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryProfiles) CreateIfAbsent(_ context.Context, p model.UserProfile) (model.UserProfile, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if existing, ok := s.m.profiles.get(p.UID); ok {
		return existing, false, nil
	}
	now := s.m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.m.profiles.put(p.UID, p)
	return p, true, nil
}

func (s *MemoryProfiles) List(_ context.Context) ([]model.UserProfile, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return s.m.profiles.all(), nil
}

func (s *MemoryProfiles) CountByRole(_ context.Context, role model.Role) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	n := 0
	for _, p := range s.m.profiles.rows {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *MemoryProfiles) update(uid string, fn func(*model.UserProfile)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.profiles.get(uid)
	if !ok {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = s.m.now()
	s.m.profiles.put(uid, p)
	return nil
}

func (s *MemoryProfiles) SetRole(_ context.Context, uid string, role model.Role, approved bool) error {
	return s.update(uid, func(p *model.UserProfile) { p.Role, p.Approved = role, approved })
}

func (s *MemoryProfiles) SetSuspended(_ context.Context, uid string, suspended bool) error {
	return s.update(uid, func(p *model.UserProfile) { p.Suspended = suspended })
}

func (s *MemoryProfiles) UpdateContact(_ context.Context, uid, name, phone string) error {
	return s.update(uid, func(p *model.UserProfile) { p.Name, p.Phone = name, phone })
}

func (s *MemoryProfiles) Delete(_ context.Context, uid string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.m.profiles.del(uid) {
		return ErrNotFound
	}
	return nil
}

// MemoryVideos is the in-memory VideoRepo.
type MemoryVideos struct{ m *MemoryStore }

func (s *MemoryVideos) Create(_ context.Context, v model.VideoRecord) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.videos.get(v.ID); ok {
		return ErrConflict
	}
	now := s.m.now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.m.videos.put(v.ID, v)
	return nil
}

func (s *MemoryVideos) Get(_ context.Context, id string) (model.VideoRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	v, ok := s.m.videos.get(id)
	if !ok {
		return model.VideoRecord{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryVideos) Update(_ context.Context, id string, f model.VideoFields, ownerGuard string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	v, ok := s.m.videos.get(id)
	if !ok {
		return ErrNotFound
	}
	if ownerGuard != "" && (v.OwnerUID != ownerGuard || v.DeletionPending || v.Payment == model.PaymentDone) {
		return ErrConflict
	}
	v.VideoFields = f
	v.UpdatedAt = s.m.now()
	s.m.videos.put(id, v)
	return nil
}

func (s *MemoryVideos) SetPayment(_ context.Context, id string, p model.PaymentStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	v, ok := s.m.videos.get(id)
	if !ok {
		return ErrNotFound
	}
	v.Payment = p
	v.UpdatedAt = s.m.now()
	s.m.videos.put(id, v)
	return nil
}

func (s *MemoryVideos) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.m.videos.del(id) {
		return ErrNotFound
	}
	for _, d := range s.m.requests.all() {
		if d.VideoID == id {
			s.m.requests.del(d.ID)
		}
	}
	return nil
}

func (s *MemoryVideos) List(_ context.Context, f model.VideoFilter) ([]model.VideoRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []model.VideoRecord
	for _, v := range s.m.videos.all() {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *MemoryVideos) CountByOwner(ctx context.Context, uid string) (int, error) {
	vs, _ := s.List(ctx, model.VideoFilter{OwnerUID: uid})
	return len(vs), nil
}

func (s *MemoryVideos) CountByPayment(ctx context.Context, p model.PaymentStatus) (int, error) {
	vs, _ := s.List(ctx, model.VideoFilter{Payment: p})
	return len(vs), nil
}

// MemoryDeletions is the in-memory DeletionRepo.
type MemoryDeletions struct{ m *MemoryStore }

func (s *MemoryDeletions) Request(_ context.Context, id, videoID, ownerUID string, at time.Time) (model.DeletionRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	v, ok := s.m.videos.get(videoID)
	if !ok {
		return model.DeletionRequest{}, ErrNotFound
	}
	if v.OwnerUID != ownerUID || v.DeletionPending || v.Payment == model.PaymentDone {
		return model.DeletionRequest{}, ErrConflict
	}
	v.DeletionPending = true
	v.UpdatedAt = s.m.now()
	s.m.videos.put(videoID, v)

	d := model.SnapshotOf(v)
	d.ID = id
	d.RequestedAt = at.UTC()
	s.m.requests.put(id, d)
	return d, nil
}

func (s *MemoryDeletions) Get(_ context.Context, id string) (model.DeletionRequest, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	d, ok := s.m.requests.get(id)
	if !ok {
		return model.DeletionRequest{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryDeletions) List(_ context.Context) ([]model.DeletionRequest, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return s.m.requests.all(), nil
}

func (s *MemoryDeletions) Count(_ context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.requests.rows), nil
}

func (s *MemoryDeletions) Approve(_ context.Context, id string) (model.DeletionRequest, error) {
	return s.resolve(id, func(videoID string) { s.m.videos.del(videoID) })
}

func (s *MemoryDeletions) Reject(_ context.Context, id string) (model.DeletionRequest, error) {
	return s.resolve(id, func(videoID string) {
		if v, ok := s.m.videos.get(videoID); ok {
			v.DeletionPending = false
			v.UpdatedAt = s.m.now()
			s.m.videos.put(videoID, v)
		}
	})
}

func (s *MemoryDeletions) resolve(id string, onVideo func(videoID string)) (model.DeletionRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	d, ok := s.m.requests.get(id)
	if !ok {
		return model.DeletionRequest{}, ErrNotFound
	}
	onVideo(d.VideoID)
	s.m.requests.del(id)
	return d, nil
}
