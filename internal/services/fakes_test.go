// internal/services/fakes_test.go
package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
)

// In-memory stores used across the service tests. InsertIfAbsent serializes
// on a mutex, matching the atomic insert-if-absent contract of the real
// stores.

type memLicenseStore struct {
	mtx       sync.Mutex
	byKey     map[string]*models.License
	byID      map[uuid.UUID]*models.License
	failInsrt int // duplicate-collision injections remaining
	inserts   int
	lookups   int
}

func newMemLicenseStore() *memLicenseStore {
	return &memLicenseStore{
		byKey: make(map[string]*models.License),
		byID:  make(map[uuid.UUID]*models.License),
	}
}

func (s *memLicenseStore) InsertIfAbsent(ctx context.Context, license *models.License) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.inserts++
	if s.failInsrt > 0 {
		s.failInsrt--
		return store.ErrDuplicateKey
	}
	if _, exists := s.byKey[license.LicenseKey]; exists {
		return store.ErrDuplicateKey
	}
	if license.ID == uuid.Nil {
		license.ID = uuid.New()
	}
	clone := *license
	s.byKey[license.LicenseKey] = &clone
	s.byID[license.ID] = &clone
	return nil
}

func (s *memLicenseStore) GetByKey(ctx context.Context, key string) (*models.License, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lookups++
	license, ok := s.byKey[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *license
	return &clone, nil
}

func (s *memLicenseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lookups++
	license, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *license
	return &clone, nil
}

func (s *memLicenseStore) Update(ctx context.Context, license *models.License) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	clone := *license
	s.byKey[license.LicenseKey] = &clone
	s.byID[license.ID] = &clone
	return nil
}

func (s *memLicenseStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.License, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var out []models.License
	for _, l := range s.byKey {
		if l.OwnerID != nil && *l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *memLicenseStore) List(ctx context.Context, offset, limit int) ([]models.License, int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var out []models.License
	for _, l := range s.byKey {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

type memTokenStore struct {
	mtx     sync.Mutex
	byToken map[string]*models.AuthToken
	lookups int
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{byToken: make(map[string]*models.AuthToken)}
}

func (s *memTokenStore) InsertIfAbsent(ctx context.Context, token *models.AuthToken) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.byToken[token.Token]; exists {
		return store.ErrDuplicateKey
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	clone := *token
	s.byToken[token.Token] = &clone
	return nil
}

func (s *memTokenStore) GetByToken(ctx context.Context, token string) (*models.AuthToken, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lookups++
	record, ok := s.byToken[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *memTokenStore) Update(ctx context.Context, token *models.AuthToken) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	clone := *token
	s.byToken[token.Token] = &clone
	return nil
}

func (s *memTokenStore) ListByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.AuthToken, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var out []models.AuthToken
	for _, t := range s.byToken {
		if t.LicenseID == licenseID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memTokenStore) List(ctx context.Context, offset, limit int) ([]models.AuthToken, int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var out []models.AuthToken
	for _, t := range s.byToken {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

type memUserStore struct {
	mtx     sync.Mutex
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *memUserStore) InsertIfAbsent(ctx context.Context, user *models.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrDuplicateKey
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	s.byEmail[user.Email] = &clone
	s.byID[user.ID] = &clone
	return nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
