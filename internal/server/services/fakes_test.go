package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/entries"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/identities"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeIdentitiesRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.Identity
	getErr  error
	tokErr  error
	insErr  error
	updErr  error
	inserts int
	lookups int
}

func newFakeIdentities(records ...*models.Identity) *fakeIdentitiesRepo {
	f := &fakeIdentitiesRepo{byID: make(map[string]*models.Identity)}
	for _, r := range records {
		cp := *r
		cp.Persisted = true
		f.byID[r.ID] = &cp
	}
	return f
}

func (f *fakeIdentitiesRepo) GetByID(_ context.Context, id string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeIdentitiesRepo) GetByInviteToken(_ context.Context, token string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.tokErr != nil {
		return nil, f.tokErr
	}
	for _, r := range f.byID {
		if r.InviteToken == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeIdentitiesRepo) Insert(_ context.Context, identity *models.Identity) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insErr != nil {
		return false, f.insErr
	}
	if _, ok := f.byID[identity.ID]; ok {
		return false, nil
	}
	cp := *identity
	cp.Persisted = true
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byID[identity.ID] = &cp
	f.inserts++
	return true, nil
}

func (f *fakeIdentitiesRepo) UpdateProfile(_ context.Context, id, displayName, email string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updErr != nil {
		return nil, f.updErr
	}
	r, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	r.DisplayName = displayName
	if email != "" {
		r.Email = email
	}
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

type fakeEntriesRepo struct {
	mu      sync.Mutex
	rows    []models.Entry
	base    time.Time
	listErr error
	addErr  error
}

func (f *fakeEntriesRepo) Create(_ context.Context, e *models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if f.base.IsZero() {
		f.base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	e.CreatedAt = f.base.Add(time.Duration(len(f.rows)) * time.Minute)
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeEntriesRepo) ListByRecipient(_ context.Context, recipientID string) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Entry, 0)
	for _, e := range f.rows {
		if e.RecipientID == recipientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntriesRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRepoManager struct {
	ids  *fakeIdentitiesRepo
	ents *fakeEntriesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Identities(dbx.DBTX) identities.Repository    { return m.ids }
func (m *fakeRepoManager) Entries(dbx.DBTX) entries.Repository          { return m.ents }

// seqSource feeds the invite generator a fixed cycle of values.
type seqSource struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func (s *seqSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}
