package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ayse = models.Viewer{ID: "u-ayse", Email: "ayse@istun.edu.tr", DisplayName: "Ayşe", EmailVerified: true}

func newIdentityService(t *testing.T, ids *fakeIdentitiesRepo, src invite.Source) (*IdentityService, func() error) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	s := NewIdentityService(db, &fakeRepoManager{ids: ids, ents: &fakeEntriesRepo{}}, invite.NewGenerator(src), logging.Discard())
	return s, mock.ExpectationsWereMet
}

func TestEnsure_CreatesOnceAndIsIdempotent(t *testing.T) {
	ids := newFakeIdentities()
	db, mock := newSQLMockDB(t)
	s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(nil), logging.Discard())

	mock.ExpectBegin()
	mock.ExpectCommit()

	first, err := s.Ensure(context.Background(), ayse)
	require.NoError(t, err)
	assert.True(t, first.Persisted)
	assert.Regexp(t, `^[0-9a-z]{26}$`, first.InviteToken)
	assert.Equal(t, "Ayşe", first.DisplayName)

	second, err := s.Ensure(context.Background(), ayse)
	require.NoError(t, err)
	assert.Equal(t, first.InviteToken, second.InviteToken)
	assert.Equal(t, 1, ids.inserts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsure_ExistingRecordUntouched(t *testing.T) {
	ids := newFakeIdentities(&models.Identity{ID: ayse.ID, Email: ayse.Email, InviteToken: "abc123"})
	s, met := newIdentityService(t, ids, nil)

	got, err := s.Ensure(context.Background(), ayse)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.InviteToken)
	assert.Equal(t, 0, ids.inserts)
	require.NoError(t, met())
}

func TestEnsure_DisplayNameFallsBackToEmail(t *testing.T) {
	ids := newFakeIdentities()
	db, mock := newSQLMockDB(t)
	s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(nil), logging.Discard())
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Ensure(context.Background(), models.Viewer{ID: "u2", Email: "mehmet@istun.edu.tr", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "mehmet", got.DisplayName)
}

func TestEnsure_RegeneratesOnCollision(t *testing.T) {
	taken := strings.Repeat("0", invite.TokenLength)
	ids := newFakeIdentities(&models.Identity{ID: "someone-else", InviteToken: taken})

	// first token is all zeros, the second starts with '1'
	vals := make([]int, invite.TokenLength+1)
	vals[invite.TokenLength] = 1
	db, mock := newSQLMockDB(t)
	s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(&seqSource{vals: vals}), logging.Discard())
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := s.Ensure(context.Background(), ayse)
	require.NoError(t, err)
	assert.NotEqual(t, taken, got.InviteToken)
	assert.True(t, strings.HasPrefix(got.InviteToken, "1"))
	assert.Equal(t, 2, ids.lookups)
}

func TestEnsure_GivesUpAfterRepeatedCollisions(t *testing.T) {
	taken := strings.Repeat("0", invite.TokenLength)
	ids := newFakeIdentities(&models.Identity{ID: "someone-else", InviteToken: taken})
	db, mock := newSQLMockDB(t)
	s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(&seqSource{vals: []int{0}}), logging.Discard())
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Ensure(context.Background(), ayse)
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Equal(t, tokenAttempts, ids.lookups)
	assert.Equal(t, 0, ids.inserts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsure_StoreErrors(t *testing.T) {
	t.Run("lookup fails", func(t *testing.T) {
		ids := newFakeIdentities()
		ids.getErr = errors.New("db error: connection refused")
		s, met := newIdentityService(t, ids, nil)

		_, err := s.Ensure(context.Background(), ayse)
		require.ErrorIs(t, err, common.ErrStoreUnavailable)
		require.NoError(t, met())
	})

	t.Run("insert fails", func(t *testing.T) {
		ids := newFakeIdentities()
		ids.insErr = errors.New("db error: read-only")
		db, mock := newSQLMockDB(t)
		s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(nil), logging.Discard())
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := s.Ensure(context.Background(), ayse)
		require.ErrorIs(t, err, common.ErrStoreUnavailable)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		ids := newFakeIdentities()
		db, mock := newSQLMockDB(t)
		s := NewIdentityService(db, &fakeRepoManager{ids: ids}, invite.NewGenerator(nil), logging.Discard())
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		_, err := s.Ensure(context.Background(), ayse)
		require.ErrorIs(t, err, common.ErrStoreUnavailable)
	})
}

func TestResolve(t *testing.T) {
	ids := newFakeIdentities(&models.Identity{ID: "r1", Email: "r@istun.edu.tr", InviteToken: "abc123"})
	s, _ := newIdentityService(t, ids, nil)

	got, err := s.Resolve(context.Background(), " abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = s.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ids.tokErr = errors.New("db error: timeout")
	_, err = s.Resolve(context.Background(), "abc123")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestUpdateProfile(t *testing.T) {
	ids := newFakeIdentities(&models.Identity{ID: ayse.ID, Email: ayse.Email, DisplayName: "Ayşe", InviteToken: "abc123"})
	s, _ := newIdentityService(t, ids, nil)

	got, err := s.UpdateProfile(context.Background(), ayse, " Ayşe Y. ", "")
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Y.", got.DisplayName)
	assert.Equal(t, ayse.Email, got.Email)
	assert.Equal(t, "abc123", got.InviteToken)

	got, err = s.UpdateProfile(context.Background(), ayse, "Ayşe", "ayse.y@istun.edu.tr")
	require.NoError(t, err)
	assert.Equal(t, "ayse.y@istun.edu.tr", got.Email)
	assert.Equal(t, "abc123", got.InviteToken)

	_, err = s.UpdateProfile(context.Background(), ayse, "   ", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.UpdateProfile(context.Background(), ayse, "Ayşe", "not-an-email")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.UpdateProfile(context.Background(), models.Viewer{ID: "ghost"}, "Ghost", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
