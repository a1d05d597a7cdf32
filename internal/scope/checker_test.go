package scope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housegate/internal/accesscache"
	"housegate/internal/assignment"
	"housegate/internal/identity"
	"housegate/internal/observability/logging"
	"housegate/internal/observability/metrics"
)

// fakeStore counts calls so tests can assert which paths hit the store
type fakeStore struct {
	edges        map[string]bool
	err          error
	hasEdgeCalls int
	lastRelation assignment.Relation
}

func (s *fakeStore) HasEdge(_ context.Context, relation assignment.Relation, subjectID, houseID string) (bool, error) {
	s.hasEdgeCalls++
	s.lastRelation = relation
	if s.err != nil {
		return false, s.err
	}
	return s.edges[string(relation)+"|"+subjectID+"|"+houseID], nil
}

func (s *fakeStore) AdminOf(context.Context, string) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) ResidentOf(context.Context, string) ([]assignment.Residency, error) {
	return nil, nil
}

func edge(relation assignment.Relation, subjectID, houseID string) string {
	return string(relation) + "|" + subjectID + "|" + houseID
}

func newTestChecker(t *testing.T, store assignment.Store, cache accesscache.Cache) *Checker {
	t.Helper()
	logger, err := logging.NewLogger("error")
	require.NoError(t, err)
	return NewChecker(store, cache, logger, metrics.NewCollector())
}

func TestChecker_SuperAdminBypassesStore(t *testing.T) {
	store := &fakeStore{}
	checker := newTestChecker(t, store, accesscache.NewMemoryCache(16, time.Minute))

	superAdmin := &identity.Subject{ID: "root-1", Role: identity.RoleSuperAdmin, Authenticated: true}

	for _, houseID := range []string{"house-1", "house-2", "house-3"} {
		granted, err := checker.Check(context.Background(), superAdmin, houseID)
		require.NoError(t, err)
		assert.True(t, granted)
	}

	assert.Zero(t, store.hasEdgeCalls, "superadmin must never reach the store")
}

func TestChecker_RelationSelectedByRole(t *testing.T) {
	t.Run("admin checks admin_of", func(t *testing.T) {
		store := &fakeStore{edges: map[string]bool{
			edge(assignment.RelationAdminOf, "admin-1", "house-42"): true,
		}}
		checker := newTestChecker(t, store, nil)

		admin := &identity.Subject{ID: "admin-1", Role: identity.RoleAdmin, Authenticated: true}
		granted, err := checker.Check(context.Background(), admin, "house-42")
		require.NoError(t, err)
		assert.True(t, granted)
		assert.Equal(t, assignment.RelationAdminOf, store.lastRelation)
	})

	t.Run("resident checks resident_of", func(t *testing.T) {
		store := &fakeStore{edges: map[string]bool{
			edge(assignment.RelationResidentOf, "user-1", "house-42"): true,
		}}
		checker := newTestChecker(t, store, nil)

		resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}
		granted, err := checker.Check(context.Background(), resident, "house-42")
		require.NoError(t, err)
		assert.True(t, granted)
		assert.Equal(t, assignment.RelationResidentOf, store.lastRelation)
	})
}

func TestChecker_CacheHitSuppressesStore(t *testing.T) {
	store := &fakeStore{edges: map[string]bool{
		edge(assignment.RelationResidentOf, "user-1", "house-42"): true,
	}}
	checker := newTestChecker(t, store, accesscache.NewMemoryCache(16, time.Minute))

	resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}

	granted, err := checker.Check(context.Background(), resident, "house-42")
	require.NoError(t, err)
	require.True(t, granted)
	require.Equal(t, 1, store.hasEdgeCalls)

	// Second check within TTL must be served from the cache
	granted, err = checker.Check(context.Background(), resident, "house-42")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, store.hasEdgeCalls, "cached grant must not re-hit the store")
}

func TestChecker_NegativeResultsAreNotCached(t *testing.T) {
	store := &fakeStore{edges: map[string]bool{}}
	cache := accesscache.NewMemoryCache(16, time.Minute)
	checker := newTestChecker(t, store, cache)

	resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}

	granted, err := checker.Check(context.Background(), resident, "house-99")
	require.NoError(t, err)
	require.False(t, granted)

	hit, err := cache.Get(context.Background(), "user-1", "house-99")
	require.NoError(t, err)
	assert.False(t, hit, "a denial must stay a cache miss")

	// The next check re-consults the store: the assignment may have
	// appeared in the meantime
	store.edges[edge(assignment.RelationResidentOf, "user-1", "house-99")] = true
	granted, err = checker.Check(context.Background(), resident, "house-99")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 2, store.hasEdgeCalls)
}

func TestChecker_StoreErrorFailsClosed(t *testing.T) {
	store := &fakeStore{err: assignment.ErrStoreUnavailable}
	cache := accesscache.NewMemoryCache(16, time.Minute)
	checker := newTestChecker(t, store, cache)

	resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}

	granted, err := checker.Check(context.Background(), resident, "house-42")
	assert.False(t, granted)
	assert.ErrorIs(t, err, assignment.ErrStoreUnavailable)

	// The failure must not poison the cache
	hit, err := cache.Get(context.Background(), "user-1", "house-42")
	require.NoError(t, err)
	assert.False(t, hit)
}

// failingCache exercises degradation when the cache backend is down
type failingCache struct{}

func (failingCache) Get(context.Context, string, string) (bool, error) {
	return false, errors.New("cache backend down")
}

func (failingCache) Put(context.Context, string, string) error {
	return errors.New("cache backend down")
}

func TestChecker_CacheFailureFallsThroughToStore(t *testing.T) {
	store := &fakeStore{edges: map[string]bool{
		edge(assignment.RelationResidentOf, "user-1", "house-42"): true,
	}}
	checker := newTestChecker(t, store, failingCache{})

	resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}

	granted, err := checker.Check(context.Background(), resident, "house-42")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, store.hasEdgeCalls)
}

func TestChecker_NilCache(t *testing.T) {
	store := &fakeStore{edges: map[string]bool{
		edge(assignment.RelationResidentOf, "user-1", "house-42"): true,
	}}
	checker := newTestChecker(t, store, nil)

	resident := &identity.Subject{ID: "user-1", Role: identity.RoleResident, Authenticated: true}

	granted, err := checker.Check(context.Background(), resident, "house-42")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = checker.Check(context.Background(), resident, "house-42")
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 2, store.hasEdgeCalls, "without a cache every check hits the store")
}
