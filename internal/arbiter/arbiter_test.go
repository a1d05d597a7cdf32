package arbiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housegate/internal/accesscache"
	"housegate/internal/assignment"
	"housegate/internal/identity"
	"housegate/internal/observability/logging"
	"housegate/internal/observability/metrics"
	"housegate/internal/routes"
	"housegate/internal/scope"
)

// fakeStore is an in-memory assignment store with call counting
type fakeStore struct {
	adminEdges    map[string][]string
	residentEdges map[string][]assignment.Residency
	failing       bool
	hasEdgeCalls  int
}

func (s *fakeStore) HasEdge(_ context.Context, relation assignment.Relation, subjectID, houseID string) (bool, error) {
	s.hasEdgeCalls++
	if s.failing {
		return false, assignment.ErrStoreUnavailable
	}
	switch relation {
	case assignment.RelationAdminOf:
		for _, h := range s.adminEdges[subjectID] {
			if h == houseID {
				return true, nil
			}
		}
	case assignment.RelationResidentOf:
		for _, r := range s.residentEdges[subjectID] {
			if r.HouseID == houseID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *fakeStore) AdminOf(_ context.Context, subjectID string) ([]string, error) {
	if s.failing {
		return nil, assignment.ErrStoreUnavailable
	}
	return s.adminEdges[subjectID], nil
}

func (s *fakeStore) ResidentOf(_ context.Context, subjectID string) ([]assignment.Residency, error) {
	if s.failing {
		return nil, assignment.ErrStoreUnavailable
	}
	return s.residentEdges[subjectID], nil
}

// fakeResolver maps opaque tokens to subjects
type fakeResolver struct {
	subjects map[string]*identity.Subject
	err      error
}

func (r *fakeResolver) Resolve(_ context.Context, token string) (*identity.Subject, error) {
	if r.err != nil {
		return nil, r.err
	}
	if subject, ok := r.subjects[token]; ok {
		return subject, nil
	}
	return identity.Anonymous(), nil
}

func testRegistry(t *testing.T) *routes.Registry {
	t.Helper()
	registry, err := routes.NewRegistry([]routes.Pattern{
		{Name: "login", Template: "/login", Public: true},
		{Name: "dashboard-root", Template: "/dashboard"},
		{Name: "house-dashboard", Template: "/dashboard/{houseId}", ResourceScoped: true},
		{Name: "house-billing", Template: "/dashboard/{houseId}/billing", ResourceScoped: true},
		{Name: "admin-overview", Template: "/admin", MinRole: identity.RoleAdmin},
		{Name: "global-overview", Template: "/admin/overview", MinRole: identity.RoleSuperAdmin, Fallback: "/admin"},
		{Name: "admin-house", Template: "/admin/{houseId}", MinRole: identity.RoleAdmin, ResourceScoped: true, Fallback: "/admin"},
	})
	require.NoError(t, err)
	return registry
}

type fixture struct {
	arbiter  *Arbiter
	store    *fakeStore
	resolver *fakeResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, err := logging.NewLogger("error")
	require.NoError(t, err)

	store := &fakeStore{
		adminEdges: map[string][]string{
			"admin-1": {"house-7"},
		},
		residentEdges: map[string][]assignment.Residency{
			"user-1": {{HouseID: "house-42", Status: assignment.StatusActive}},
			"user-2": {{HouseID: "house-5", Status: "ended"}},
		},
	}
	resolver := &fakeResolver{subjects: map[string]*identity.Subject{
		"tok-resident":   {ID: "user-1", Role: identity.RoleResident, Authenticated: true},
		"tok-ended":      {ID: "user-2", Role: identity.RoleResident, Authenticated: true},
		"tok-admin":      {ID: "admin-1", Role: identity.RoleAdmin, Authenticated: true},
		"tok-lone-admin": {ID: "admin-2", Role: identity.RoleAdmin, Authenticated: true},
		"tok-super":      {ID: "root-1", Role: identity.RoleSuperAdmin, Authenticated: true},
	}}

	collector := metrics.NewCollector()
	checker := scope.NewChecker(store, accesscache.NewMemoryCache(64, time.Minute), logger, collector)
	arb := New(Config{
		SkipPrefixes:    []string{"/static/", "/assets/"},
		APIPassthroughs: []string{"/api/webhooks/"},
	}, testRegistry(t), resolver, checker, store, logger, collector)

	return &fixture{arbiter: arb, store: store, resolver: resolver}
}

func TestArbiter_InfrastructurePathsBypass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, path := range []string{
		"/static/app.js",
		"/assets/logo",
		"/favicon.ico",
		"/dashboard/report.pdf",
		"/api/webhooks/billing",
	} {
		verdict := f.arbiter.Decide(ctx, path, "")
		assert.Truef(t, verdict.Allowed(), "path %s must bypass arbitration", path)
	}
}

func TestArbiter_PathVariantsNormalizeBeforeMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Every spelling of a protected path must hit the same template; none may
	// fall through to the implicitly-public branch
	variants := []string{
		"/dashboard/house-99/billing/",
		"/dashboard//house-99/billing",
		"/dashboard/house-99//billing/",
		"/dashboard/./house-99/billing",
		"/admin/../dashboard/house-99/billing",
	}

	t.Run("unauthenticated requests are sent to login", func(t *testing.T) {
		for _, p := range variants {
			verdict := f.arbiter.Decide(ctx, p, "")
			require.Falsef(t, verdict.Allowed(), "path %s must not be allowed", p)

			target, err := url.Parse(verdict.Target)
			require.NoError(t, err)
			assert.Equalf(t, routes.TargetLogin, target.Path, "path %s", p)
		}
	})

	t.Run("residents without an edge are redirected", func(t *testing.T) {
		for _, p := range variants {
			verdict := f.arbiter.Decide(ctx, p, "tok-resident")
			require.Falsef(t, verdict.Allowed(), "path %s must not be allowed", p)
			assert.Equalf(t, routes.TargetDashboard, verdict.Target, "path %s", p)
		}
	})

	t.Run("authorized residents still get through", func(t *testing.T) {
		verdict := f.arbiter.Decide(ctx, "/dashboard/house-42/billing/", "tok-resident")
		assert.True(t, verdict.Allowed())
	})
}

func TestArbiter_MiddlewareNormalizesTheRequestPath(t *testing.T) {
	f := newFixture(t)

	nextCalled := false
	handler := f.arbiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	// No session at all; a trailing slash must not open the route
	req := httptest.NewRequest("GET", "/dashboard/house-99/billing/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.False(t, nextCalled)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestArbiter_UnmatchedPathIsImplicitlyPublic(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/pricing", "")
	assert.True(t, verdict.Allowed())
}

func TestArbiter_PublicRoute(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/login", "")
	assert.True(t, verdict.Allowed())
}

func TestArbiter_UnauthenticatedRedirectsToLoginWithReturnPath(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-42/billing", "")
	require.False(t, verdict.Allowed())

	target, err := url.Parse(verdict.Target)
	require.NoError(t, err)
	assert.Equal(t, routes.TargetLogin, target.Path)
	assert.Equal(t, "/dashboard/house-42/billing", target.Query().Get(routes.ReturnParam))
}

func TestArbiter_ResidentWithEdgeIsAllowed(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-42/billing", "tok-resident")
	assert.True(t, verdict.Allowed())
}

func TestArbiter_ResidentWithoutEdgeIsRedirected(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-99/billing", "tok-resident")
	require.False(t, verdict.Allowed())
	assert.Equal(t, routes.TargetDashboard, verdict.Target)
}

func TestArbiter_InsufficientRoleRedirectsToFallback(t *testing.T) {
	f := newFixture(t)

	// Resident hitting an admin route lands on the route's fallback
	verdict := f.arbiter.Decide(context.Background(), "/admin/house-7", "tok-resident")
	require.False(t, verdict.Allowed())
	assert.Equal(t, "/admin", verdict.Target)

	// Admin hitting the superadmin overview likewise
	verdict = f.arbiter.Decide(context.Background(), "/admin/overview", "tok-admin")
	require.False(t, verdict.Allowed())
	assert.Equal(t, "/admin", verdict.Target)
}

func TestArbiter_SuperAdminBypassesScopeCheck(t *testing.T) {
	f := newFixture(t)

	// No stored edge anywhere for root-1
	verdict := f.arbiter.Decide(context.Background(), "/admin/house-999", "tok-super")
	assert.True(t, verdict.Allowed())
	assert.Zero(t, f.store.hasEdgeCalls)
}

func TestArbiter_StoreErrorFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.store.failing = true

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-42/billing", "tok-resident")
	require.False(t, verdict.Allowed())
	assert.Equal(t, routes.TargetDashboard, verdict.Target)
}

func TestArbiter_SessionFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.New("session store down")

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-42", "tok-resident")
	require.False(t, verdict.Allowed())

	target, err := url.Parse(verdict.Target)
	require.NoError(t, err)
	assert.Equal(t, routes.TargetLogin, target.Path)
}

func TestArbiter_LandingResolution(t *testing.T) {
	t.Run("resident with active residency", func(t *testing.T) {
		f := newFixture(t)

		// Deterministic regardless of how often it runs
		for i := 0; i < 5; i++ {
			verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-resident")
			require.False(t, verdict.Allowed())
			assert.Equal(t, routes.HouseHome("house-42"), verdict.Target)
		}
	})

	t.Run("resident with only ended residencies", func(t *testing.T) {
		f := newFixture(t)

		verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-ended")
		require.False(t, verdict.Allowed())
		assert.Equal(t, routes.TargetNoActiveResidency, verdict.Target)
	})

	t.Run("admin with houses", func(t *testing.T) {
		f := newFixture(t)

		verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-admin")
		require.False(t, verdict.Allowed())
		assert.Equal(t, routes.AdminHouseHome("house-7"), verdict.Target)
	})

	t.Run("admin without houses lands on the overview", func(t *testing.T) {
		f := newFixture(t)

		verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-lone-admin")
		require.False(t, verdict.Allowed())
		assert.Equal(t, routes.TargetAdminOverview, verdict.Target)
	})

	t.Run("superadmin lands on the global overview", func(t *testing.T) {
		f := newFixture(t)

		verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-super")
		require.False(t, verdict.Allowed())
		assert.Equal(t, routes.TargetGlobalOverview, verdict.Target)
	})

	t.Run("store failure lands residents on the informational route", func(t *testing.T) {
		f := newFixture(t)
		f.store.failing = true

		verdict := f.arbiter.Decide(context.Background(), "/dashboard", "tok-resident")
		require.False(t, verdict.Allowed())
		assert.Equal(t, routes.TargetNoActiveResidency, verdict.Target)
	})
}

func TestArbiter_CacheSuppressesSecondStoreCall(t *testing.T) {
	f := newFixture(t)

	verdict := f.arbiter.Decide(context.Background(), "/dashboard/house-42/billing", "tok-resident")
	require.True(t, verdict.Allowed())
	require.Equal(t, 1, f.store.hasEdgeCalls)

	verdict = f.arbiter.Decide(context.Background(), "/dashboard/house-42/billing", "tok-resident")
	require.True(t, verdict.Allowed())
	assert.Equal(t, 1, f.store.hasEdgeCalls)
}

func TestArbiter_Middleware(t *testing.T) {
	t.Run("redirect short-circuits the chain", func(t *testing.T) {
		f := newFixture(t)

		nextCalled := false
		handler := f.arbiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
		}))

		req := httptest.NewRequest("GET", "/dashboard/house-99/billing", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "tok-resident"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, routes.TargetDashboard, rec.Header().Get("Location"))
	})

	t.Run("allow attaches the subject and continues", func(t *testing.T) {
		f := newFixture(t)

		var seen *identity.Subject
		handler := f.arbiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = identity.SubjectFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/dashboard/house-42/billing", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: "tok-resident"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.ID)
	})

	t.Run("bearer header works for API clients", func(t *testing.T) {
		f := newFixture(t)

		handler := f.arbiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/dashboard/house-42", nil)
		req.Header.Set("Authorization", "Bearer tok-resident")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
