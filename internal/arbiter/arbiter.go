// internal/arbiter/arbiter.go
package arbiter

import (
	"context"
	"net/http"
	"path"
	"strings"

	"housegate/internal/assignment"
	"housegate/internal/identity"
	"housegate/internal/observability/logging"
	"housegate/internal/observability/metrics"
	"housegate/internal/routes"
	"housegate/internal/scope"
)

// Config holds arbiter configuration
type Config struct {
	// SkipPrefixes are path prefixes that never enter the authorization
	// pipeline (build assets, framework-internal paths)
	SkipPrefixes []string

	// APIPassthroughs are path prefixes explicitly declared as passthroughs
	APIPassthroughs []string

	// SessionCookie is the name of the cookie carrying the session token
	SessionCookie string
}

// DefaultSessionCookie is the session cookie name used when none is configured
const DefaultSessionCookie = "hg_session"

// Arbiter orchestrates route matching, session resolution, role and scope
// checks into a single verdict per request. Every ambiguous or erroneous
// condition resolves to a redirect, never to access.
type Arbiter struct {
	registry      *routes.Registry
	resolver      identity.Resolver
	checker       *scope.Checker
	store         assignment.Store
	skipPrefixes  []string
	passthroughs  []string
	sessionCookie string
	logger        *logging.Logger
	metrics       *metrics.Collector
}

// New creates an arbiter. The registry must already be validated.
func New(cfg Config, registry *routes.Registry, resolver identity.Resolver, checker *scope.Checker, store assignment.Store, logger *logging.Logger, collector *metrics.Collector) *Arbiter {
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return &Arbiter{
		registry:      registry,
		resolver:      resolver,
		checker:       checker,
		store:         store,
		skipPrefixes:  cfg.SkipPrefixes,
		passthroughs:  cfg.APIPassthroughs,
		sessionCookie: cookie,
		logger:        logger.WithModule("arbiter"),
		metrics:       collector,
	}
}

// Decide arbitrates one request: the path and session token in, one verdict
// out. Callers must obey a Redirect verdict unconditionally.
func (a *Arbiter) Decide(ctx context.Context, requestPath, sessionToken string) Verdict {
	verdict, _, _ := a.decide(ctx, requestPath, sessionToken)
	return verdict
}

// decide additionally returns the metrics reason and the resolved subject
// so the middleware can record and propagate them
func (a *Arbiter) decide(ctx context.Context, requestPath, sessionToken string) (Verdict, string, *identity.Subject) {
	// A path must be normalized before it can be matched: a trailing slash,
	// a doubled slash or a dot segment would otherwise miss every template
	// and slip into the unmatched branch
	requestPath = normalizePath(requestPath)

	// Infrastructure paths never enter the pipeline
	if a.isInfrastructurePath(requestPath) {
		return allowed(), metrics.ReasonSkip, nil
	}

	pattern, params, matched := a.registry.Match(requestPath)
	if !matched {
		// Unknown paths are implicitly public: static assets and generated
		// files, not a security boundary
		return allowed(), metrics.ReasonUnmatched, nil
	}
	if pattern.Public {
		return allowed(), metrics.ReasonPublic, nil
	}

	subject, err := a.resolver.Resolve(ctx, sessionToken)
	if err != nil {
		// Session infrastructure failure: fail closed as unauthenticated,
		// logged distinctly from an ordinary anonymous request
		a.logger.Error("Session resolution failed", logging.Err(err), "path", requestPath)
		return redirectTo(routes.LoginWithReturn(requestPath)), metrics.ReasonStoreError, nil
	}
	if subject == nil || !subject.Authenticated {
		return redirectTo(routes.LoginWithReturn(requestPath)), metrics.ReasonUnauthenticated, nil
	}

	if !subject.Role.AtLeast(pattern.MinRole) {
		return redirectTo(pattern.FallbackTarget()), metrics.ReasonRole, subject
	}

	if pattern.ResourceScoped {
		houseID := params[routes.HouseParam]
		if houseID == "" {
			// A scoped pattern without a bound house cannot be verified
			a.logger.Error("Resource-scoped route matched without house binding",
				"route", pattern.Name, "path", requestPath)
			return redirectTo(pattern.FallbackTarget()), metrics.ReasonScope, subject
		}

		granted, err := a.checker.Check(ctx, subject, houseID)
		if err != nil {
			return redirectTo(pattern.FallbackTarget()), metrics.ReasonStoreError, subject
		}
		if !granted {
			return redirectTo(pattern.FallbackTarget()), metrics.ReasonScope, subject
		}
	}

	// The tenant-less entry point is never renderable; it always resolves
	// to a role-specific landing redirect
	if pattern.Template == routes.TargetDashboard {
		return a.resolveLanding(ctx, subject), metrics.ReasonLanding, subject
	}

	return allowed(), metrics.ReasonAuthorized, subject
}

// resolveLanding computes the landing redirect for a subject hitting the
// tenant-less dashboard root. It produces exactly one redirect target.
func (a *Arbiter) resolveLanding(ctx context.Context, subject *identity.Subject) Verdict {
	switch subject.Role {
	case identity.RoleSuperAdmin:
		return redirectTo(routes.TargetGlobalOverview)

	case identity.RoleAdmin:
		houses, err := a.store.AdminOf(ctx, subject.ID)
		if err != nil {
			a.metrics.RecordStoreError("admin_of")
			a.logger.Error("Admin landing lookup failed", logging.Err(err), "subject", subject.ID)
			return redirectTo(routes.TargetAdminOverview)
		}
		if len(houses) > 0 {
			return redirectTo(routes.AdminHouseHome(houses[0]))
		}
		// An admin without houses is not an error; they land on the
		// tenant-less overview
		return redirectTo(routes.TargetAdminOverview)

	default:
		residencies, err := a.store.ResidentOf(ctx, subject.ID)
		if err != nil {
			a.metrics.RecordStoreError("resident_of")
			a.logger.Error("Resident landing lookup failed", logging.Err(err), "subject", subject.ID)
			return redirectTo(routes.TargetNoActiveResidency)
		}
		for _, r := range residencies {
			if r.Active() {
				return redirectTo(routes.HouseHome(r.HouseID))
			}
		}
		return redirectTo(routes.TargetNoActiveResidency)
	}
}

// normalizePath collapses doubled slashes and dot segments and strips a
// non-root trailing slash so that equivalent spellings of a path match the
// same template
func normalizePath(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return path.Clean(requestPath)
}

// isInfrastructurePath reports whether the path bypasses arbitration:
// anything with a file extension, configured asset prefixes, and declared
// API passthroughs
func (a *Arbiter) isInfrastructurePath(requestPath string) bool {
	if path.Ext(requestPath) != "" {
		return true
	}
	for _, prefix := range a.skipPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}
	for _, prefix := range a.passthroughs {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}
	return false
}

// Middleware adapts the arbiter to HTTP: Allow continues down the chain
// with the subject attached to the context, Redirect short-circuits with
// 303 See Other.
func (a *Arbiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.LoggerFromContext(ctx)
		if logger == nil {
			logger = a.logger
		}

		verdict, reason, subject := a.decide(ctx, r.URL.Path, a.sessionToken(r))
		a.metrics.RecordVerdict(verdict.Outcome.String(), reason)

		if !verdict.Allowed() {
			logger.Debug("Request redirected",
				"path", r.URL.Path,
				"target", verdict.Target,
				"reason", reason,
			)
			http.Redirect(w, r, verdict.Target, http.StatusSeeOther)
			return
		}

		if subject != nil && subject.Authenticated {
			ctx = identity.ContextWithSubject(ctx, subject)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// sessionToken extracts the session token from the cookie, falling back to
// a bearer Authorization header for API clients
func (a *Arbiter) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(a.sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const bearerPrefix = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):]
	}
	return ""
}
