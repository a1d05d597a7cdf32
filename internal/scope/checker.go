// internal/scope/checker.go
package scope

import (
	"context"

	"housegate/internal/accesscache"
	"housegate/internal/assignment"
	"housegate/internal/identity"
	"housegate/internal/observability/logging"
	"housegate/internal/observability/metrics"
)

// Checker verifies that a subject is assigned to a specific house,
// independent of role sufficiency. SuperAdmins bypass the check entirely.
type Checker struct {
	store   assignment.Store
	cache   accesscache.Cache
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewChecker creates a checker over the assignment store and access cache.
// The cache may be nil, in which case every check hits the store.
func NewChecker(store assignment.Store, cache accesscache.Cache, logger *logging.Logger, collector *metrics.Collector) *Checker {
	return &Checker{
		store:   store,
		cache:   cache,
		logger:  logger.WithModule("scope.checker"),
		metrics: collector,
	}
}

// relationFor selects the assignment relation checked for a role
func relationFor(role identity.Role) assignment.Relation {
	if role == identity.RoleAdmin {
		return assignment.RelationAdminOf
	}
	return assignment.RelationResidentOf
}

// Check reports whether the subject is assigned to the house. A store
// failure returns (false, err): the caller must treat it exactly like a
// denial, and the error is surfaced for operational logging.
func (c *Checker) Check(ctx context.Context, subject *identity.Subject, houseID string) (bool, error) {
	// The top role is implicitly assigned to every house
	if subject.Role == identity.RoleSuperAdmin {
		return true, nil
	}

	if c.cache != nil {
		hit, err := c.cache.Get(ctx, subject.ID, houseID)
		if err != nil {
			// A broken cache backend degrades to a store round-trip
			c.logger.Warn("Access cache lookup failed", logging.Err(err))
		} else {
			c.metrics.RecordCacheLookup(hit)
			if hit {
				return true, nil
			}
		}
	}

	granted, err := c.store.HasEdge(ctx, relationFor(subject.Role), subject.ID, houseID)
	if err != nil {
		c.metrics.RecordStoreError("has_edge")
		c.logger.Error("Assignment store check failed",
			logging.Err(err),
			"subject", subject.ID,
			"house", houseID,
		)
		return false, err
	}

	// Only positive results are cached, and only after the read completed,
	// so a canceled request never leaves a partial entry. Negative results
	// must re-check the store next time: an assignment can newly appear.
	if granted && c.cache != nil {
		if err := c.cache.Put(ctx, subject.ID, houseID); err != nil {
			c.logger.Warn("Access cache store failed", logging.Err(err))
		}
	}

	return granted, nil
}
