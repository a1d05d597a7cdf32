// internal/assignment/store.go
package assignment

import (
	"context"
	"errors"
)

// Relation names the edge kind between a subject and a house
type Relation string

const (
	// RelationAdminOf links an admin subject to a house they manage
	RelationAdminOf Relation = "admin_of"

	// RelationResidentOf links a resident subject to a house they live in
	RelationResidentOf Relation = "resident_of"
)

// StatusActive is the residency status that counts for landing resolution
const StatusActive = "active"

// ErrStoreUnavailable wraps infrastructure failures of the assignment store.
// Callers must fail closed on it and log it distinctly from a plain denial.
var ErrStoreUnavailable = errors.New("assignment store unavailable")

// Residency is one resident_of edge with its status
type Residency struct {
	HouseID string
	Status  string
}

// Active reports whether the residency counts for landing resolution
func (r Residency) Active() bool {
	return r.Status == StatusActive
}

// Store reads subject-to-house assignments. The store is owned externally;
// this subsystem only ever reads it.
type Store interface {
	// HasEdge reports whether an edge (subjectID, houseID) exists in the
	// given relation. A missing edge is (false, nil), not an error.
	HasEdge(ctx context.Context, relation Relation, subjectID, houseID string) (bool, error)

	// AdminOf returns the house IDs the subject administers
	AdminOf(ctx context.Context, subjectID string) ([]string, error)

	// ResidentOf returns the subject's residencies with their status
	ResidentOf(ctx context.Context, subjectID string) ([]Residency, error)
}
