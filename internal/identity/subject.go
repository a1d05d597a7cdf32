// internal/identity/subject.go
package identity

// Subject represents the requester for the duration of a single request.
// It is built from session state at resolution time and never persisted.
type Subject struct {
	// ID is the unique identifier for this subject
	ID string

	// Role is the subject's privilege level
	Role Role

	// Authenticated indicates whether the subject presented a valid session
	Authenticated bool
}

// Anonymous returns the subject used for requests without a valid session
func Anonymous() *Subject {
	return &Subject{Role: RoleResident, Authenticated: false}
}
