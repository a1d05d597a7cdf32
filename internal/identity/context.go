// internal/identity/context.go
package identity

import (
	"context"
)

// ContextKey is a type-safe key for context values
type ContextKey string

const (
	// SubjectContextKey is the key used to store the subject in the context
	SubjectContextKey ContextKey = "identity:subject"
)

// SubjectFromContext extracts the subject from the request context
func SubjectFromContext(ctx context.Context) *Subject {
	if subject, ok := ctx.Value(SubjectContextKey).(*Subject); ok {
		return subject
	}
	return nil
}

// ContextWithSubject adds a subject to a context
func ContextWithSubject(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, SubjectContextKey, subject)
}
