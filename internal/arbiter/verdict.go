// internal/arbiter/verdict.go
package arbiter

// Outcome is the result of arbitrating one request
type Outcome int

const (
	// Allow indicates the caller may proceed to render
	Allow Outcome = iota
	// Redirect indicates the caller must not render and must issue the redirect
	Redirect
)

// String returns the outcome label used in metrics
func (o Outcome) String() string {
	if o == Allow {
		return "allow"
	}
	return "redirect"
}

// Verdict is the per-request authorization decision. It is computed fresh
// for every request and never persisted.
type Verdict struct {
	// Outcome is Allow or Redirect
	Outcome Outcome

	// Target is the redirect target; empty for Allow
	Target string
}

// Allowed reports whether the request may proceed
func (v Verdict) Allowed() bool {
	return v.Outcome == Allow
}

// allowed is the verdict that lets the request through
func allowed() Verdict {
	return Verdict{Outcome: Allow}
}

// redirectTo builds a deny-with-redirect verdict
func redirectTo(target string) Verdict {
	return Verdict{Outcome: Redirect, Target: target}
}
