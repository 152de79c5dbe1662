package resolve

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// DefaultMaxContextTokens bounds the size of a single resolution context.
const DefaultMaxContextTokens = 8000

// DefaultConcurrency bounds the number of file batches resolved in parallel.
const DefaultConcurrency = 4

// Stats is a snapshot of the resolver's running counters.
type Stats struct {
	Calls  int64
	Tokens int64
}

// Resolver delegates conflicts to an injected reasoning Caller. Its only
// mutable state is the pair of call/token counters, which are atomic so
// parallel file batches can share one Resolver.
type Resolver struct {
	caller           Caller
	maxContextTokens int
	concurrency      int
	onEvent          func(Event)

	calls  atomic.Int64
	tokens atomic.Int64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxContextTokens overrides the token budget for one resolution context.
func WithMaxContextTokens(n int) Option {
	return func(r *Resolver) { r.maxContextTokens = n }
}

// WithConcurrency bounds parallel file-batch resolution. Values below 1 are
// treated as 1.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithEventFunc registers a callback for per-file resolution events. The
// callback may be invoked from multiple goroutines.
func WithEventFunc(fn func(Event)) Option {
	return func(r *Resolver) { r.onEvent = fn }
}

// NewResolver creates a Resolver. caller may be nil; every resolution then
// escalates to human review at zero cost.
func NewResolver(caller Caller, opts ...Option) *Resolver {
	r := &Resolver{
		caller:           caller,
		maxContextTokens: DefaultMaxContextTokens,
		concurrency:      DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCaller replaces the reasoning function.
func (r *Resolver) SetCaller(caller Caller) {
	r.caller = caller
}

// ResetStats zeroes the call and token counters.
func (r *Resolver) ResetStats() {
	r.calls.Store(0)
	r.tokens.Store(0)
}

// Stats returns the current counter values.
func (r *Resolver) Stats() Stats {
	return Stats{Calls: r.calls.Load(), Tokens: r.tokens.Load()}
}

// CanResolve reports whether this resolver is the right owner of a conflict.
// Low-severity regions belong to deterministic auto-merge, and a conflict
// carrying a specific non-AI strategy belongs to whatever implements that
// strategy, so both are declined.
func (r *Resolver) CanResolve(conflict change.ConflictRegion) bool {
	if r.caller == nil {
		return false
	}
	if conflict.Severity == change.SeverityLow {
		return false
	}
	return conflict.MergeStrategy == nil || *conflict.MergeStrategy == change.AIRequired
}

// ResolveConflict resolves a single conflict with one AI call. The token
// budget is enforced before any call is made; a failed call is reported as
// FAILED with the propagated message and does not advance the counters.
func (r *Resolver) ResolveConflict(ctx context.Context, conflict change.ConflictRegion, baselineCode string, snapshots []change.TaskSnapshot) report.MergeResult {
	if r.caller == nil {
		return r.escalate(conflict, "No AI function configured")
	}

	rc := BuildContext(conflict, baselineCode, snapshots)
	if rc.EstimatedTokens > r.maxContextTokens {
		return r.escalate(conflict, fmt.Sprintf("Context too large: %d estimated tokens exceeds budget of %d",
			rc.EstimatedTokens, r.maxContextTokens))
	}

	response, err := r.caller.Call(ctx, buildPrompt(rc))
	if err != nil {
		msg := err.Error()
		return report.MergeResult{
			Decision:           change.DecisionFailed,
			FilePath:           conflict.FilePath,
			ConflictsRemaining: []change.ConflictRegion{conflict},
			Error:              &msg,
		}
	}

	r.calls.Add(1)
	r.tokens.Add(int64(rc.EstimatedTokens))

	body, ok := parseFencedBlock(response)
	if !ok {
		res := r.escalate(conflict, "Could not parse AI response")
		res.AICallsMade = 1
		res.TokensUsed = rc.EstimatedTokens
		return res
	}

	return report.MergeResult{
		Decision:          change.DecisionAIMerged,
		FilePath:          conflict.FilePath,
		MergedContent:     &body,
		ConflictsResolved: []change.ConflictRegion{conflict},
		AICallsMade:       1,
		TokensUsed:        rc.EstimatedTokens,
	}
}

// escalate builds a NEEDS_HUMAN_REVIEW result carrying the explanation.
func (r *Resolver) escalate(conflict change.ConflictRegion, why string) report.MergeResult {
	return report.MergeResult{
		Decision:           change.DecisionNeedsHumanReview,
		FilePath:           conflict.FilePath,
		ConflictsRemaining: []change.ConflictRegion{conflict},
		Error:              &why,
	}
}

// emit sends a resolution event if a callback is registered.
func (r *Resolver) emit(ev Event) {
	if r.onEvent != nil {
		r.onEvent(ev)
	}
}
