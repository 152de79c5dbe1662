// Package resolve delegates conflict regions that rules could not settle to
// an external reasoning service, under a token budget, and turns the
// service's answers into per-file merge results.
package resolve

import "context"

// Caller is the injected reasoning function. The resolver stays ignorant of
// the underlying service's transport, auth, and retry semantics; a failed or
// cancelled call surfaces as an error.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// CallerFunc adapts a plain function to the Caller interface.
type CallerFunc func(ctx context.Context, prompt string) (string, error)

// Call invokes f.
func (f CallerFunc) Call(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
