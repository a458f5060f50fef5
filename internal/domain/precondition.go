package domain

import "context"

// Precondition is an environment check run before the first real page
// transition. Check returns a *PreconditionError on failure.
type Precondition interface {
	Name() string
	Check(ctx context.Context) error
}
