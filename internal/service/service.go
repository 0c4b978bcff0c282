// Package service defines the shared lifecycle contract that every
// long-running component of the process implements, so main can start and
// stop them uniformly.
package service

import (
	"context"
	"sync"
)

// Service is a component that runs for the lifetime of the process once
// started. Start must return once the component has either failed to
// initialize or has launched its background work; it must not block for
// the full lifetime of the component. Implementations call wg.Done() when
// their background work has fully wound down after ctx is canceled.
type Service interface {
	Start(ctx context.Context, wg *sync.WaitGroup) error
}
