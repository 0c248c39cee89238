// Package checkpoint stores per-thread session state between turns. Two
// implementations exist: an in-process store for tests and local runs, and a
// Redis-backed store for deployments where instances come and go.
package checkpoint

import (
	"context"

	"academy-agent/internal/domain"
)

// Store loads and saves session state keyed by thread id. Implementations
// must keep distinct thread ids fully isolated.
type Store interface {
	Load(ctx context.Context, threadID string) (domain.Session, bool, error)
	Save(ctx context.Context, sess domain.Session) error
}
