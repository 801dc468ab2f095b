// Package queue implements the append-only log of locally-originated
// changes awaiting upload. Each mutation is tagged with a client-generated
// offline id acting as its idempotency key.
package queue

import (
	"context"

	"github.com/dkrasnovs/fieldsync/internal/client/models"
)

// DefaultRetryCeiling is how many failed upload attempts a mutation gets
// before it is marked failed-terminal and surfaced for manual resolution.
const DefaultRetryCeiling = 5

// Queue describes the mutation queue. Mutations are removed only on
// confirmed remote success and are never silently dropped.
type Queue interface {
	// Enqueue records a mutation. Idempotent: a mutation with the same
	// offline id is replaced in place, so two offline edits of one entity
	// collapse to the latest snapshot under one idempotency key. The
	// original clientCreatedAt is preserved and a replaced CREATE stays a
	// CREATE. Replacing also clears any failed-terminal state, since an
	// edit is exactly the manual resolution a terminal mutation waits for.
	Enqueue(ctx context.Context, m models.Mutation) error

	// DequeueConfirmed removes a mutation after the remote confirmed it.
	DequeueConfirmed(ctx context.Context, offlineID string) error

	// ListPending returns non-terminal mutations ordered by clientCreatedAt
	// ascending, so uploads replay in creation order.
	ListPending(ctx context.Context) ([]models.Mutation, error)

	// ListFailed returns failed-terminal mutations awaiting user action.
	ListFailed(ctx context.Context) ([]models.Mutation, error)

	// IncrementRetry bumps the retry count and records the last error,
	// marking the mutation failed-terminal once it reaches the ceiling.
	IncrementRetry(ctx context.Context, offlineID string, lastError string) error

	// Retry is the user acknowledging a failed-terminal mutation: its retry
	// state is reset and it rejoins automatic uploads.
	Retry(ctx context.Context, offlineID string) error

	// PendingCount and FailedCount keep the queue observable.
	PendingCount(ctx context.Context) (int, error)
	FailedCount(ctx context.Context) (int, error)
}
