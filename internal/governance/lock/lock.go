// Package lock provides per-key mutual exclusion for governance operations:
// an in-process keyed lock table and a Redis-backed distributed lock.
package lock

import (
	"context"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
)

// Locker acquires an exclusive lock on key. The returned unlock is safe to
// call more than once. Acquisition fails with sentinel.ErrLockTimeout when the
// lock cannot be taken before ctx ends.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RequestKey is the lock key guarding one voting request.
func RequestKey(requestID id.RequestID) string {
	return "governance:request:" + requestID.String()
}

// SubjectKey is the lock key guarding creation of requests for one subject.
func SubjectKey(t models.RequestType, societyID id.SocietyID, subject models.Subject) string {
	return "governance:subject:" + string(t) + ":" + societyID.String() + ":" + subject.Key()
}
