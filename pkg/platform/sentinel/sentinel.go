package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: row does not exist
//   - ErrConflict: a uniqueness constraint rejected the write (duplicate vote,
//     second pending request for the same subject)
//   - ErrInvalidState: a conditional update found the row in another state
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrLockTimeout: a per-key lock could not be acquired in time
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrLockTimeout  = errors.New("lock timeout")
)
