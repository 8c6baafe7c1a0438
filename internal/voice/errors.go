package voice

import (
	"errors"
	"fmt"
)

// Error taxonomy for a voice session. Every failure a session can hit is
// recovered at the orchestrator boundary and classified under one of these
// sentinels so the command layer can turn it into a short user-facing
// message; none of them may terminate the hosting process.
var (
	// ErrQuotaExceeded means the requester has used up today's session
	// budget. As a side effect the session lock is force-released.
	ErrQuotaExceeded = errors.New("voice: daily session quota exceeded")

	// ErrLockConflict means the session lock is held by another requester.
	// Returned as a [ConflictError] carrying the holder's ID.
	ErrLockConflict = errors.New("voice: session lock held by another requester")

	// ErrNoVoicePresence means the requester is not in any voice channel.
	ErrNoVoicePresence = errors.New("voice: requester not in a voice channel")

	// ErrBackend wraps chat backend failures. The lock stays held.
	ErrBackend = errors.New("voice: chat backend failure")

	// ErrSynthesis wraps speech synthesis failures. The lock stays held.
	ErrSynthesis = errors.New("voice: speech synthesis failure")

	// ErrConnection wraps voice transport connect and move failures.
	ErrConnection = errors.New("voice: voice connection failure")

	// ErrPlayback wraps failures while streaming the artifact.
	ErrPlayback = errors.New("voice: playback failure")
)

// ConflictError reports a failed lock acquisition, carrying the identity of
// the current holder. errors.Is(err, ErrLockConflict) matches it.
type ConflictError struct {
	// OwnerID is the requester currently holding the lock.
	OwnerID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("voice: session lock held by %s", e.OwnerID)
}

// Is reports whether target is ErrLockConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrLockConflict
}
