package domain

// SessionEventType labels a session state transition.
type SessionEventType string

const (
	SessionBootstrapped SessionEventType = "SESSION_BOOTSTRAPPED"
	SessionEstablished  SessionEventType = "SESSION_ESTABLISHED"
	SessionRefreshed    SessionEventType = "SESSION_REFRESHED"
	SessionCleared      SessionEventType = "SESSION_CLEARED"
	SessionFailed       SessionEventType = "SESSION_FAILED"
)

// SessionEvent is delivered to subscribers after every published state
// change, alongside the snapshot that resulted from it.
type SessionEvent struct {
	Type  SessionEventType
	State SessionState
}

// Subscriber receives session events. Callbacks run synchronously on the
// goroutine that completed the operation; they must not call back into
// the manager.
type Subscriber func(SessionEvent)
