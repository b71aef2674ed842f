package model

// Snapshot is an immutable copy of a session at a given revision, handed to
// the autosave pipeline.
type Snapshot struct {
	SessionID string
	Revision  int64
	Session   *Session
}

// NewSnapshot deep-copies s.
func NewSnapshot(s *Session) Snapshot {
	return Snapshot{SessionID: s.ID, Revision: s.Revision, Session: s.Clone()}
}
