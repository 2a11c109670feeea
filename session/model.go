package session

// Session is a persisted sign-in record. Tokens reference it by SessionID;
// deleting or blacklisting the record revokes them ahead of their natural
// expiry.
type Session struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Filter selects sessions for lookup or deletion. A zero field matches any
// value; both fields set means both must match. The explicit shape replaces
// build-the-filter-object-conditionally call sites.
type Filter struct {
	SessionID string
	UserID    string
}

// Matches reports whether s satisfies every field set on f.
func (f Filter) Matches(s *Session) bool {
	if s == nil {
		return false
	}
	if f.SessionID != "" && f.SessionID != s.SessionID {
		return false
	}
	if f.UserID != "" && f.UserID != s.UserID {
		return false
	}
	return true
}
