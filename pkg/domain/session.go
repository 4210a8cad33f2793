package domain

// Session is the authenticated identity the client is acting as.
type Session struct {
	UserID           string
	Email            string
	DisplayName      string
	Token            string
	Authenticated    bool
	BackendReachable bool
}

// SessionFor builds an authenticated session for u.
func SessionFor(u User, token string, reachable bool) Session {
	return Session{
		UserID:           u.ID,
		Email:            u.Email,
		DisplayName:      u.Name,
		Token:            token,
		Authenticated:    true,
		BackendReachable: reachable,
	}
}
