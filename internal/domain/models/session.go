package models

// Session identifies the user an operation runs for. It is passed explicitly into
// every user-scoped operation instead of living in process-wide state.
type Session struct {
	UserID   string
	Username string
}

func NewSession(userID, username string) Session {
	return Session{UserID: userID, Username: username}
}
