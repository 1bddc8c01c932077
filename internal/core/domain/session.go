package domain

// Session is an immutable view of who is signed in. Transitions return new
// values instead of mutating shared state.
type Session struct {
	User   *User
	Tokens Tokens
}

func (s Session) Login(user User, tokens Tokens) Session {
	return Session{User: &user, Tokens: tokens}
}

func (s Session) Logout() Session {
	return Session{}
}

func (s Session) Authenticated() bool {
	return s.User != nil && s.Tokens.Valid()
}
