package domain

// AuthState is what a page knows about its viewer. User is nil exactly when
// IsAuthenticated is false; Error is empty when there is none.
type AuthState struct {
	User            *User
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Clone returns a copy that shares nothing with s.
func (s AuthState) Clone() AuthState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
