package domain

// Session is the single active dashboard visit for one account: an opaque
// token, the authoritative in-memory account copy, and presentation state.
// Sessions are owned by the session manager, never package globals.
type Session struct {
	Token        string
	Account      *Account
	SortByAmount bool
}
