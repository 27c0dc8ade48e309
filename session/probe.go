package session

// Probe decides whether loading the current user is worth a request.
type Probe struct {
	store *Store
}

// NewProbe creates a Probe over store
func NewProbe(store *Store) *Probe {
	return &Probe{store: store}
}

// ShouldLoadUser is false while logged out, otherwise true when there is any
// evidence of a session. A never-authenticated visitor skips the request that
// would certainly come back unauthorized.
func (p *Probe) ShouldLoadUser() bool {
	if p.store.LoggedOut() {
		return false
	}
	return p.store.HasPlausibleSession()
}

// Confirm records that the backend accepted the session.
func (p *Probe) Confirm() {
	p.store.ClearLoggedOut()
}
