package flags

// Durable keys shared by every process using the same data folder.
const (
	KeyLoggedOut     = "auth_logged_out"
	KeyWasLoggedIn   = "was_logged_in"
	KeyLocale        = "locale"
	KeyRefreshCookie = "refresh_token"
)

const trueValue = "true"

// Repo is the durable key/value port behind the session flags.
// Concurrent writers are not coordinated: last writer wins.
type Repo interface {
	// Get returns the value for key, or errors.ErrNotFound when absent
	Get(key string) (string, error)

	// Set stores value under key
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error
	Remove(key string) error
}

// Bool reports whether key holds "true". Lookup failures read as false.
func Bool(repo Repo, key string) bool {
	v, err := repo.Get(key)
	if err != nil {
		return false
	}
	return v == trueValue
}

// SetBool stores "true" for v and removes the key otherwise, so an unset flag
// and a false flag look the same.
func SetBool(repo Repo, key string, v bool) error {
	if v {
		return repo.Set(key, trueValue)
	}
	return repo.Remove(key)
}

// String returns the value for key or defaultValue when absent or unreadable.
func String(repo Repo, key, defaultValue string) string {
	v, err := repo.Get(key)
	if err != nil || v == "" {
		return defaultValue
	}
	return v
}
