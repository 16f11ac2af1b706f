package interfaces

// PersistentStorage is a durable string key-value store provided by the host
// platform, such as SharedPreferences on Android or UserDefaults on iOS.
//
// The SDK uses it only for optional queue persistence and the generated user
// identifier. All operations are fallible; the SDK logs failures and carries
// on, so implementations should not retry internally. There are no
// transactional guarantees across keys.
type PersistentStorage interface {
	// Get returns the value stored under key. A missing key is not an error:
	// implementations return ("", nil) for it.
	Get(key string) (string, error)

	// Set stores value under key, replacing any existing value.
	Set(key string, value string) error

	// Remove deletes the value stored under key, if any. Removing a missing
	// key is not an error.
	Remove(key string) error
}
