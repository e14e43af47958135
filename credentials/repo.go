package credentials

// Store persists the credential pair. Implementations perform no validation
// of token contents.
type Store interface {
	// Save replaces any stored credential
	Save(credential Credential) error

	// Load returns the stored credential; ok is false when none is stored
	Load() (credential Credential, ok bool, err error)

	// Clear removes the stored credential; clearing an empty store is not an error
	Clear() error
}
