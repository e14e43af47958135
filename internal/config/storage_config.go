package config

import "github.com/spf13/viper"

// StoreKind selects the credential store backend.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
)

type StorageConfig interface {
	GetCredentialStore() StoreKind
	GetCredentialPassphrase() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetCredentialStore() StoreKind {
	switch kind := StoreKind(s.v.GetString("credential_store")); kind {
	case StoreMemory, StoreSQLite:
		return kind
	default:
		return StoreFile
	}
}

// GetCredentialPassphrase enables sealing of the file store when non-empty.
func (s Storage) GetCredentialPassphrase() string {
	return s.v.GetString("credential_passphrase")
}
