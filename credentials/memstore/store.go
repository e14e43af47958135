package memstore

import (
	"sync"

	"github.com/jrsteele09/go-booking-client/credentials"
)

var _ credentials.Store = (*Store)(nil)

// Store keeps the credential in process memory only.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Save(credential credentials.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[credentials.AccessTokenKey] = credential.AccessToken
	s.values[credentials.RefreshTokenKey] = credential.RefreshToken
	return nil
}

func (s *Store) Load() (credentials.Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	access, ok := s.values[credentials.AccessTokenKey]
	if !ok || access == "" {
		return credentials.Credential{}, false, nil
	}
	return credentials.Credential{
		AccessToken:  access,
		RefreshToken: s.values[credentials.RefreshTokenKey],
	}, true, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, credentials.AccessTokenKey)
	delete(s.values, credentials.RefreshTokenKey)
	return nil
}
