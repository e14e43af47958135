package filestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-booking-client/credentials"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KDFParams are the argon2id settings a sealed file was written with.
type KDFParams struct {
	Algorithm string `json:"algorithm"`
	Time      uint32 `json:"time"`
	Memory    uint32 `json:"memory"` // KiB
	Threads   uint8  `json:"threads"`
}

// DefaultKDFParams follows the argon2id recommendation of RFC 9106 for
// memory constrained machines.
var DefaultKDFParams = KDFParams{Algorithm: "argon2id", Time: 3, Memory: 64 * 1024, Threads: 4}

var _ credentials.Store = (*Store)(nil)

// ErrOriginMismatch is returned when a file belongs to a different origin.
var ErrOriginMismatch = errors.New("credential file belongs to a different origin")

// Store persists the credential as one JSON file per API origin.
type Store struct {
	path       string
	origin     string
	passphrase []byte
	kdf        KDFParams

	mu        sync.Mutex
	cachedKey []byte
	cachedFor string // salt and params the cached key was derived from
}

// Option configures a Store.
type Option func(*Store)

// WithPassphrase seals the file with ChaCha20-Poly1305 under an argon2id key
// derived from passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		if passphrase != "" {
			s.passphrase = []byte(passphrase)
		}
	}
}

// WithKDFParams overrides DefaultKDFParams for newly sealed files.
func WithKDFParams(params KDFParams) Option {
	return func(s *Store) {
		if params.Time > 0 && params.Memory > 0 && params.Threads > 0 {
			params.Algorithm = DefaultKDFParams.Algorithm
			s.kdf = params
		}
	}
}

// New returns a store rooted at folder for the origin of baseURL.
func New(folder, baseURL string, options ...Option) (*Store, error) {
	if folder == "" {
		return nil, errors.New("[filestore.New] folder is required")
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[filestore.New] create folder: %w", err)
	}

	origin := credentials.Origin(baseURL)
	sum := sha256.Sum256([]byte(origin))
	s := &Store{
		path:   filepath.Join(folder, "credentials-"+hex.EncodeToString(sum[:8])+".json"),
		origin: origin,
		kdf:    DefaultKDFParams,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Path is the file backing this store.
func (s *Store) Path() string {
	return s.path
}

type plainFile struct {
	Origin       string `json:"origin"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type sealedFile struct {
	Origin     string    `json:"origin"`
	KDF        KDFParams `json:"kdf"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

func (s *Store) Save(credential credentials.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := json.Marshal(plainFile{
		Origin:       s.origin,
		AccessToken:  credential.AccessToken,
		RefreshToken: credential.RefreshToken,
	})
	if err != nil {
		return err
	}

	contents := plain
	if s.passphrase != nil {
		if contents, err = s.seal(plain); err != nil {
			return fmt.Errorf("seal credential: %w", err)
		}
	}
	return writeAtomic(s.path, contents)
}

func (s *Store) Load() (credentials.Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return credentials.Credential{}, false, nil
	}
	if err != nil {
		return credentials.Credential{}, false, fmt.Errorf("read credential file: %w", err)
	}

	if s.passphrase != nil {
		if contents, err = s.open(contents); err != nil {
			return credentials.Credential{}, false, fmt.Errorf("open credential file: %w", err)
		}
	}

	var stored plainFile
	if err := json.Unmarshal(contents, &stored); err != nil {
		return credentials.Credential{}, false, fmt.Errorf("decode credential file: %w", err)
	}
	if stored.Origin != s.origin {
		return credentials.Credential{}, false, ErrOriginMismatch
	}
	if stored.AccessToken == "" {
		return credentials.Credential{}, false, nil
	}
	return credentials.Credential{AccessToken: stored.AccessToken, RefreshToken: stored.RefreshToken}, true, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// key derives the sealing key with argon2id. The last key is cached so that
// repeated loads of the same file skip the derivation. Callers hold s.mu.
func (s *Store) key(salt []byte, params KDFParams) ([]byte, error) {
	if params.Algorithm != DefaultKDFParams.Algorithm || params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		return nil, fmt.Errorf("unsupported key derivation %q", params.Algorithm)
	}
	id := fmt.Sprintf("%x/%d/%d/%d", salt, params.Time, params.Memory, params.Threads)
	if s.cachedKey != nil && s.cachedFor == id {
		return s.cachedKey, nil
	}
	key := argon2.IDKey(s.passphrase, salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize)
	s.cachedKey, s.cachedFor = key, id
	return key, nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := s.key(salt, s.kdf)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return json.Marshal(sealedFile{
		Origin:     s.origin,
		KDF:        s.kdf,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plain, []byte(s.origin)),
	})
}

func (s *Store) open(contents []byte) ([]byte, error) {
	var sealed sealedFile
	if err := json.Unmarshal(contents, &sealed); err != nil {
		return nil, err
	}
	if sealed.Origin != s.origin {
		return nil, ErrOriginMismatch
	}
	key, err := s.key(sealed.Salt, sealed.KDF)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return nil, errors.New("bad nonce length")
	}
	return aead.Open(nil, sealed.Nonce, sealed.Ciphertext, []byte(s.origin))
}

func writeAtomic(path string, contents []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
