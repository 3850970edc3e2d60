// Package auth implements salted password hashing and the shared user
// credential file. The currently-active password hash of a user is also the
// input to the vault's key derivation, so any change committed here has to be
// preceded by a successful re-encryption of that user's blobs.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leviipope/finance-dashboard/internal/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

const (
	// UsersPath is the single shared credential file in the blob store.
	UsersPath = "data/users.json"

	// Iterations is the PBKDF2 iteration count for password hashing.
	Iterations = 100000

	saltBytes = 16
	hashBytes = 32
	// The salt is stored as a fixed-width hex prefix of the hash string.
	saltHexLen = saltBytes * 2
)

var (
	// ErrUnknownUser is returned when a username has no credential record.
	ErrUnknownUser = errors.New("auth: unknown user")
	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("auth: username already exists")
	// ErrReservedName is returned for usernames the system reserves.
	ErrReservedName = errors.New("auth: username is reserved")
	// ErrBadCredentials is returned when password verification fails.
	ErrBadCredentials = errors.New("auth: invalid credentials")
)

// reservedNames cannot be registered: "guest" identifies anonymous
// in-memory sessions.
var reservedNames = map[string]bool{"guest": true}

// Record is one user's credential entry in the shared users file.
// EncryptAtRest is the per-account policy consumed by the vault; it defaults
// to true and is only disabled for control/demo accounts whose blobs stay
// plaintext.
type Record struct {
	PasswordHash      string `json:"passwordHash"`
	CreatedAt         string `json:"createdAt"`
	PasswordChangedAt string `json:"passwordChangedAt,omitempty"`
	EncryptAtRest     bool   `json:"encryptAtRest"`
}

// HashPassword hashes a password with a fresh random salt. The stored form is
// hex(salt) + hex(PBKDF2-SHA256(password, salt, 100000)), one fixed-width
// string.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("error generating salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	derived := pbkdf2.Key([]byte(password), []byte(saltHex), Iterations, hashBytes, sha256.New)
	return saltHex + hex.EncodeToString(derived), nil
}

// VerifyPassword checks a candidate password against a stored salted hash
// using a constant-time comparison.
func VerifyPassword(storedHash, candidate string) bool {
	if len(storedHash) != saltHexLen+hashBytes*2 {
		return false
	}
	saltHex := storedHash[:saltHexLen]
	derived := pbkdf2.Key([]byte(candidate), []byte(saltHex), Iterations, hashBytes, sha256.New)
	expected := storedHash[saltHexLen:]
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(derived)), []byte(expected)) == 1
}

// CredentialStore reads and writes the shared users file through the blob
// backend. The file itself is plaintext JSON; per-user data blobs are what
// the vault encrypts.
type CredentialStore struct {
	backend storage.Backend
}

// NewCredentialStore creates a credential store over the given backend.
func NewCredentialStore(backend storage.Backend) *CredentialStore {
	return &CredentialStore{backend: backend}
}

func (s *CredentialStore) load() (map[string]Record, error) {
	data, err := s.backend.Get(UsersPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("error reading users file: %w", err)
	}
	users := map[string]Record{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("error parsing users file: %w", err)
	}
	return users, nil
}

func (s *CredentialStore) save(users map[string]Record) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding users file: %w", err)
	}
	if _, err := s.backend.Put(UsersPath, data, ""); err != nil {
		return fmt.Errorf("error writing users file: %w", err)
	}
	return nil
}

// Lookup returns the credential record for a username.
func (s *CredentialStore) Lookup(username string) (Record, error) {
	users, err := s.load()
	if err != nil {
		return Record{}, err
	}
	record, ok := users[username]
	if !ok {
		return Record{}, ErrUnknownUser
	}
	return record, nil
}

// Authenticate verifies a username/password pair against the stored record.
func (s *CredentialStore) Authenticate(username, password string) (Record, error) {
	if username == "" || password == "" {
		return Record{}, ErrBadCredentials
	}
	record, err := s.Lookup(username)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return Record{}, ErrBadCredentials
		}
		return Record{}, err
	}
	if !VerifyPassword(record.PasswordHash, password) {
		return Record{}, ErrBadCredentials
	}
	return record, nil
}

// Register creates a credential record for a new user. encryptAtRest is the
// per-account policy flag; normal registrations pass true.
func (s *CredentialStore) Register(username, password string, encryptAtRest bool) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrBadCredentials
	}
	if reservedNames[strings.ToLower(username)] {
		return ErrReservedName
	}

	users, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	users[username] = Record{
		PasswordHash:  hash,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		EncryptAtRest: encryptAtRest,
	}
	if err := s.save(users); err != nil {
		return err
	}

	log.WithField("username", username).Info("Registered user")
	return nil
}

// CommitPasswordChange stores a new password hash for the user. Callers must
// have re-encrypted the user's blobs under the new hash first; committing a
// hash whose derived key does not match the blobs locks the user out.
func (s *CredentialStore) CommitPasswordChange(username, newHash string) error {
	users, err := s.load()
	if err != nil {
		return err
	}
	record, ok := users[username]
	if !ok {
		return ErrUnknownUser
	}
	record.PasswordHash = newHash
	record.PasswordChangedAt = time.Now().UTC().Format(time.RFC3339)
	users[username] = record
	if err := s.save(users); err != nil {
		return err
	}

	log.WithField("username", username).Info("Committed password change")
	return nil
}

// Delete removes a user's credential record.
func (s *CredentialStore) Delete(username string) error {
	users, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return ErrUnknownUser
	}
	delete(users, username)
	return s.save(users)
}
