package vault

import (
	"errors"
	"fmt"

	"github.com/leviipope/finance-dashboard/internal/auth"
	"github.com/leviipope/finance-dashboard/internal/session"
	"github.com/leviipope/finance-dashboard/internal/storage"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// SuperuserName is the administrative identity. It may read any user's blobs
// and its data lives at fixed well-known paths. Whether a given account's
// blobs are encrypted is decided by the per-account EncryptAtRest policy
// flag, not by this name.
const SuperuserName = "admin"

// Paths are the blob locations belonging to one user.
type Paths struct {
	Ledger     string
	Categories string
}

// UserPaths returns the blob paths for a user. The superuser's data sits at
// fixed well-known paths; everyone else's paths are username-derived.
func UserPaths(username string) Paths {
	if username == SuperuserName {
		return Paths{
			Ledger:     "data/dataframes/main_dataframe.csv",
			Categories: "data/categories/categories.json",
		}
	}
	return Paths{
		Ledger:     fmt.Sprintf("data/dataframes/%s_dataframe.csv", username),
		Categories: fmt.Sprintf("data/categories/%s_categories.json", username),
	}
}

// Vault mediates all blob access: it enforces the owner-only authorization
// policy, encrypts on write, and decrypts (with a legacy-plaintext fallback)
// on read.
type Vault struct {
	backend storage.Backend
	creds   *auth.CredentialStore
}

// New creates a vault over the given backend and credential store.
func New(backend storage.Backend, creds *auth.CredentialStore) *Vault {
	return &Vault{backend: backend, creds: creds}
}

// key returns the blob key for a user, or nil when the account's policy is
// plaintext at rest.
func (v *Vault) key(username string) ([]byte, error) {
	record, err := v.creds.Lookup(username)
	if err != nil {
		return nil, err
	}
	if !record.EncryptAtRest {
		return nil, nil
	}
	return DeriveKey(username, record.PasswordHash), nil
}

// authorizeRead reports whether the session may read owner's blobs.
// Violations surface as "not found" rather than "forbidden" so that probing
// cannot confirm another user's existence.
func authorizeRead(sess *session.Session, owner string) bool {
	if sess == nil || sess.IsGuest {
		return false
	}
	return sess.Username == owner || sess.Username == SuperuserName
}

// ReadUserBlob reads and, when necessary, decrypts a blob owned by owner.
// Content that does not look encrypted is returned as-is: pre-encryption
// blobs (a bare "{}" or a plain CSV) stay readable without migration. A blob
// that looks encrypted but fails to decrypt is surfaced as a DecryptionError,
// never as garbage.
func (v *Vault) ReadUserBlob(sess *session.Session, path, owner string) ([]byte, error) {
	if !authorizeRead(sess, owner) {
		log.WithFields(logrus.Fields{"path": path, "owner": owner}).Warn("Refused blob read for non-owner")
		return nil, storage.ErrNotFound
	}

	content, err := v.backend.Get(path)
	if err != nil {
		return nil, err
	}

	if !IsLikelyEncrypted(content) {
		return content, nil
	}

	key, err := v.key(owner)
	if err != nil {
		return nil, err
	}
	if key == nil {
		// Policy says plaintext at rest but the stored blob looks
		// encrypted; without a key there is nothing more to try.
		return content, nil
	}
	return Decrypt(string(content), key)
}

// WriteUserBlob encrypts (per the owner's policy) and writes a blob. Only
// the owner may write their own blobs; encryption and write are one logical
// step, so an encryption failure means nothing is written. The write is
// conditional on the blob's current version token: a write that lands in
// between surfaces as storage.ErrConflict instead of being clobbered.
func (v *Vault) WriteUserBlob(sess *session.Session, path string, plaintext []byte, owner string) error {
	if sess == nil || sess.IsGuest || sess.Username != owner {
		log.WithFields(logrus.Fields{"path": path, "owner": owner}).Warn("Refused blob write for non-owner")
		return storage.ErrNotFound
	}

	key, err := v.key(owner)
	if err != nil {
		return err
	}

	content := plaintext
	if key != nil {
		blob, err := Encrypt(plaintext, key)
		if err != nil {
			return fmt.Errorf("error encrypting blob %s: %w", path, err)
		}
		content = []byte(blob)
	}

	_, version, err := v.backend.GetVersion(path)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		version = ""
	}
	if _, err := v.backend.Put(path, content, version); err != nil {
		return fmt.Errorf("error writing blob %s: %w", path, err)
	}
	return nil
}

// EnsureUserBlob writes defaultContent at path if no blob exists yet.
func (v *Vault) EnsureUserBlob(sess *session.Session, path string, defaultContent []byte, owner string) error {
	_, err := v.backend.Get(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return v.WriteUserBlob(sess, path, defaultContent, owner)
}

// DeleteUserData removes a user's blobs and credential record. The
// superuser account cannot be deleted.
func (v *Vault) DeleteUserData(sess *session.Session, username string) error {
	if username == "" || username == SuperuserName {
		return fmt.Errorf("cannot delete account %q", username)
	}
	if sess == nil || (sess.Username != username && sess.Username != SuperuserName) {
		return storage.ErrNotFound
	}

	paths := UserPaths(username)
	for _, path := range []string{paths.Ledger, paths.Categories} {
		if err := v.backend.Delete(path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("error deleting %s: %w", path, err)
		}
	}
	if err := v.creds.Delete(username); err != nil && !errors.Is(err, auth.ErrUnknownUser) {
		return err
	}

	log.WithField("username", username).Info("Deleted user data")
	return nil
}

// rekeyedBlob remembers a blob's pre-rekey content for rollback, along with
// the version token of the re-keyed ciphertext so the rollback only replaces
// what the re-key itself wrote.
type rekeyedBlob struct {
	path     string
	original []byte
	version  string
}

// ChangePassword verifies the old password, re-encrypts every blob of the
// user under the new credential-derived key, and only then commits the new
// hash. The operation is all-or-nothing from the user's perspective: a
// failure during re-keying rolls the already-rewritten blobs back and leaves
// the credential record unchanged, so the user is never locked out of their
// own data.
func (v *Vault) ChangePassword(username, oldPassword, newPassword string) error {
	// Verifying
	record, err := v.creds.Lookup(username)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(record.PasswordHash, oldPassword) {
		return auth.ErrBadCredentials
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// ReKeying
	if record.EncryptAtRest {
		oldKey := DeriveKey(username, record.PasswordHash)
		newKey := DeriveKey(username, newHash)
		rewritten, err := v.rekeyBlobs(username, oldKey, newKey)
		if err != nil {
			v.rollback(rewritten)
			return fmt.Errorf("password change aborted: %w", err)
		}

		// Committed
		if err := v.creds.CommitPasswordChange(username, newHash); err != nil {
			v.rollback(rewritten)
			return fmt.Errorf("password change aborted: %w", err)
		}
		return nil
	}

	return v.creds.CommitPasswordChange(username, newHash)
}

// rekeyBlobs re-encrypts each of the user's blobs from oldKey to newKey and
// returns the blobs it rewrote (with their original content) for rollback.
// A blob that fails to decrypt under the old key is treated as legacy
// plaintext and encrypted as-is.
func (v *Vault) rekeyBlobs(username string, oldKey, newKey []byte) ([]rekeyedBlob, error) {
	paths := UserPaths(username)
	var rewritten []rekeyedBlob

	for _, path := range []string{paths.Ledger, paths.Categories} {
		content, version, err := v.backend.GetVersion(path)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return rewritten, fmt.Errorf("error reading %s: %w", path, err)
		}

		plaintext := content
		if IsLikelyEncrypted(content) {
			decrypted, err := Decrypt(string(content), oldKey)
			if err != nil {
				// Legacy-plaintext fallback: re-encrypt the raw
				// content under the new key.
				log.WithField("path", path).Warn("Blob not decryptable with old key, treating as legacy plaintext")
			} else {
				plaintext = decrypted
			}
		}

		blob, err := Encrypt(plaintext, newKey)
		if err != nil {
			return rewritten, fmt.Errorf("error re-encrypting %s: %w", path, err)
		}
		// Conditional on the token read above: a write landing mid-rekey
		// aborts the whole password change instead of being overwritten.
		newVersion, err := v.backend.Put(path, []byte(blob), version)
		if err != nil {
			return rewritten, fmt.Errorf("error writing re-encrypted %s: %w", path, err)
		}
		rewritten = append(rewritten, rekeyedBlob{path: path, original: content, version: newVersion})
	}

	log.WithFields(logrus.Fields{"username": username, "blobs": len(rewritten)}).Info("Re-keyed user blobs")
	return rewritten, nil
}

// rollback restores blobs rewritten during a failed re-key. Each restore is
// conditional on the token of the ciphertext the re-key wrote, so content
// that changed after the abort is left alone. Best effort: a failed restore
// leaves new-key ciphertext behind, which is logged loudly; the credential
// hash is never committed in that case, so the old key is still the one the
// next re-key attempt will derive.
func (v *Vault) rollback(rewritten []rekeyedBlob) {
	for _, blob := range rewritten {
		if _, err := v.backend.Put(blob.path, blob.original, blob.version); err != nil {
			log.WithError(err).WithField("path", blob.path).Error("Failed to roll back blob after aborted re-key")
		}
	}
}
