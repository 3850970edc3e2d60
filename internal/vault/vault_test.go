package vault

import (
	"strings"
	"testing"

	"github.com/leviipope/finance-dashboard/internal/auth"
	"github.com/leviipope/finance-dashboard/internal/session"
	"github.com/leviipope/finance-dashboard/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	testLogger := logrus.New()
	testLogger.SetLevel(logrus.DebugLevel)
	SetLogger(testLogger)
	auth.SetLogger(testLogger)
}

func newTestVault(t *testing.T) (*Vault, *storage.Memory, *auth.CredentialStore) {
	t.Helper()
	backend := storage.NewMemory()
	creds := auth.NewCredentialStore(backend)
	require.NoError(t, creds.Register("alice", "secret", true))
	require.NoError(t, creds.Register(SuperuserName, "adminpw", false))
	return New(backend, creds), backend, creds
}

func TestUserPaths(t *testing.T) {
	admin := UserPaths(SuperuserName)
	assert.Equal(t, "data/dataframes/main_dataframe.csv", admin.Ledger)
	assert.Equal(t, "data/categories/categories.json", admin.Categories)

	alice := UserPaths("alice")
	assert.Equal(t, "data/dataframes/alice_dataframe.csv", alice.Ledger)
	assert.Equal(t, "data/categories/alice_categories.json", alice.Categories)
}

func TestWriteReadEncryptedBlob(t *testing.T) {
	v, backend, _ := newTestVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	plaintext := []byte(`{"Groceries": ["lidl"]}`)
	require.NoError(t, v.WriteUserBlob(sess, paths.Categories, plaintext, "alice"))

	// At rest the blob is ciphertext.
	stored, err := backend.Get(paths.Categories)
	require.NoError(t, err)
	assert.True(t, IsLikelyEncrypted(stored))
	assert.NotEqual(t, plaintext, stored)

	got, err := v.ReadUserBlob(sess, paths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestPlaintextPolicyAccount(t *testing.T) {
	v, backend, _ := newTestVault(t)
	sess := session.NewUser(SuperuserName)
	paths := UserPaths(SuperuserName)

	plaintext := []byte("Date,Description\n")
	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, plaintext, SuperuserName))

	// EncryptAtRest=false accounts store plaintext.
	stored, err := backend.Get(paths.Ledger)
	require.NoError(t, err)
	assert.Equal(t, plaintext, stored)

	got, err := v.ReadUserBlob(sess, paths.Ledger, SuperuserName)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestReadAuthorization(t *testing.T) {
	v, _, creds := newTestVault(t)
	require.NoError(t, creds.Register("bob", "pw", true))

	alicePaths := UserPaths("alice")
	require.NoError(t, v.WriteUserBlob(session.NewUser("alice"), alicePaths.Categories, []byte("{}"), "alice"))

	// Non-owner read reports not-found, not forbidden.
	_, err := v.ReadUserBlob(session.NewUser("bob"), alicePaths.Categories, "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Guests have no persisted data at all.
	_, err = v.ReadUserBlob(session.NewGuest(), alicePaths.Categories, "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The superuser may read any user's blobs.
	got, err := v.ReadUserBlob(session.NewUser(SuperuserName), alicePaths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)
}

func TestWriteAuthorization(t *testing.T) {
	v, _, _ := newTestVault(t)
	paths := UserPaths("alice")

	// Even the superuser cannot write another user's blobs.
	err := v.WriteUserBlob(session.NewUser(SuperuserName), paths.Categories, []byte("{}"), "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	err = v.WriteUserBlob(session.NewGuest(), paths.Categories, []byte("{}"), "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLegacyPlaintextMigrationRead(t *testing.T) {
	v, backend, _ := newTestVault(t)
	paths := UserPaths("alice")

	// A blob written before encryption existed.
	_, err := backend.Put(paths.Categories, []byte(`{"Uncategorized": []}`), "")
	require.NoError(t, err)

	got, err := v.ReadUserBlob(session.NewUser("alice"), paths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"Uncategorized": []}`), got)
}

func TestEnsureUserBlob(t *testing.T) {
	v, _, _ := newTestVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	require.NoError(t, v.EnsureUserBlob(sess, paths.Categories, []byte("{}"), "alice"))
	require.NoError(t, v.WriteUserBlob(sess, paths.Categories, []byte(`{"A": []}`), "alice"))

	// Existing content is left alone.
	require.NoError(t, v.EnsureUserBlob(sess, paths.Categories, []byte("{}"), "alice"))
	got, err := v.ReadUserBlob(sess, paths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"A": []}`), got)
}

func TestChangePasswordReKeysBlobs(t *testing.T) {
	v, backend, creds := newTestVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	ledger := []byte("Date,Description,Amount\n2024-01-05,Spotify,-1490\n")
	categories := []byte(`{"Uncategorized": []}`)
	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, ledger, "alice"))
	require.NoError(t, v.WriteUserBlob(sess, paths.Categories, categories, "alice"))

	oldRecord, err := creds.Lookup("alice")
	require.NoError(t, err)
	oldKey := DeriveKey("alice", oldRecord.PasswordHash)

	require.NoError(t, v.ChangePassword("alice", "secret", "newsecret"))

	newRecord, err := creds.Lookup("alice")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(newRecord.PasswordHash, "newsecret"))

	// Blobs are unreadable under the old key and readable under the new.
	stored, err := backend.Get(paths.Ledger)
	require.NoError(t, err)
	_, err = Decrypt(string(stored), oldKey)
	assert.Error(t, err)

	got, err := v.ReadUserBlob(sess, paths.Ledger, "alice")
	require.NoError(t, err)
	assert.Equal(t, ledger, got)

	got, err = v.ReadUserBlob(sess, paths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, categories, got)
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	v, _, creds := newTestVault(t)

	err := v.ChangePassword("alice", "wrong", "newsecret")
	assert.ErrorIs(t, err, auth.ErrBadCredentials)

	record, err := creds.Lookup("alice")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(record.PasswordHash, "secret"), "credential must be unchanged")
}

func TestChangePasswordAbortsOnWriteFailure(t *testing.T) {
	v, backend, creds := newTestVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, []byte("ledger-data"), "alice"))
	require.NoError(t, v.WriteUserBlob(sess, paths.Categories, []byte("{}"), "alice"))

	oldRecord, err := creds.Lookup("alice")
	require.NoError(t, err)
	oldKey := DeriveKey("alice", oldRecord.PasswordHash)

	// The backend dies on the second re-key write: the first blob was
	// rewritten, the second was not, and the rollback Put also fails.
	backend.FailPutAt = backend.Puts() + 2
	err = v.ChangePassword("alice", "secret", "newsecret")
	require.Error(t, err)

	// The credential record is unchanged.
	record, err := creds.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, oldRecord.PasswordHash, record.PasswordHash)

	// At least one blob is still decryptable with the old key: no lockout.
	stored, err := backend.Get(paths.Categories)
	require.NoError(t, err)
	got, err := Decrypt(string(stored), oldKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)
}

// racingBackend injects a foreign write on ledger paths just before the
// vault's conditional Put, turning the vault's version token stale.
type racingBackend struct {
	*storage.Memory
	armed bool
}

func (b *racingBackend) Put(path string, data []byte, version string) (string, error) {
	if b.armed && strings.Contains(path, "dataframes") {
		b.armed = false
		if _, err := b.Memory.Put(path, []byte("foreign write"), ""); err != nil {
			return "", err
		}
	}
	return b.Memory.Put(path, data, version)
}

func newRacingVault(t *testing.T) (*Vault, *racingBackend, *auth.CredentialStore) {
	t.Helper()
	backend := &racingBackend{Memory: storage.NewMemory()}
	creds := auth.NewCredentialStore(backend)
	require.NoError(t, creds.Register("alice", "secret", true))
	return New(backend, creds), backend, creds
}

func TestWriteUserBlobConflictOnConcurrentWrite(t *testing.T) {
	v, backend, _ := newRacingVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, []byte("first"), "alice"))

	backend.armed = true
	err := v.WriteUserBlob(sess, paths.Ledger, []byte("second"), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// The interleaved write is intact, not clobbered.
	stored, err := backend.Get(paths.Ledger)
	require.NoError(t, err)
	assert.Equal(t, []byte("foreign write"), stored)
}

func TestChangePasswordAbortsOnConcurrentWrite(t *testing.T) {
	v, backend, creds := newRacingVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, []byte("ledger-data"), "alice"))
	require.NoError(t, v.WriteUserBlob(sess, paths.Categories, []byte("{}"), "alice"))

	oldRecord, err := creds.Lookup("alice")
	require.NoError(t, err)

	backend.armed = true
	err = v.ChangePassword("alice", "secret", "newsecret")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// The credential record is unchanged, so the old password still works.
	record, err := creds.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, oldRecord.PasswordHash, record.PasswordHash)
	_, err = creds.Authenticate("alice", "secret")
	assert.NoError(t, err)

	// The untouched blob is still readable under the old credential.
	got, err := v.ReadUserBlob(sess, paths.Categories, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)
}

func TestChangePasswordLegacyPlaintextBlob(t *testing.T) {
	v, backend, _ := newTestVault(t)
	paths := UserPaths("alice")

	// A pre-encryption blob gets picked up and encrypted during re-key.
	_, err := backend.Put(paths.Ledger, []byte("legacy,csv\n"), "")
	require.NoError(t, err)

	require.NoError(t, v.ChangePassword("alice", "secret", "newsecret"))

	stored, err := backend.Get(paths.Ledger)
	require.NoError(t, err)
	assert.True(t, IsLikelyEncrypted(stored))

	got, err := v.ReadUserBlob(session.NewUser("alice"), paths.Ledger, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("legacy,csv\n"), got)
}

func TestDeleteUserData(t *testing.T) {
	v, backend, creds := newTestVault(t)
	sess := session.NewUser("alice")
	paths := UserPaths("alice")

	require.NoError(t, v.WriteUserBlob(sess, paths.Ledger, []byte("x"), "alice"))
	require.NoError(t, v.DeleteUserData(sess, "alice"))

	_, err := backend.Get(paths.Ledger)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = creds.Lookup("alice")
	assert.ErrorIs(t, err, auth.ErrUnknownUser)

	// The superuser account is not deletable.
	assert.Error(t, v.DeleteUserData(session.NewUser(SuperuserName), SuperuserName))
}
