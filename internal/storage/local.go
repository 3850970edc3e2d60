package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Local stores blobs as files under a root directory. Version tokens are
// content hashes, so a conditional Put detects any intervening write.
type Local struct {
	root string
}

// NewLocal creates a filesystem-backed store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(l.root, cleaned), nil
}

// Get returns the blob at path, or ErrNotFound.
func (l *Local) Get(path string) ([]byte, error) {
	data, _, err := l.GetVersion(path)
	return data, err
}

// GetVersion returns the blob and its content-hash version token.
func (l *Local) GetVersion(path string) ([]byte, string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("error reading blob %s: %w", path, err)
	}
	return data, contentVersion(data), nil
}

// Put writes the blob. A non-empty version token must match the current
// content hash or the write fails with ErrConflict.
func (l *Local) Put(path string, data []byte, version string) (string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if version != "" {
		current, readErr := os.ReadFile(full)
		switch {
		case readErr == nil:
			if contentVersion(current) != version {
				return "", ErrConflict
			}
		case os.IsNotExist(readErr):
			return "", ErrConflict
		default:
			return "", fmt.Errorf("error checking blob %s: %w", path, readErr)
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0750); err != nil {
		return "", fmt.Errorf("error creating blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0600); err != nil {
		return "", fmt.Errorf("error writing blob %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{"path": path, "bytes": len(data)}).Debug("Wrote blob")
	return contentVersion(data), nil
}

// Delete removes the blob, or returns ErrNotFound.
func (l *Local) Delete(path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("error deleting blob %s: %w", path, err)
	}
	return nil
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
