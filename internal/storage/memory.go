package storage

import "sync"

// Memory is an in-memory Backend for tests and guest sessions.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailPutAt makes the n-th Put call (1-based) and every later one fail
	// with ErrConflict; 0 disables. Tests use it to simulate a backend
	// outage partway through a multi-blob operation.
	FailPutAt int
	puts      int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns the blob at path, or ErrNotFound.
func (m *Memory) Get(path string) ([]byte, error) {
	data, _, err := m.GetVersion(path)
	return data, err
}

// GetVersion returns the blob and its content-hash version token.
func (m *Memory) GetVersion(path string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[path]
	if !ok {
		return nil, "", ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, contentVersion(data), nil
}

// Put writes the blob, honoring the optimistic version token.
func (m *Memory) Put(path string, data []byte, version string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.FailPutAt > 0 && m.puts >= m.FailPutAt {
		return "", ErrConflict
	}
	if version != "" {
		current, ok := m.blobs[path]
		if !ok || contentVersion(current) != version {
			return "", ErrConflict
		}
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.blobs[path] = stored
	return contentVersion(data), nil
}

// Puts returns the number of Put calls seen so far, letting tests position
// FailPutAt relative to setup writes.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Delete removes the blob, or returns ErrNotFound.
func (m *Memory) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[path]; !ok {
		return ErrNotFound
	}
	delete(m.blobs, path)
	return nil
}
