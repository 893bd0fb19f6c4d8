// Package memory is the snapshot store used when Redis is disabled.
// Snapshots are kept in their serialized form so callers never share memory
// with the store, exactly as with Redis.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/MrSnakeDoc/hub/internal/workspace"
)

// Store keeps workspace snapshots in process memory.
type Store struct {
	mu    sync.RWMutex
	snaps map[string][]byte // session ID -> JSON snapshot
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{snaps: make(map[string][]byte)}
}

// SaveSnapshot stores a session's workspace snapshot
func (s *Store) SaveSnapshot(_ context.Context, sessionID string, snap workspace.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps[sessionID] = data
	return nil
}

// LoadSnapshot retrieves a session's snapshot
func (s *Store) LoadSnapshot(_ context.Context, sessionID string) (workspace.Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.snaps[sessionID]
	s.mu.RUnlock()

	if !ok {
		return workspace.Snapshot{}, false, nil
	}

	var snap workspace.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return workspace.Snapshot{}, false, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return snap, true, nil
}

// DeleteSnapshot removes a session's snapshot
func (s *Store) DeleteSnapshot(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snaps, sessionID)
	return nil
}

// ListSessions returns the IDs of all stored sessions, sorted
func (s *Store) ListSessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snaps))
	for id := range s.snaps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}
