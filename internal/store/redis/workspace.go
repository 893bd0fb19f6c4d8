package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hub/internal/workspace"
)

// DefaultSnapshotTTL is the default TTL for workspace snapshots (30 days).
// Every save refreshes it.
const DefaultSnapshotTTL = 30 * 24 * time.Hour

// Store handles Redis operations for workspace snapshots
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store. A ttl of zero keeps snapshots forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// SaveSnapshot stores a session's workspace snapshot
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snap workspace.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, WorkspaceKey(sessionID), data, s.ttl)
	pipe.SAdd(ctx, AllWorkspacesKey(), sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}

	return nil
}

// LoadSnapshot retrieves a session's snapshot. found is false when the
// session has none yet.
func (s *Store) LoadSnapshot(ctx context.Context, sessionID string) (snap workspace.Snapshot, found bool, err error) {
	data, err := s.client.Get(ctx, WorkspaceKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return workspace.Snapshot{}, false, nil
		}
		return workspace.Snapshot{}, false, fmt.Errorf("failed to get workspace: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return workspace.Snapshot{}, false, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}

	return snap, true, nil
}

// DeleteSnapshot removes a session's snapshot
func (s *Store) DeleteSnapshot(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, WorkspaceKey(sessionID))
	pipe.SRem(ctx, AllWorkspacesKey(), sessionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}

// ListSessions returns the IDs of all sessions with a snapshot
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, AllWorkspacesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	return ids, nil
}

// PruneIndex removes session IDs whose snapshot has expired from the index
// set, and returns how many were removed.
func (s *Store) PruneIndex(ctx context.Context) (int, error) {
	ids, err := s.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, WorkspaceKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to check workspaces: %w", err)
	}

	stale := make([]interface{}, 0)
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.client.SRem(ctx, AllWorkspacesKey(), stale...).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune session index: %w", err)
	}

	return len(stale), nil
}

// SaveSnapshotsMany stores multiple snapshots in one round trip (bulk
// operation, used when flushing on shutdown)
func (s *Store) SaveSnapshotsMany(ctx context.Context, snaps map[string]workspace.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for sessionID, snap := range snaps {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal workspace %s: %w", sessionID, err)
		}

		pipe.Set(ctx, WorkspaceKey(sessionID), data, s.ttl)
		pipe.SAdd(ctx, AllWorkspacesKey(), sessionID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workspaces: %w", err)
	}

	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
