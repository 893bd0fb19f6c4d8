package redis

import "fmt"

const (
	// KeyPrefixWorkspace is the prefix for workspace snapshot keys
	KeyPrefixWorkspace = "hub:workspace:"
	// KeyAllWorkspaces is the key for the set of all session IDs with a snapshot
	KeyAllWorkspaces = "hub:workspaces:all"
)

// WorkspaceKey returns the Redis key for a session's workspace snapshot
func WorkspaceKey(sessionID string) string {
	return KeyPrefixWorkspace + sessionID
}

// AllWorkspacesKey returns the key for the set of all session IDs
func AllWorkspacesKey() string {
	return KeyAllWorkspaces
}

// ExtractSessionID extracts the session ID from a workspace key
func ExtractSessionID(key string) (string, error) {
	if len(key) <= len(KeyPrefixWorkspace) || key[:len(KeyPrefixWorkspace)] != KeyPrefixWorkspace {
		return "", fmt.Errorf("invalid workspace key: %s", key)
	}
	return key[len(KeyPrefixWorkspace):], nil
}
