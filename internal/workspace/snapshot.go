package workspace

import (
	"maps"
	"slices"

	"github.com/MrSnakeDoc/hub/internal/domain"
)

// Snapshot is the persisted form of a Workspace.
type Snapshot struct {
	ShortcutsByRole map[string][]domain.Shortcut `json:"shortcutsByRole"`
	Collections     []domain.Collection          `json:"collections"`
	Bookmarks       []string                     `json:"bookmarks"`
	CollectionSeq   int                          `json:"collectionSeq,omitempty"`
}

// DefaultSnapshot is the state of a brand new workspace: the built-in
// shortcuts per role, the seed collection and no bookmarks.
func DefaultSnapshot(builtins map[string][]domain.Shortcut) Snapshot {
	byRole := make(map[string][]domain.Shortcut, len(builtins))
	for role, list := range builtins {
		byRole[role] = slices.Clone(list)
	}
	return Snapshot{
		ShortcutsByRole: byRole,
		Collections:     []domain.Collection{domain.SeedCollection()},
		Bookmarks:       []string{},
		CollectionSeq:   1,
	}
}

// Snapshot captures the current state. The result shares no memory with w.
func (w *Workspace) Snapshot() Snapshot {
	byRole := make(map[string][]domain.Shortcut, len(w.shortcuts))
	for role, list := range w.shortcuts {
		byRole[role] = slices.Clone(list)
	}
	return Snapshot{
		ShortcutsByRole: byRole,
		Collections:     w.Collections(),
		Bookmarks:       w.Bookmarks(),
		CollectionSeq:   w.collectionSeq,
	}
}

// Restore replaces the whole state with snap. It counts as one mutation.
func (w *Workspace) Restore(snap Snapshot) {
	w.shortcuts = make(map[string][]domain.Shortcut, len(snap.ShortcutsByRole))
	for role, list := range snap.ShortcutsByRole {
		w.shortcuts[role] = slices.Clone(list)
	}

	w.bookmarks = make(map[string]struct{}, len(snap.Bookmarks))
	for _, id := range snap.Bookmarks {
		w.bookmarks[id] = struct{}{}
	}

	w.collections = make([]domain.Collection, len(snap.Collections))
	for i, c := range snap.Collections {
		c.Items = slices.Clone(c.Items)
		if c.Items == nil {
			c.Items = []domain.ItemRef{}
		}
		w.collections[i] = c
	}

	// Snapshots written before the counter existed only carry the collections.
	w.collectionSeq = max(snap.CollectionSeq, len(w.collections))
	w.touch()
}

// Roles returns the roles that have a shortcut list, sorted.
func (w *Workspace) Roles() []string {
	return slices.Sorted(maps.Keys(w.shortcuts))
}
