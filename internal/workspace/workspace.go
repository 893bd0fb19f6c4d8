// Package workspace holds the per-session personalization state: role-scoped
// shortcut lists, the bookmark set and the user's collections.
//
// Every mutator is total. Bad indices, unknown ids and duplicates are no-ops,
// never errors. A Workspace is not safe for concurrent use; its owner
// serializes calls (see package session).
package workspace

import (
	"slices"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/hub/internal/domain"
)

// DocumentLookup resolves corpus documents by id.
type DocumentLookup interface {
	Document(id string) (*domain.Document, bool)
}

// Workspace is the personalization state of one session.
type Workspace struct {
	docs  DocumentLookup
	newID func() string

	shortcuts     map[string][]domain.Shortcut // role -> ordered list
	bookmarks     map[string]struct{}          // document IDs
	collections   []domain.Collection
	collectionSeq int // collections ever created, seed included

	revision uint64
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithIDGenerator replaces the collection id generator.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workspace) { w.newID = gen }
}

// New creates a workspace initialized from snap.
func New(docs DocumentLookup, snap Snapshot, opts ...Option) *Workspace {
	w := &Workspace{
		docs:  docs,
		newID: func() string { return "col-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(w)
	}
	w.Restore(snap)
	return w
}

// Revision advances on every effective mutation. Callers compare revisions
// to decide whether state needs to be written back.
func (w *Workspace) Revision() uint64 {
	return w.revision
}

func (w *Workspace) touch() {
	w.revision++
}

// ─────────────────────────────────────────────────────────────────
// Shortcuts
// ─────────────────────────────────────────────────────────────────

// Shortcuts returns a copy of role's shortcut list in display order.
func (w *Workspace) Shortcuts(role string) []domain.Shortcut {
	list := w.shortcuts[role]
	out := make([]domain.Shortcut, len(list))
	copy(out, list)
	return out
}

// ReorderShortcuts moves the shortcut at from to position to, shifting the
// ones in between.
func (w *Workspace) ReorderShortcuts(role string, from, to int) {
	list := w.shortcuts[role]
	if from == to || from < 0 || to < 0 || from >= len(list) || to >= len(list) {
		return
	}

	moved := list[from]
	list = slices.Delete(list, from, from+1)
	list = slices.Insert(list, to, moved)
	w.shortcuts[role] = list
	w.touch()
}

// AddCustomShortcut appends s to role's list unless it duplicates an entry.
// The stored shortcut is always marked custom.
func (w *Workspace) AddCustomShortcut(role string, s domain.Shortcut) {
	list := w.shortcuts[role]
	for _, existing := range list {
		if s.Duplicates(existing) {
			return
		}
	}

	s.IsCustom = true
	w.shortcuts[role] = append(list, s)
	w.touch()
}

// RemoveCustomShortcut removes the custom shortcut created for docID.
func (w *Workspace) RemoveCustomShortcut(role, docID string) {
	list := w.shortcuts[role]
	kept := slices.DeleteFunc(slices.Clone(list), func(s domain.Shortcut) bool {
		return s.IsCustom && s.DocID == docID
	})
	if len(kept) == len(list) {
		return
	}
	w.shortcuts[role] = kept
	w.touch()
}

// ─────────────────────────────────────────────────────────────────
// Bookmarks
// ─────────────────────────────────────────────────────────────────

// IsBookmarked reports whether docID is in the bookmark set.
func (w *Workspace) IsBookmarked(docID string) bool {
	_, ok := w.bookmarks[docID]
	return ok
}

// Bookmarks returns the bookmarked document IDs, sorted.
func (w *Workspace) Bookmarks() []string {
	out := make([]string, 0, len(w.bookmarks))
	for id := range w.bookmarks {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ToggleBookmark flips the bookmark on docID and keeps role's shortcut list
// in step: bookmarking adds a custom shortcut for the document, un-bookmarking
// removes it. Documents missing from the corpus can be un-bookmarked but not
// bookmarked.
//
// The bookmark set is shared by all roles while the shortcut only lands in
// role's list.
func (w *Workspace) ToggleBookmark(docID, role string) {
	if w.IsBookmarked(docID) {
		delete(w.bookmarks, docID)
		w.touch()
		w.RemoveCustomShortcut(role, docID)
		return
	}

	doc, ok := w.lookup(docID)
	if !ok {
		return
	}
	w.bookmarks[docID] = struct{}{}
	w.touch()
	w.AddCustomShortcut(role, domain.ShortcutFor(doc))
}

func (w *Workspace) lookup(docID string) (*domain.Document, bool) {
	if w.docs == nil {
		return nil, false
	}
	return w.docs.Document(docID)
}

// ─────────────────────────────────────────────────────────────────
// Collections
// ─────────────────────────────────────────────────────────────────

// Collections returns a deep copy of the collections in display order.
func (w *Workspace) Collections() []domain.Collection {
	out := make([]domain.Collection, len(w.collections))
	for i, c := range w.collections {
		c.Items = slices.Clone(c.Items)
		out[i] = c
	}
	return out
}

// CreateCollection appends an empty collection with a generated id and a
// default name, and returns its id.
func (w *Workspace) CreateCollection() string {
	w.collectionSeq++
	col := domain.Collection{
		ID:    w.newID(),
		Name:  domain.DefaultCollectionName(w.collectionSeq),
		Items: []domain.ItemRef{},
	}
	w.collections = append(w.collections, col)
	w.touch()
	return col.ID
}

// AddItemToCollection appends a shortcut reference to label unless present.
func (w *Workspace) AddItemToCollection(collectionID, label string) {
	w.addRef(collectionID, domain.ShortcutRef(label))
}

func (w *Workspace) addRef(collectionID string, ref domain.ItemRef) {
	col := w.collection(collectionID)
	if col == nil || col.Contains(ref) {
		return
	}
	col.Items = append(col.Items, ref)
	w.touch()
}

// RemoveItemFromCollection removes item, matched exactly.
func (w *Workspace) RemoveItemFromCollection(collectionID string, item domain.ItemRef) {
	col := w.collection(collectionID)
	if col == nil {
		return
	}
	idx := slices.Index(col.Items, item)
	if idx < 0 {
		return
	}
	col.Items = slices.Delete(col.Items, idx, idx+1)
	w.touch()
}

// RenameCollection replaces the name verbatim. Empty names are accepted.
func (w *Workspace) RenameCollection(collectionID, name string) {
	col := w.collection(collectionID)
	if col == nil || col.Name == name {
		return
	}
	col.Name = name
	w.touch()
}

// DeleteCollection removes the collection if it exists.
func (w *Workspace) DeleteCollection(collectionID string) {
	idx := slices.IndexFunc(w.collections, func(c domain.Collection) bool {
		return c.ID == collectionID
	})
	if idx < 0 {
		return
	}
	w.collections = slices.Delete(w.collections, idx, idx+1)
	w.touch()
}

func (w *Workspace) collection(id string) *domain.Collection {
	for i := range w.collections {
		if w.collections[i].ID == id {
			return &w.collections[i]
		}
	}
	return nil
}
