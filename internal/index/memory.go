package index

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hub/internal/domain"
)

// Corpus is everything one load of the corpus file produces.
type Corpus struct {
	Documents   []*domain.Document
	Roles       []string
	Shortcuts   map[string][]domain.Shortcut // role -> built-in shortcuts
	Suggestions []string                     // offered when a search finds nothing
}

// snapshot is an immutable view of a Corpus. It is never modified after
// Replace builds it, so readers may keep using it across reloads.
type snapshot struct {
	corpus Corpus
	byID   map[string]*domain.Document
}

// MemoryIndex holds the current corpus snapshot.
type MemoryIndex struct {
	mu         sync.RWMutex
	current    *snapshot
	lastReload time.Time
	generation uint64 // incremented by every Replace
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		current: &snapshot{byID: map[string]*domain.Document{}},
	}
}

// Replace swaps in a new corpus. Later documents win on duplicate IDs in the
// lookup, but corpus order is kept as loaded.
func (idx *MemoryIndex) Replace(c Corpus) {
	snap := &snapshot{
		corpus: Corpus{
			Documents:   slices.Clone(c.Documents),
			Roles:       slices.Clone(c.Roles),
			Shortcuts:   make(map[string][]domain.Shortcut, len(c.Shortcuts)),
			Suggestions: slices.Clone(c.Suggestions),
		},
		byID: make(map[string]*domain.Document, len(c.Documents)),
	}
	for role, list := range c.Shortcuts {
		snap.corpus.Shortcuts[role] = slices.Clone(list)
	}
	for _, doc := range c.Documents {
		snap.byID[doc.ID] = doc
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.current = snap
	idx.lastReload = time.Now()
	idx.generation++
}

func (idx *MemoryIndex) snap() *snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.current
}

// Documents returns the corpus in load order. The slice is a copy; the
// documents themselves are shared and must not be modified.
func (idx *MemoryIndex) Documents() []*domain.Document {
	return slices.Clone(idx.snap().corpus.Documents)
}

// Document retrieves a document by ID
func (idx *MemoryIndex) Document(id string) (*domain.Document, bool) {
	doc, ok := idx.snap().byID[id]
	return doc, ok
}

// Roles returns the role codes declared by the corpus, falling back to the
// default set.
func (idx *MemoryIndex) Roles() []string {
	roles := idx.snap().corpus.Roles
	if len(roles) == 0 {
		return slices.Clone(domain.DefaultRoles)
	}
	return slices.Clone(roles)
}

// BuiltinShortcuts returns a copy of the built-in shortcuts per role.
func (idx *MemoryIndex) BuiltinShortcuts() map[string][]domain.Shortcut {
	src := idx.snap().corpus.Shortcuts
	out := make(map[string][]domain.Shortcut, len(src))
	for role, list := range src {
		out[role] = slices.Clone(list)
	}
	return out
}

// Suggestions returns the queries offered when a search has no result.
func (idx *MemoryIndex) Suggestions() []string {
	return slices.Clone(idx.snap().corpus.Suggestions)
}

// Search ranks the current corpus.
func (idx *MemoryIndex) Search(query, role string, filters domain.FilterSet, now time.Time) []*domain.Candidate {
	return domain.Rank(idx.snap().corpus.Documents, query, role, filters, now)
}

// Assist answers query with pointers from the current corpus.
func (idx *MemoryIndex) Assist(query, role string, filters domain.FilterSet, now time.Time) string {
	return domain.Assist(idx.snap().corpus.Documents, query, role, filters, now)
}

// Count returns the number of documents in the index
func (idx *MemoryIndex) Count() int {
	return len(idx.snap().corpus.Documents)
}

// SourceCounts returns how many documents each source contributes.
func (idx *MemoryIndex) SourceCounts() map[domain.Source]int {
	counts := map[domain.Source]int{}
	for _, doc := range idx.snap().corpus.Documents {
		counts[doc.Source]++
	}
	return counts
}

// Sources returns the distinct sources present, sorted.
func (idx *MemoryIndex) Sources() []domain.Source {
	return slices.Sorted(maps.Keys(idx.SourceCounts()))
}

// GetLastReload returns the timestamp of the last corpus reload
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// Generation returns how many times the corpus was replaced.
func (idx *MemoryIndex) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.generation
}
