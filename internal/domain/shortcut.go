package domain

// DefaultRoles are the role codes offered when the corpus file lists none.
var DefaultRoles = []string{"SW", "PM", "DP", "QA", "IT"}

// Shortcut is a quick-link in one role's shortcut list.
type Shortcut struct {
	// Label is the display text. It is the dedup key for non-custom shortcuts
	// and the payload carried into collections.
	Label string `json:"label"`

	// Href is the target link.
	Href string `json:"href"`

	// IsCustom is true for user-added shortcuts, false for built-ins.
	IsCustom bool `json:"isCustom,omitempty"`

	// DocID is set only on custom shortcuts created by bookmarking a document.
	// It is the dedup key for those shortcuts.
	DocID string `json:"docId,omitempty"`
}

// ShortcutFor builds the custom shortcut that bookmarking doc creates.
func ShortcutFor(doc *Document) Shortcut {
	return Shortcut{
		Label:    doc.Title,
		Href:     doc.URL,
		IsCustom: true,
		DocID:    doc.ID,
	}
}

// Duplicates reports whether s would duplicate existing under the shortcut
// dedup rule: by DocID among custom shortcuts when s carries one, else by label.
func (s Shortcut) Duplicates(existing Shortcut) bool {
	if s.DocID != "" {
		return existing.IsCustom && existing.DocID == s.DocID
	}
	return existing.Label == s.Label
}
