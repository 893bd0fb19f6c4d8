package domain

import (
	"fmt"
	"strings"
)

// ItemKind tags what an ItemRef points at.
type ItemKind string

// ItemKindShortcut is the only reference kind so far.
const ItemKindShortcut ItemKind = "shortcut"

// ItemRef is a typed reference stored in a collection.
// Its text form is "<kind>:<label>", e.g. "shortcut:Merge Projects".
type ItemRef struct {
	Kind  ItemKind
	Label string
}

// ShortcutRef references a shortcut by label.
func ShortcutRef(label string) ItemRef {
	return ItemRef{Kind: ItemKindShortcut, Label: label}
}

// ParseItemRef parses the text form of a reference.
func ParseItemRef(s string) (ItemRef, error) {
	kind, label, ok := strings.Cut(s, ":")
	if !ok {
		return ItemRef{}, fmt.Errorf("invalid item reference %q: missing kind", s)
	}
	switch ItemKind(kind) {
	case ItemKindShortcut:
		return ShortcutRef(label), nil
	default:
		return ItemRef{}, fmt.Errorf("invalid item reference %q: unknown kind %q", s, kind)
	}
}

func (r ItemRef) String() string {
	return string(r.Kind) + ":" + r.Label
}

// MarshalText keeps the persisted layout as plain "kind:label" strings.
func (r ItemRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *ItemRef) UnmarshalText(b []byte) error {
	ref, err := ParseItemRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// Collection is a user-named, ordered group of item references.
type Collection struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Items []ItemRef `json:"items"`
}

// Contains reports whether ref is already in the collection.
func (c *Collection) Contains(ref ItemRef) bool {
	for _, it := range c.Items {
		if it == ref {
			return true
		}
	}
	return false
}

// DefaultCollectionName is the name given to the n-th created collection.
func DefaultCollectionName(n int) string {
	return fmt.Sprintf("My Collection %d", n)
}

// SeedCollection is the collection every new workspace starts with.
func SeedCollection() Collection {
	return Collection{
		ID:   "col-kickoff",
		Name: "Tools Info Collection",
		Items: []ItemRef{
			ShortcutRef("Merge Projects"),
			ShortcutRef("ATR Tool"),
		},
	}
}
