package session

import "github.com/MrSnakeDoc/hub/internal/domain"

// View is what the presentation layer renders for one role.
type View struct {
	Role        string              `json:"role"`
	Shortcuts   []domain.Shortcut   `json:"shortcuts"`
	Collections []domain.Collection `json:"collections"`
	Bookmarks   []string            `json:"bookmarks"`
	Drag        *DragView           `json:"drag,omitempty"`
}

// DragView describes an in-progress drag.
type DragView struct {
	Role    string         `json:"role"`
	Source  int            `json:"source"`
	Payload domain.ItemRef `json:"payload"`
}

// IsBookmarked reports whether docID is in the view's bookmark set.
func (v View) IsBookmarked(docID string) bool {
	for _, id := range v.Bookmarks {
		if id == docID {
			return true
		}
	}
	return false
}

func render(e *entry, role string) View {
	v := View{
		Role:        role,
		Shortcuts:   e.ws.Shortcuts(role),
		Collections: e.ws.Collections(),
		Bookmarks:   e.ws.Bookmarks(),
	}
	if dragRole, source, payload, ok := e.drag.Current(); ok {
		v.Drag = &DragView{Role: dragRole, Source: source, Payload: payload}
	}
	return v
}
