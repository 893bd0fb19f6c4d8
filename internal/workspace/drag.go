package workspace

import "github.com/MrSnakeDoc/hub/internal/domain"

// DragState is the state of a DragController.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// Committer receives the mutation a completed drop commits to.
type Committer interface {
	ReorderShortcuts(role string, from, to int)
	AddItemToCollection(collectionID, label string)
}

// DragController turns begin/drop/cancel gestures into at most one store
// mutation per drag. The role is captured when the drag begins so a role
// switch mid-drag cannot redirect the reorder to another list.
type DragController struct {
	target Committer

	state   DragState
	role    string
	source  int
	payload domain.ItemRef
}

// NewDragController returns an idle controller committing into target.
func NewDragController(target Committer) *DragController {
	return &DragController{target: target}
}

// State returns the current state.
func (d *DragController) State() DragState {
	return d.state
}

// Current returns what is being dragged. ok is false while idle.
func (d *DragController) Current() (role string, source int, payload domain.ItemRef, ok bool) {
	if d.state != DragDragging {
		return "", 0, domain.ItemRef{}, false
	}
	return d.role, d.source, d.payload, true
}

// BeginDrag starts dragging the shortcut at index in role's list. Beginning
// while already dragging replaces the previous drag.
func (d *DragController) BeginDrag(role string, index int, payload domain.ItemRef) {
	d.state = DragDragging
	d.role = role
	d.source = index
	d.payload = payload
}

// DropOnShortcutSlot reorders the dragged shortcut to target. It is a no-op
// while idle; the controller returns to idle either way.
func (d *DragController) DropOnShortcutSlot(target int) {
	if d.state != DragDragging {
		return
	}
	role, source := d.role, d.source
	d.reset()
	d.target.ReorderShortcuts(role, source, target)
}

// DropOnCollection adds the dragged shortcut to the collection. Payloads that
// are not shortcut references are discarded.
func (d *DragController) DropOnCollection(collectionID string) {
	if d.state != DragDragging {
		return
	}
	payload := d.payload
	d.reset()
	if payload.Kind != domain.ItemKindShortcut {
		return
	}
	d.target.AddItemToCollection(collectionID, payload.Label)
}

// Cancel abandons the drag without mutating anything.
func (d *DragController) Cancel() {
	d.reset()
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.role = ""
	d.source = 0
	d.payload = domain.ItemRef{}
}
