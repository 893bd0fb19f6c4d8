// Package session owns the per-session personalization state. Each session
// gets one Workspace and one DragController, loaded from the snapshot store
// the first time the session is seen and written back after every intent
// that changed something.
//
// The registry is the only place that synchronizes: intents for one session
// run one at a time under that session's lock, which is what keeps the
// unsynchronized workspace types safe behind a concurrent HTTP server.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/metrics"
	"github.com/MrSnakeDoc/hub/internal/workspace"
)

// Store persists workspace snapshots.
type Store interface {
	LoadSnapshot(ctx context.Context, sessionID string) (workspace.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, sessionID string, snap workspace.Snapshot) error
}

// batchSaver is implemented by stores that can write many snapshots at once.
type batchSaver interface {
	SaveSnapshotsMany(ctx context.Context, snaps map[string]workspace.Snapshot) error
}

// Corpus is what a session needs from the document index.
type Corpus interface {
	workspace.DocumentLookup
	BuiltinShortcuts() map[string][]domain.Shortcut
}

// ErrInvalidID is returned for session IDs that cannot be used as store keys.
var ErrInvalidID = errors.New("invalid session id")

var validID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ValidID reports whether id can name a session.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// DefaultWriteTimeout bounds a single snapshot write.
const DefaultWriteTimeout = 2 * time.Second

// Handle gives an intent access to a session's state. It is only valid
// inside the function passed to Apply.
type Handle struct {
	Workspace *workspace.Workspace
	Drag      *workspace.DragController
}

type entry struct {
	mu sync.Mutex

	id       string
	ws       *workspace.Workspace
	drag     *workspace.DragController
	saved    uint64 // workspace revision last written to the store
	lastSeen time.Time
	evicted  bool
}

func (e *entry) dirty() bool {
	return e.ws != nil && e.ws.Revision() != e.saved
}

// Registry maps session IDs to their live state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	store        Store
	corpus       Corpus
	logger       logger.Logger
	now          func() time.Time
	writeTimeout time.Duration
	newWorkspace func(Corpus, workspace.Snapshot) *workspace.Workspace
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, for idle eviction tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithWriteTimeout bounds each snapshot write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithWorkspaceOptions passes options to every workspace the registry creates.
func WithWorkspaceOptions(opts ...workspace.Option) Option {
	return func(r *Registry) {
		r.newWorkspace = func(c Corpus, snap workspace.Snapshot) *workspace.Workspace {
			return workspace.New(c, snap, opts...)
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(store Store, corpus Corpus, log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		sessions:     make(map[string]*entry),
		store:        store,
		corpus:       corpus,
		logger:       log,
		now:          time.Now,
		writeTimeout: DefaultWriteTimeout,
		newWorkspace: func(c Corpus, snap workspace.Snapshot) *workspace.Workspace {
			return workspace.New(c, snap)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply runs fn with exclusive access to the session, persists the workspace
// if fn changed it, and returns the resulting view for role. A nil fn only
// renders the view. op names the intent in metrics and logs.
//
// The only errors come from loading the session's stored state. Failed
// writes are logged and retried on the next change or flush.
func (r *Registry) Apply(ctx context.Context, sessionID, role, op string, fn func(h Handle)) (View, error) {
	if !ValidID(sessionID) {
		return View{}, fmt.Errorf("%w: %q", ErrInvalidID, sessionID)
	}

	for {
		e := r.entry(sessionID)

		e.mu.Lock()
		if e.evicted {
			// Lost a race with the janitor. The next lookup creates a fresh entry.
			e.mu.Unlock()
			continue
		}

		view, err := r.applyLocked(ctx, e, role, op, fn)
		e.mu.Unlock()
		return view, err
	}
}

// View renders the session for role without changing it.
func (r *Registry) View(ctx context.Context, sessionID, role string) (View, error) {
	return r.Apply(ctx, sessionID, role, "", nil)
}

func (r *Registry) applyLocked(ctx context.Context, e *entry, role, op string, fn func(h Handle)) (View, error) {
	if e.ws == nil {
		if err := r.load(ctx, e); err != nil {
			r.forget(e)
			return View{}, err
		}
	}
	e.lastSeen = r.now()

	if fn != nil {
		before := e.ws.Revision()
		fn(Handle{Workspace: e.ws, Drag: e.drag})
		changed := e.ws.Revision() != before
		if op != "" {
			metrics.WorkspaceMutationsTotal.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
		}
	}

	if e.dirty() {
		r.persist(ctx, e)
	}

	return render(e, role), nil
}

func (r *Registry) entry(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		e = &entry{id: id}
		r.sessions[id] = e
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	return e
}

// forget drops an entry whose load failed so the next request retries.
// Caller holds e.mu.
func (r *Registry) forget(e *entry) {
	e.evicted = true

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[e.id] == e {
		delete(r.sessions, e.id)
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
}

func (r *Registry) load(ctx context.Context, e *entry) error {
	snap, found, err := r.store.LoadSnapshot(ctx, e.id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", e.id, err)
	}
	if !found {
		snap = workspace.DefaultSnapshot(r.corpus.BuiltinShortcuts())
	}

	e.ws = r.newWorkspace(r.corpus, snap)
	e.drag = workspace.NewDragController(e.ws)
	// Defaults are only written once something changes.
	e.saved = e.ws.Revision()

	r.logger.Debug("session loaded",
		logger.String("session", e.id),
		logger.Bool("stored", found))
	return nil
}

// persist writes the snapshot. The write outlives a cancelled request so a
// client hanging up mid-intent does not lose the change.
func (r *Registry) persist(ctx context.Context, e *entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	rev := e.ws.Revision()
	err := r.store.SaveSnapshot(ctx, e.id, e.ws.Snapshot())
	metrics.SnapshotWritesTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		r.logger.Warn("failed to save workspace, keeping in-memory state",
			logger.String("session", e.id),
			logger.Uint64("revision", rev),
			logger.Error(err))
		return
	}
	e.saved = rev
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) entries() []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e)
	}
	// Fixed order, so callers locking several entries agree on it.
	slices.SortFunc(out, func(a, b *entry) int { return strings.Compare(a.id, b.id) })
	return out
}

// EvictIdle flushes and drops sessions not used for longer than idle. A
// session whose flush fails stays in memory. It returns how many sessions
// were evicted.
func (r *Registry) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	evicted := 0

	for _, e := range r.entries() {
		e.mu.Lock()
		if e.evicted || e.ws == nil || e.lastSeen.After(cutoff) {
			e.mu.Unlock()
			continue
		}
		if e.dirty() {
			r.persist(ctx, e)
			if e.dirty() {
				e.mu.Unlock()
				continue
			}
		}
		r.forget(e)
		e.mu.Unlock()
		evicted++
	}

	return evicted
}

// Flush writes every session with unsaved changes, in one batch when the
// store supports it.
func (r *Registry) Flush(ctx context.Context) error {
	var dirty []*entry
	for _, e := range r.entries() {
		e.mu.Lock()
		if e.dirty() && !e.evicted {
			dirty = append(dirty, e)
		} else {
			e.mu.Unlock()
		}
	}
	if len(dirty) == 0 {
		return nil
	}
	defer func() {
		for _, e := range dirty {
			e.mu.Unlock()
		}
	}()

	if bs, ok := r.store.(batchSaver); ok {
		snaps := make(map[string]workspace.Snapshot, len(dirty))
		for _, e := range dirty {
			snaps[e.id] = e.ws.Snapshot()
		}
		err := bs.SaveSnapshotsMany(ctx, snaps)
		metrics.SnapshotWritesTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("failed to flush %d sessions: %w", len(dirty), err)
		}
		for _, e := range dirty {
			e.saved = e.ws.Revision()
		}
		return nil
	}

	var errs []error
	for _, e := range dirty {
		rev := e.ws.Revision()
		err := r.store.SaveSnapshot(ctx, e.id, e.ws.Snapshot())
		metrics.SnapshotWritesTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", e.id, err))
			continue
		}
		e.saved = rev
	}
	return errors.Join(errs...)
}
