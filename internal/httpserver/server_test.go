package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hub/internal/config"
	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hub/internal/index"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/session"
	"github.com/MrSnakeDoc/hub/internal/store/memory"
	"github.com/MrSnakeDoc/hub/internal/workspace"
)

var evalTime = time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return evalTime.Add(-time.Duration(n) * 24 * time.Hour)
}

func testCorpus() index.Corpus {
	return index.Corpus{
		Documents: []*domain.Document{
			{
				ID:             "SW_3",
				Title:          "Merge Projects",
				ContentExcerpt: "Desktop application used by scriptwriters",
				URL:            "/merge",
				Source:         domain.SourceConfluence,
				Roles:          []string{"SW"},
				LastVerified:   daysAgo(15),
				Clicks:         28,
			},
			{
				ID:             "QA_2",
				Title:          "IIS Data Transformation Application",
				ContentExcerpt: "Steps to merge and export data for clients",
				Source:         domain.SourceConfluence,
				Roles:          []string{"QA", "DP"},
				LastVerified:   daysAgo(10),
				Clicks:         55,
			},
			{
				ID:             "SW_1",
				Title:          "ATR Tool",
				ContentExcerpt: "MDD Case Data Generator",
				URL:            "/atr",
				Source:         domain.SourceTools,
				Roles:          []string{"QA", "SW"},
				LastVerified:   daysAgo(90),
				Clicks:         19,
			},
		},
		Roles: []string{"SW", "QA"},
		Shortcuts: map[string][]domain.Shortcut{
			"SW": {{Label: "Merge Projects", Href: "/merge"}, {Label: "ATR Tool", Href: "/atr"}},
		},
		Suggestions: []string{"Export weights SPSS to Excel"},
	}
}

type failingStore struct{}

func (failingStore) LoadSnapshot(context.Context, string) (workspace.Snapshot, bool, error) {
	return workspace.Snapshot{}, false, errors.New("redis down")
}

func (failingStore) SaveSnapshot(context.Context, string, workspace.Snapshot) error {
	return errors.New("redis down")
}

func (failingStore) Ping(context.Context) error { return errors.New("redis down") }

type testEnv struct {
	handler http.Handler
	index   *index.MemoryIndex
	reload  chan struct{}
}

type envOption func(cfg *config.Config, d *deps.Deps)

func withStore(s interface {
	session.Store
	deps.Pinger
}) envOption {
	return func(_ *config.Config, d *deps.Deps) {
		d.Sessions = session.NewRegistry(s, d.Index, d.Logger)
		d.Store = s
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	idx := index.NewMemoryIndex()
	idx.Replace(testCorpus())
	store := memory.NewStore()
	log := logger.NewNop()
	reload := make(chan struct{}, 1)

	cfg := &config.Config{ListenPort: ":0"}
	d := deps.Deps{
		Logger:         log,
		StartTime:      evalTime,
		TimeNow:        func() time.Time { return evalTime },
		Index:          idx,
		Sessions:       session.NewRegistry(store, idx, log),
		Store:          store,
		StoreBackend:   "memory",
		DefaultRole:    "SW",
		DefaultSession: "default",
		ReloadTrigger:  reload,
	}
	for _, opt := range opts {
		opt(cfg, &d)
	}

	return &testEnv{
		handler: NewRouter(cfg, log, d),
		index:   idx,
		reload:  reload,
	}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionID != "" {
		req.Header.Set(handlers.SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

type searchBody struct {
	Total   int `json:"total"`
	Results []struct {
		ID         string `json:"id"`
		Score      int    `json:"score"`
		Verified   bool   `json:"verified"`
		Bookmarked bool   `json:"bookmarked"`
	} `json:"results"`
	Suggestions []string `json:"suggestions"`
}

func labels(list []domain.Shortcut) string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Label
	}
	return strings.Join(out, ",")
}

// ─────────────────────────────
// Search
// ─────────────────────────────

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/search?q=merge&role=SW", "alice", "")
	expectStatus(t, rec, http.StatusOK)
	body := decode[searchBody](t, rec)

	if body.Total != 3 || body.Results[0].ID != "SW_3" {
		t.Fatalf("results = %+v, want SW_3 first of 3", body.Results)
	}
	if body.Results[0].Bookmarked {
		t.Error("nothing is bookmarked yet")
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/bookmarks/SW_3/toggle?role=SW", "alice", ""), http.StatusOK)

	body = decode[searchBody](t, env.do(t, http.MethodGet, "/api/search?q=merge&role=SW", "alice", ""))
	if !body.Results[0].Bookmarked {
		t.Error("SW_3 should be flagged as bookmarked for alice")
	}
	body = decode[searchBody](t, env.do(t, http.MethodGet, "/api/search?q=merge&role=SW", "bob", ""))
	if body.Results[0].Bookmarked {
		t.Error("bookmarks leaked across sessions")
	}
}

func TestSearchFilters(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
		wantTotal  int
	}{
		{"only verified drops stale docs", "?q=merge&verified=true", http.StatusOK, []string{"SW_3", "QA_2"}, 2},
		{"source filter", "?q=&source=Tools", http.StatusOK, []string{"SW_1"}, 1},
		{"comma separated sources", "?q=merge&source=tools,confluence", http.StatusOK, []string{"SW_3", "QA_2", "SW_1"}, 3},
		{"limit", "?q=merge&limit=1", http.StatusOK, []string{"SW_3"}, 3},
		{"invalid verified", "?q=merge&verified=maybe", http.StatusBadRequest, nil, 0},
		{"invalid limit", "?q=merge&limit=-2", http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/search"+tt.query, "", "")
			expectStatus(t, rec, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}

			body := decode[searchBody](t, rec)
			if body.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", body.Total, tt.wantTotal)
			}
			got := make([]string, len(body.Results))
			for i, r := range body.Results {
				got[i] = r.ID
			}
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestSearchNoResultsOffersSuggestions(t *testing.T) {
	env := newTestEnv(t)

	body := decode[searchBody](t, env.do(t, http.MethodGet, "/api/search?q=merge&source=File+Share", "", ""))
	if body.Total != 0 || len(body.Results) != 0 {
		t.Fatalf("results = %+v, want none", body.Results)
	}
	if len(body.Suggestions) != 1 {
		t.Errorf("suggestions = %v, want the corpus suggestions", body.Suggestions)
	}
}

func TestSearchDegradesWithoutStore(t *testing.T) {
	env := newTestEnv(t, withStore(failingStore{}))

	rec := env.do(t, http.MethodGet, "/api/search?q=merge", "alice", "")
	expectStatus(t, rec, http.StatusOK)
	if body := decode[searchBody](t, rec); body.Total != 3 {
		t.Errorf("total = %d, want 3", body.Total)
	}
}

func TestAssist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/assist?q=merge&role=SW", "", "")
	expectStatus(t, rec, http.StatusOK)
	body := decode[struct {
		Answer string `json:"answer"`
	}](t, rec)

	if !strings.Contains(body.Answer, "Merge Projects (Confluence)") {
		t.Errorf("answer = %q, want it to cite Merge Projects", body.Answer)
	}
}

// ─────────────────────────────
// Workspace
// ─────────────────────────────

func TestWorkspaceDefaults(t *testing.T) {
	env := newTestEnv(t)

	view := decode[session.View](t, env.do(t, http.MethodGet, "/api/workspace", "alice", ""))
	if view.Role != "SW" || labels(view.Shortcuts) != "Merge Projects,ATR Tool" {
		t.Errorf("view = %+v, want SW built-ins", view)
	}
	if len(view.Collections) != 1 || view.Collections[0].Name != "Tools Info Collection" {
		t.Errorf("collections = %+v, want the seed collection", view.Collections)
	}

	view = decode[session.View](t, env.do(t, http.MethodGet, "/api/workspace?role=IT", "alice", ""))
	if len(view.Shortcuts) != 0 {
		t.Errorf("unknown role shortcuts = %+v, want none", view.Shortcuts)
	}
}

func TestBookmarkToggleIsRoleScoped(t *testing.T) {
	env := newTestEnv(t)

	view := decode[session.View](t, env.do(t, http.MethodPost, "/api/bookmarks/SW_3/toggle?role=QA", "alice", ""))
	if !view.IsBookmarked("SW_3") || labels(view.Shortcuts) != "Merge Projects" {
		t.Errorf("QA view = %+v", view)
	}

	// The bookmark set is global, the shortcut only lives under QA.
	view = decode[session.View](t, env.do(t, http.MethodGet, "/api/workspace?role=SW", "alice", ""))
	if !view.IsBookmarked("SW_3") || labels(view.Shortcuts) != "Merge Projects,ATR Tool" {
		t.Errorf("SW view = %+v", view)
	}

	view = decode[session.View](t, env.do(t, http.MethodPost, "/api/bookmarks/SW_3/toggle?role=QA", "alice", ""))
	if view.IsBookmarked("SW_3") || len(view.Shortcuts) != 0 {
		t.Errorf("second toggle should undo the first, got %+v", view)
	}
}

func TestShortcuts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/shortcuts/reorder", "alice", `{"from":0,"to":1}`)
	expectStatus(t, rec, http.StatusOK)
	if got := labels(decode[session.View](t, rec).Shortcuts); got != "ATR Tool,Merge Projects" {
		t.Errorf("after reorder = %s", got)
	}

	view := decode[session.View](t, env.do(t, http.MethodPost, "/api/shortcuts", "alice", `{"label":"Wiki","href":"/wiki","docId":"KB_1"}`))
	if got := labels(view.Shortcuts); got != "ATR Tool,Merge Projects,Wiki" {
		t.Errorf("after add = %s", got)
	}
	if !view.Shortcuts[2].IsCustom {
		t.Error("added shortcut should be custom")
	}

	view = decode[session.View](t, env.do(t, http.MethodDelete, "/api/shortcuts/KB_1", "alice", ""))
	if got := labels(view.Shortcuts); got != "ATR Tool,Merge Projects" {
		t.Errorf("after remove = %s", got)
	}

	// Out of range indices are a no-op, not an error.
	rec = env.do(t, http.MethodPost, "/api/shortcuts/reorder", "alice", `{"from":7,"to":0}`)
	expectStatus(t, rec, http.StatusOK)

	bad := []struct {
		name string
		path string
		body string
	}{
		{"invalid json", "/api/shortcuts/reorder", `{"from":`},
		{"missing to", "/api/shortcuts/reorder", `{"from":1}`},
		{"empty body", "/api/shortcuts", ""},
		{"missing label", "/api/shortcuts", `{"href":"/x"}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do(t, http.MethodPost, tt.path, "alice", tt.body), http.StatusBadRequest)
		})
	}
}

func TestCollections(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/collections", "alice", "")
	expectStatus(t, rec, http.StatusCreated)
	id := strings.TrimPrefix(rec.Header().Get("Location"), "/api/collections/")
	if !strings.HasPrefix(id, "col-") {
		t.Fatalf("Location = %q, want a collection id", rec.Header().Get("Location"))
	}
	view := decode[session.View](t, rec)
	if len(view.Collections) != 2 || view.Collections[1].Name != "My Collection 2" {
		t.Fatalf("collections = %+v", view.Collections)
	}

	view = decode[session.View](t, env.do(t, http.MethodPatch, "/api/collections/"+id, "alice", `{"name":"Onboarding"}`))
	if view.Collections[1].Name != "Onboarding" {
		t.Errorf("name = %q, want Onboarding", view.Collections[1].Name)
	}

	view = decode[session.View](t, env.do(t, http.MethodPost, "/api/collections/"+id+"/items", "alice", `{"label":"ATR Tool"}`))
	if items := view.Collections[1].Items; len(items) != 1 || items[0] != domain.ShortcutRef("ATR Tool") {
		t.Errorf("items = %+v", items)
	}

	view = decode[session.View](t, env.do(t, http.MethodDelete, "/api/collections/"+id+"/items", "alice", `{"item":"shortcut:ATR Tool"}`))
	if len(view.Collections[1].Items) != 0 {
		t.Errorf("items after remove = %+v", view.Collections[1].Items)
	}

	expectStatus(t, env.do(t, http.MethodDelete, "/api/collections/"+id+"/items", "alice", `{"item":"bogus"}`), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPatch, "/api/collections/"+id, "alice", `{"name":"  "}`), http.StatusBadRequest)

	view = decode[session.View](t, env.do(t, http.MethodDelete, "/api/collections/"+id, "alice", ""))
	if len(view.Collections) != 1 {
		t.Errorf("collections after delete = %+v", view.Collections)
	}

	// Deleting an unknown collection is a no-op.
	expectStatus(t, env.do(t, http.MethodDelete, "/api/collections/col-missing", "alice", ""), http.StatusOK)
}

func TestDrag(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/drag/begin?role=SW", "alice", `{"index":0,"payload":"shortcut:Merge Projects"}`)
	expectStatus(t, rec, http.StatusOK)
	if view := decode[session.View](t, rec); view.Drag == nil || view.Drag.Payload.Label != "Merge Projects" {
		t.Fatalf("drag = %+v", view.Drag)
	}

	view := decode[session.View](t, env.do(t, http.MethodPost, "/api/drag/drop/shortcut", "alice", `{"target":1}`))
	if view.Drag != nil || labels(view.Shortcuts) != "ATR Tool,Merge Projects" {
		t.Errorf("after drop = %+v", view)
	}

	// Drop on a fresh collection.
	env.do(t, http.MethodPost, "/api/collections", "alice", "")
	view = decode[session.View](t, env.do(t, http.MethodGet, "/api/workspace", "alice", ""))
	target := view.Collections[1].ID

	env.do(t, http.MethodPost, "/api/drag/begin", "alice", `{"index":1,"payload":"shortcut:Merge Projects"}`)
	view = decode[session.View](t, env.do(t, http.MethodPost, "/api/drag/drop/collection", "alice", `{"collectionId":"`+target+`"}`))
	if items := view.Collections[1].Items; len(items) != 1 || items[0].Label != "Merge Projects" {
		t.Errorf("target items = %+v", items)
	}

	env.do(t, http.MethodPost, "/api/drag/begin", "alice", `{"index":0,"payload":"shortcut:ATR Tool"}`)
	view = decode[session.View](t, env.do(t, http.MethodPost, "/api/drag/cancel", "alice", ""))
	if view.Drag != nil {
		t.Error("cancel should end the drag")
	}

	// Drops while idle change nothing.
	view = decode[session.View](t, env.do(t, http.MethodPost, "/api/drag/drop/shortcut", "alice", `{"target":0}`))
	if labels(view.Shortcuts) != "ATR Tool,Merge Projects" {
		t.Errorf("idle drop changed the list: %s", labels(view.Shortcuts))
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/drag/begin", "alice", `{"index":0,"payload":"folder:x"}`), http.StatusBadRequest)
}

func TestSessionErrors(t *testing.T) {
	t.Run("invalid session id", func(t *testing.T) {
		env := newTestEnv(t)
		expectStatus(t, env.do(t, http.MethodGet, "/api/workspace", "not a valid id", ""), http.StatusBadRequest)
	})

	t.Run("store unavailable", func(t *testing.T) {
		env := newTestEnv(t, withStore(failingStore{}))
		rec := env.do(t, http.MethodPost, "/api/collections", "alice", "")
		expectStatus(t, rec, http.StatusServiceUnavailable)
	})
}

// ─────────────────────────────
// Operations
// ─────────────────────────────

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodGet, "/healthz", "", ""), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/readyz", "", ""), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/metrics", "", ""), http.StatusOK)

	rec := env.do(t, http.MethodGet, "/infra", "", "")
	expectStatus(t, rec, http.StatusOK)
	infra := decode[struct {
		Status string `json:"status"`
	}](t, rec)
	if infra.Status != "operational" {
		t.Errorf("infra status = %q", infra.Status)
	}

	env.index.Replace(index.Corpus{})
	expectStatus(t, env.do(t, http.MethodGet, "/readyz", "", ""), http.StatusServiceUnavailable)
}

func TestReadyzStoreDown(t *testing.T) {
	env := newTestEnv(t, withStore(failingStore{}))

	rec := env.do(t, http.MethodGet, "/readyz", "", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)

	infra := decode[struct {
		Status string `json:"status"`
	}](t, env.do(t, http.MethodGet, "/infra", "", ""))
	if infra.Status != "degraded" {
		t.Errorf("infra status = %q, want degraded", infra.Status)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(t, http.MethodPost, "/reload", "", ""), http.StatusAccepted)
	expectStatus(t, env.do(t, http.MethodPost, "/reload", "", ""), http.StatusTooManyRequests)

	<-env.reload
	expectStatus(t, env.do(t, http.MethodPost, "/reload", "", ""), http.StatusAccepted)
}

func TestAccessRestrictions(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config, d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
		d.AllowedHosts = []string{"hub.local"}
		cfg.RateLimitBurst = 1
		cfg.RateLimitPerMin = 1
	})

	// httptest requests come from 192.0.2.1 with Host example.com.
	expectStatus(t, env.do(t, http.MethodGet, "/infra", "", ""), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/api/workspace", "", ""), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodGet, "/healthz", "", ""), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/workspace", nil)
	req.Host = "hub.local"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusTooManyRequests)
}
