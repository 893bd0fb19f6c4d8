package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/index"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/scheduler"
)

const shippedCorpus = "../../configs/corpus.yaml"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HUB_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HUB_CORPUS_FILE", shippedCorpus)
	t.Setenv("HUB_LOG_LEVEL", "error")
}

func TestNewWithMemoryStore(t *testing.T) {
	setupEnv(t)
	t.Setenv("HUB_WATCH_CORPUS", "false")

	a, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.redisClient != nil {
		t.Error("no redis client expected without HUB_REDIS_ADDR")
	}
	if a.watcher != nil {
		t.Error("watcher should be disabled")
	}
	if a.server == nil || a.sessions == nil || a.reloader == nil || a.janitor == nil {
		t.Fatalf("incomplete app: %+v", a)
	}
}

func TestNewWithRedis(t *testing.T) {
	setupEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("HUB_REDIS_ADDR", mr.Addr())

	a, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.redisClient.Close() })

	if a.redisClient == nil {
		t.Fatal("expected a redis client")
	}
	if a.watcher == nil {
		t.Error("watcher should be enabled by default")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("HUB_SESSION_IDLE", "-1s")

	if _, err := New(); err == nil {
		t.Fatal("New() should fail on invalid configuration")
	}
}

// TestShippedCorpusScenarios checks ranking on the corpus that ships with the
// service.
func TestShippedCorpusScenarios(t *testing.T) {
	idx := index.NewMemoryIndex()
	reloader := scheduler.NewCorpusReloader(shippedCorpus, idx, logger.NewNop(), 0, nil)
	if err := reloader.Reload(context.Background(), scheduler.TriggerManual); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	tests := []struct {
		name        string
		query       string
		role        string
		filters     domain.FilterSet
		expectedTop string
		excluded    string
		description string
	}{
		{
			name:        "title match wins",
			query:       "merge",
			role:        "SW",
			expectedTop: "SW_3",
			description: "Title, excerpt and role beat a title-only match",
		},
		{
			name:        "title over tag",
			query:       "dimensions",
			role:        "SW",
			expectedTop: "confluence-style",
			description: "A title hit outranks a tag hit on a more popular document",
		},
		{
			name:        "case insensitive",
			query:       "JSON",
			role:        "SW",
			expectedTop: "SW_2",
			description: "Query case does not matter",
		},
		{
			name:        "stale document on top without filter",
			query:       "export",
			role:        "DP",
			expectedTop: "share-export-archive",
			description: "Verification is only a bonus by default",
		},
		{
			name:        "verified filter drops stale document",
			query:       "export",
			role:        "DP",
			filters:     domain.FilterSet{OnlyVerified: true},
			expectedTop: "QA_2",
			excluded:    "share-export-archive",
			description: "OnlyVerified pushes stale documents under the floor",
		},
		{
			name:        "source filter",
			query:       "merge",
			role:        "SW",
			filters:     domain.FilterSet{Sources: []domain.Source{domain.Source("KB")}},
			expectedTop: "QA_1",
			excluded:    "SW_3",
			description: "Documents from other sources are excluded",
		},
	}

	now := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := idx.Search(tt.query, tt.role, tt.filters, now)
			if len(results) == 0 {
				t.Fatalf("%s: no results", tt.description)
			}
			if got := results[0].Document.ID; got != tt.expectedTop {
				t.Errorf("%s: top = %s (score %d), want %s", tt.description, got, results[0].Score, tt.expectedTop)
			}
			if tt.excluded == "" {
				return
			}
			for _, c := range results {
				if c.Document.ID == tt.excluded {
					t.Errorf("%s: %s should be excluded, got score %d", tt.description, tt.excluded, c.Score)
				}
			}
		})
	}
}
