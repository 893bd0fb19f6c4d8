package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hub/internal/index"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/session"
)

// Pinger reports whether the snapshot store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time                // for testing, defaults to time.Now
	AllowedHosts   []string                        // Host headers allowed to access the server
	AllowedCIDRS   []string                        // IPs allowed to access the admin endpoints
	TrustProxy     bool                            // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CorpusFile     string                          // Path to the corpus file
	Index          *index.MemoryIndex              // Current corpus snapshot
	Sessions       *session.Registry               // Per-session workspaces
	Store          Pinger                          // Snapshot store
	StoreBackend   string                          // "redis" or "memory"
	DefaultRole    string                          // Role used when the request names none
	DefaultSession string                          // Session used when X-Hub-Session is missing
	SearchLimit    int                             // Max results per search, 0 = no limit
	ReloadTrigger  chan struct{}                   // Channel to trigger manual corpus reload
	APILimit       func(http.Handler) http.Handler // Rate limiter shared by /api routes, nil = none
}

// Now returns the current time, honoring TimeNow.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
