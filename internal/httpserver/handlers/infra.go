package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
)

type componentStatus struct {
	OK              bool           `json:"ok"`
	DocumentsLoaded *int           `json:"documents_loaded,omitempty"`
	Sources         map[string]int `json:"sources,omitempty"`
	Generation      uint64         `json:"generation,omitempty"`
	LastReload      string         `json:"last_reload,omitempty"`
	File            string         `json:"file,omitempty"`
	Mode            string         `json:"mode,omitempty"`
	Active          *int           `json:"active,omitempty"`
	Impact          string         `json:"impact,omitempty"`
	Error           string         `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documents := d.Index.Count()
		lastReload := d.Index.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format(time.DateTime)
		}
		sources := make(map[string]int)
		for s, n := range d.Index.SourceCounts() {
			sources[string(s)] = n
		}

		active := d.Sessions.Len()

		components := map[string]componentStatus{
			"corpus": {
				OK:              documents > 0,
				DocumentsLoaded: &documents,
				Sources:         sources,
				Generation:      d.Index.Generation(),
				LastReload:      lastReloadStr,
				File:            d.CorpusFile,
			},
			"store": checkStore(r, d),
			"sessions": {
				OK:     true,
				Active: &active,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	if c, ok := components["corpus"]; ok && !c.OK {
		return "critical" // nothing to search
	}
	// Workspaces still work from memory, changes are just not stored.
	if s, ok := components["store"]; ok && !s.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StoreBackend,
			Impact: "workspace-changes-not-persisted",
			Error:  err.Error(),
		}
	}
	return componentStatus{
		OK:   true,
		Mode: d.StoreBackend,
	}
}
