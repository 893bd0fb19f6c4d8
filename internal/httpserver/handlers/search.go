package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/metrics"
)

type searchResult struct {
	*domain.Document
	Score      int  `json:"score"`
	Verified   bool `json:"verified"`
	Bookmarked bool `json:"bookmarked"`
}

type searchResponse struct {
	Query       string         `json:"query"`
	Role        string         `json:"role"`
	Total       int            `json:"total"`
	Results     []searchResult `json:"results"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

type assistResponse struct {
	Query  string `json:"query"`
	Role   string `json:"role"`
	Answer string `json:"answer"`
}

// parseFilters reads ?verified=true and repeated ?source= parameters.
func parseFilters(r *http.Request) (domain.FilterSet, error) {
	var f domain.FilterSet
	q := r.URL.Query()

	if v := q.Get("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid verified parameter %q", v)
		}
		f.OnlyVerified = b
	}

	for _, raw := range q["source"] {
		// Accept both ?source=KB&source=Tools and ?source=KB,Tools.
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Sources = append(f.Sources, domain.ParseSource(s))
			}
		}
	}

	return f, nil
}

func parseLimit(r *http.Request, max int) (int, error) {
	limit := max
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid limit parameter %q", v)
		}
		if n > 0 && (max == 0 || n < max) {
			limit = n
		}
	}
	return limit, nil
}

// Search ranks the corpus for the query and the request's role.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		role := role(r, d)

		filters, err := parseFilters(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit, err := parseLimit(r, d.SearchLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		now := d.Now()
		candidates := d.Index.Search(query, role, filters, now)
		total := len(candidates)
		if limit > 0 && len(candidates) > limit {
			candidates = candidates[:limit]
		}
		metrics.SearchResults.Observe(float64(total))

		// Bookmark flags are a nicety; a search still answers without them.
		var bookmarked func(string) bool
		if view, err := d.Sessions.View(r.Context(), sessionID(r, d), role); err == nil {
			bookmarked = view.IsBookmarked
		} else {
			d.Logger.Warn("search without bookmark flags", logger.Error(err))
			bookmarked = func(string) bool { return false }
		}

		resp := searchResponse{
			Query:   query,
			Role:    role,
			Total:   total,
			Results: make([]searchResult, 0, len(candidates)),
		}
		for _, c := range candidates {
			resp.Results = append(resp.Results, searchResult{
				Document:   c.Document,
				Score:      c.Score,
				Verified:   domain.RecentlyVerified(c.Document, now),
				Bookmarked: bookmarked(c.Document.ID),
			})
		}
		if total == 0 {
			resp.Suggestions = d.Index.Suggestions()
		}

		d.Logger.Debug("search request",
			logger.String("query", query),
			logger.String("role", role),
			logger.Int("results", total))

		writeJSON(w, http.StatusOK, resp)
	}
}

// Assist answers with pointers built from the two best documents.
func Assist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		role := role(r, d)

		filters, err := parseFilters(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, assistResponse{
			Query:  query,
			Role:   role,
			Answer: d.Index.Assist(query, role, filters, d.Now()),
		})
	}
}
