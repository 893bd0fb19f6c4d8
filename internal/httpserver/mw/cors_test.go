package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{"disabled", nil, http.MethodGet, "https://ui.local", false, http.StatusOK, ""},
		{"no origin", []string{"https://ui.local"}, http.MethodGet, "", false, http.StatusOK, ""},
		{"allowed origin", []string{"https://ui.local/"}, http.MethodGet, "https://ui.local", false, http.StatusOK, "https://ui.local"},
		{"other origin", []string{"https://ui.local"}, http.MethodGet, "https://evil.local", false, http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "https://any.local", false, http.StatusOK, "https://any.local"},
		{"preflight", []string{"https://ui.local"}, http.MethodOptions, "https://ui.local", true, http.StatusNoContent, "https://ui.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.allowed)(okHandler)

			req := httptest.NewRequest(tt.method, "/api/shortcuts/reorder", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowed)
			}
			if tt.preflight && rec.Header().Get("Access-Control-Allow-Headers") == "" {
				t.Error("preflight should list allowed headers")
			}
		})
	}
}
