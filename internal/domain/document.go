package domain

import (
	"strings"
	"time"
)

// Source identifies the system a document was materialized from.
type Source string

const (
	SourceKB          Source = "KB"
	SourceConfluence  Source = "Confluence"
	SourceTools       Source = "Tools"
	SourceSharePoint  Source = "SharePoint"
	SourceGoogleDrive Source = "Google Drive"
	SourceFileShare   Source = "File Share"
)

// KnownSources lists the sources in the order they are offered as filters.
var KnownSources = []Source{
	SourceConfluence,
	SourceKB,
	SourceSharePoint,
	SourceGoogleDrive,
	SourceTools,
	SourceFileShare,
}

// ParseSource maps a loosely written source name onto a known Source.
// Unknown names are kept verbatim so custom corpora still filter exactly.
func ParseSource(s string) Source {
	s = strings.TrimSpace(s)
	for _, known := range KnownSources {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	switch strings.ToLower(s) {
	case "wiki":
		return SourceConfluence
	case "tool directory", "tool":
		return SourceTools
	case "fileshare", "file-share":
		return SourceFileShare
	}
	return Source(s)
}

// Document is one searchable record of the corpus.
//
// Documents are built once when a corpus snapshot is loaded and are never
// mutated afterwards. A reload produces new Document values.
type Document struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the unique corpus key. Bookmarks refer to it.
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title          string `json:"title"`
	ContentExcerpt string `json:"content_excerpt"`

	// URL is where the document lives. Bookmarking uses it as shortcut href.
	URL string `json:"url"`

	Source Source   `json:"source"`
	Tags   []string `json:"tags"`

	// Roles are the role codes this document is primarily relevant to.
	Roles []string `json:"roles"`

	// ─────────────────────────────
	// Freshness & popularity
	// ─────────────────────────────

	LastModified time.Time `json:"last_modified"`
	LastVerified time.Time `json:"last_verified"`
	Owner        string    `json:"owner"`

	// Clicks is read-only here.
	Clicks int `json:"clicks"`
}

// HasRole reports whether role is one of the document's roles.
func (d *Document) HasRole(role string) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FilterSet holds the hard filters of one query evaluation.
type FilterSet struct {
	// OnlyVerified excludes documents not verified within VerifiedWindow.
	OnlyVerified bool

	// Sources restricts results to these sources. Empty means no restriction.
	Sources []Source
}

// AllowsSource reports whether s passes the source restriction.
func (f FilterSet) AllowsSource(s Source) bool {
	if len(f.Sources) == 0 {
		return true
	}
	for _, allowed := range f.Sources {
		if allowed == s {
			return true
		}
	}
	return false
}
