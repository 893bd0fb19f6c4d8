package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/index"
)

// Mapper converts a corpus file to an index.Corpus
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// NewMapperAt creates a mapper that resolves relative ages against a fixed
// instant.
func NewMapperAt(now time.Time) *Mapper {
	return &Mapper{now: func() time.Time { return now }}
}

// MapCorpus converts the file. Entries without a title are skipped, as are
// repeated IDs after their first occurrence. A file with no usable document
// is an error.
func (m *Mapper) MapCorpus(file File) (index.Corpus, error) {
	now := m.now()

	docs := make([]*domain.Document, 0, len(file.Documents))
	seen := make(map[string]struct{}, len(file.Documents))

	for i, entry := range file.Documents {
		if strings.TrimSpace(entry.Title) == "" {
			continue
		}

		doc, err := mapDocument(entry, now)
		if err != nil {
			return index.Corpus{}, fmt.Errorf("document %d (%q): %w", i, entry.Title, err)
		}

		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return index.Corpus{}, fmt.Errorf("no valid documents found in corpus file")
	}

	shortcuts := make(map[string][]domain.Shortcut, len(file.Shortcuts))
	for role, entries := range file.Shortcuts {
		list := make([]domain.Shortcut, 0, len(entries))
		for _, e := range entries {
			if e.Label == "" {
				continue
			}
			list = append(list, domain.Shortcut{Label: e.Label, Href: e.Href})
		}
		shortcuts[role] = list
	}

	roles := file.Roles
	if len(roles) == 0 {
		roles = domain.DefaultRoles
	}
	// Every known role gets a list, even an empty one.
	for _, role := range roles {
		if _, ok := shortcuts[role]; !ok {
			shortcuts[role] = []domain.Shortcut{}
		}
	}

	return index.Corpus{
		Documents:   docs,
		Roles:       roles,
		Shortcuts:   shortcuts,
		Suggestions: file.Suggestions,
	}, nil
}

func mapDocument(e DocumentEntry, now time.Time) (*domain.Document, error) {
	modified, err := parseTimestamp(e.LastModified, now)
	if err != nil {
		return nil, fmt.Errorf("lastModified: %w", err)
	}
	verified, err := parseTimestamp(e.LastVerified, now)
	if err != nil {
		return nil, fmt.Errorf("lastVerified: %w", err)
	}
	if e.Clicks < 0 {
		return nil, fmt.Errorf("clicks must not be negative, got %d", e.Clicks)
	}

	id := strings.TrimSpace(e.ID)
	if id == "" {
		id = generateDocumentID(e.URL, e.Title)
	}

	return &domain.Document{
		ID:             id,
		Title:          e.Title,
		ContentExcerpt: strings.TrimSpace(e.Excerpt),
		URL:            e.URL,
		Source:         domain.ParseSource(e.Source),
		Tags:           e.Tags,
		Roles:          e.Roles,
		LastModified:   modified,
		LastVerified:   verified,
		Owner:          e.Owner,
		Clicks:         e.Clicks,
	}, nil
}

const day = 24 * time.Hour

// parseTimestamp accepts RFC 3339, a date, or an age ("5d", "2w", "36h")
// counted back from now. Empty means never.
func parseTimestamp(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	switch unit {
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	case 'd':
		return now.Add(-time.Duration(n) * day), nil
	case 'w':
		return now.Add(-time.Duration(7*n) * day), nil
	default:
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
}

// generateDocumentID creates a stable ID from the URL, or the title when the
// URL is missing or a placeholder.
func generateDocumentID(url, title string) string {
	key := url
	if key == "" || key == "#" {
		key = title
	}
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])[:16]
}
