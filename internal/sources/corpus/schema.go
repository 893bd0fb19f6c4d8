package corpus

// File is the top-level structure of the corpus YAML file.
type File struct {
	Roles       []string                   `yaml:"roles,omitempty"`
	Suggestions []string                   `yaml:"suggestions,omitempty"`
	Shortcuts   map[string][]ShortcutEntry `yaml:"shortcuts,omitempty"` // role -> built-ins
	Documents   []DocumentEntry            `yaml:"documents"`
}

// ShortcutEntry is a built-in shortcut offered to a role.
type ShortcutEntry struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// DocumentEntry contains the document properties as written in the file.
//
// Timestamps accept RFC 3339, a plain date (2006-01-02) or an age relative to
// load time such as "5d", "2w" or "36h".
type DocumentEntry struct {
	ID           string   `yaml:"id,omitempty"`
	Title        string   `yaml:"title"`
	Excerpt      string   `yaml:"excerpt,omitempty"`
	URL          string   `yaml:"url,omitempty"`
	Source       string   `yaml:"source"`
	Tags         []string `yaml:"tags,omitempty"`
	Roles        []string `yaml:"roles,omitempty"`
	LastModified string   `yaml:"lastModified,omitempty"`
	LastVerified string   `yaml:"lastVerified,omitempty"`
	Owner        string   `yaml:"owner,omitempty"`
	Clicks       int      `yaml:"clicks,omitempty"`
}
