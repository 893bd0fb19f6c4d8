package corpus

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the corpus file
type Loader struct {
	filePath string
}

// NewLoader creates a new corpus loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the corpus file
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read corpus file: %w", err)
	}

	// Substitute {{HUB_VAR_...}} placeholders, typically private URLs.
	data = expandTemplateVariables(data, os.Getenv)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("failed to parse corpus yaml: %w", err)
	}

	return file, nil
}

var templateVariable = regexp.MustCompile(`\{\{\s*(HUB_VAR_[A-Za-z0-9_]+)\s*\}\}`)

// expandTemplateVariables replaces {{HUB_VAR_NAME}} with the value of the
// environment variable of the same name. Unset variables become empty.
// Example: href: {{HUB_VAR_WIKI}}/merge -> href: https://wiki.local/merge
func expandTemplateVariables(data []byte, getenv func(string) string) []byte {
	return templateVariable.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVariable.FindSubmatch(m)[1]
		return []byte(getenv(string(name)))
	})
}
