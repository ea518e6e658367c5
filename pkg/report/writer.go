package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultOutputDir is where reports go when no directory is configured.
const DefaultOutputDir = "reports"

const maxSlugLength = 50

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Writer persists markdown reports into one directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir. An empty dir means DefaultOutputDir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultOutputDir
	}
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write saves body under a "# title" heading to <slug>-<id>.md and returns
// the file path. Files are never overwritten: the id suffix is unique per call.
func (w *Writer) Write(title, body string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("report title cannot be empty")
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.md", slugify(title), uuid.New().String()[:8])
	path := filepath.Join(w.dir, name)

	var content strings.Builder
	fmt.Fprintf(&content, "# %s\n\n", title)
	content.WriteString(strings.TrimSpace(body))
	content.WriteString("\n")

	// Write atomically using a temporary file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "report"
	}
	return s
}
