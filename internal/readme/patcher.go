// Package readme renders the stats table and splices it into a Markdown document.
package readme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbidwaibing/readme-stats/internal/domain"
)

// Sentinel lines bounding the managed block.
const (
	StartMarker = "<!-- GITHUB-STATS:START -->"
	EndMarker   = "<!-- GITHUB-STATS:END -->"
)

// ErrMissingDocument is returned when the target document does not exist.
var ErrMissingDocument = errors.New("document not found")

// RenderBlock renders the managed block for counts, from the start marker
// through the end marker. The block carries no trailing newline so that
// whatever followed the previous end marker is kept as is.
func RenderBlock(title string, counts domain.SummaryCounts) string {
	rows := []struct {
		label string
		value int
	}{
		{"Total Stars earned", counts.TotalStars},
		{"Total Commits (All Time)", counts.TotalCommitsAllTime},
		{"Total Commits (Last Year)", counts.TotalCommitsLastYear},
		{"Total PRs authored", counts.TotalPRsAuthored},
		{"Total PRs merged", counts.TotalPRsMerged},
	}

	var b strings.Builder
	b.WriteString(StartMarker + "\n")
	fmt.Fprintf(&b, "### %s\n", title)
	b.WriteString(" | Metrics                     | Count |\n")
	b.WriteString(" |-----------------------------|-------|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "|> %-27s| `%d` |\n", row.label, row.value)
	}
	b.WriteString(EndMarker)
	return b.String()
}

// Patch replaces the first start marker through the first end marker that
// follows it with block. Without both markers in that order, block and a
// blank line are put in front of doc. The second result reports whether the
// markers were found.
func Patch(doc, block string) (string, bool) {
	start := strings.Index(doc, StartMarker)
	if start >= 0 {
		if end := strings.Index(doc[start+len(StartMarker):], EndMarker); end >= 0 {
			end += start + len(StartMarker) + len(EndMarker)
			return doc[:start] + block + doc[end:], true
		}
	}
	return block + "\n\n" + doc, false
}

// ReadDocument reads the whole document at path along with its permissions.
func ReadDocument(path string) (string, fs.FileMode, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", 0, fmt.Errorf("%w: %s", ErrMissingDocument, path)
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), info.Mode().Perm(), nil
}

// WriteDocument replaces the document at path with content. The content is
// written to a temporary file in the same directory and renamed over path, so
// readers see either the old or the new document, never a partial one.
func WriteDocument(path, content string, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
