// Package item implements the on-disk codec for work items: YAML
// frontmatter plus markdown body, with status history recorded in a
// fenced turtle block. File I/O stays with the caller; this package
// owns encode/decode correctness.
package item

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/theme"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

// frontmatter mirrors the YAML header of a work item file.
type frontmatter struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Type       string   `yaml:"type"`
	Status     string   `yaml:"status"`
	Priority   string   `yaml:"priority"`
	Assignee   string   `yaml:"assignee"`
	Created    string   `yaml:"created"`
	Updated    string   `yaml:"updated"`
	Tags       []string `yaml:"tags"`
	DependsOn  []string `yaml:"depends_on"`
	Blocks     []string `yaml:"blocks"`
	Resolution string   `yaml:"resolution"`
	Superseded []string `yaml:"superseded_by"`
}

var turtleBlockPattern = regexp.MustCompile("(?s)```turtle\n.*?```")

// Parse decodes a work item from file content. The path supplies
// fallbacks for ID and title when the frontmatter omits them. Content
// without a frontmatter header is not a work item and returns
// (nil, nil).
func Parse(path string, content []byte) (*models.WorkItem, error) {
	front, _, ok := splitFrontmatter(string(content))
	if !ok {
		return nil, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, fmt.Errorf("item: parse frontmatter of %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	id := fm.ID
	if id == "" {
		id = strings.ToUpper(strings.ReplaceAll(stem, "-", "_"))
	}

	title := fm.Title
	if title == "" {
		title = titleFromStem(stem)
	}

	itemType := strings.ToLower(fm.Type)
	if itemType == "" {
		itemType = "task"
	}

	status, ok := theme.CanonicalStatus(fm.Status)
	if !ok {
		status = "backlog"
	}

	w := &models.WorkItem{
		ID:          id,
		Title:       title,
		Type:        itemType,
		Status:      status,
		Path:        path,
		Priority:    fm.Priority,
		Assignee:    fm.Assignee,
		Tags:        fm.Tags,
		DependsOn:   fm.DependsOn,
		Blocks:      fm.Blocks,
		Resolution:  fm.Resolution,
		Superseded:  fm.Superseded,
		Description: extractDescription(string(content)),
	}

	if fm.Created != "" {
		if created, err := time.Parse(dateLayout, fm.Created); err == nil {
			w.Created = created
		}
	}
	if fm.Updated != "" {
		if updated, err := time.Parse(timestampLayout, fm.Updated); err == nil {
			w.Updated = updated
		}
	}

	return w, nil
}

// Render encodes a work item as markdown: frontmatter, title heading,
// description. Render then Parse yields an equivalent item; timestamps
// coarsen to second precision.
func Render(w *models.WorkItem) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", w.ID)
	fmt.Fprintf(&b, "title: %q\n", w.Title)
	fmt.Fprintf(&b, "type: %s\n", w.Type)
	fmt.Fprintf(&b, "status: %s\n", w.Status)
	if w.Priority != "" {
		fmt.Fprintf(&b, "priority: %s\n", w.Priority)
	}
	if w.Assignee != "" {
		fmt.Fprintf(&b, "assignee: %s\n", w.Assignee)
	}
	if !w.Created.IsZero() {
		fmt.Fprintf(&b, "created: %s\n", w.Created.Format(dateLayout))
	}
	if !w.Updated.IsZero() {
		fmt.Fprintf(&b, "updated: %s\n", w.Updated.Format(timestampLayout))
	}
	if len(w.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(w.Tags, ", "))
	}
	fmt.Fprintf(&b, "depends_on: [%s]\n", strings.Join(w.DependsOn, ", "))
	if len(w.Blocks) > 0 {
		fmt.Fprintf(&b, "blocks: [%s]\n", strings.Join(w.Blocks, ", "))
	}
	if w.Resolution != "" {
		fmt.Fprintf(&b, "resolution: %s\n", w.Resolution)
	}
	if len(w.Superseded) > 0 {
		fmt.Fprintf(&b, "superseded_by: [%s]\n", strings.Join(w.Superseded, ", "))
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", w.Title)
	if w.Description != "" {
		b.WriteString(w.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// SetFrontmatterField rewrites a single field inside the frontmatter
// header, leaving the rest of the file untouched. A field not already
// present is appended to the header.
func SetFrontmatterField(content, field, value string) string {
	front, rest, ok := splitFrontmatter(content)
	if !ok {
		return content
	}

	pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(field) + `:.*$`)
	if pattern.MatchString(front) {
		front = pattern.ReplaceAllString(front, field+": "+value)
	} else {
		front = strings.TrimRight(front, "\n") + "\n" + field + ": " + value + "\n"
	}
	return "---" + front + "---" + rest
}

// splitFrontmatter separates content into the YAML header (without
// delimiters) and the remainder (including the leading newline after
// the closing delimiter).
func splitFrontmatter(content string) (front, rest string, ok bool) {
	if !strings.HasPrefix(content, "---") {
		return "", "", false
	}
	body := content[3:]
	end := strings.Index(body, "\n---")
	if end == -1 {
		return "", "", false
	}
	return body[:end+1], body[end+4:], true
}

// extractDescription returns the markdown body: content after the
// frontmatter, minus turtle blocks, the title heading, and the
// comments section.
func extractDescription(content string) string {
	if _, rest, ok := splitFrontmatter(content); ok {
		content = rest
	}
	content = turtleBlockPattern.ReplaceAllString(content, "")

	if i := strings.Index(content, "\n## Comments"); i != -1 {
		content = content[:i]
	}

	lines := strings.Split(strings.TrimSpace(content), "\n")
	skipHeading := true
	var out []string
	for _, line := range lines {
		if skipHeading && strings.HasPrefix(line, "#") {
			skipHeading = false
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// AppendComment adds a comment entry under the "## Comments" section,
// creating the section when absent.
func AppendComment(content string, c models.Comment) string {
	if !strings.Contains(content, "## Comments") {
		content = strings.TrimRight(content, "\n") + "\n\n## Comments\n"
	}
	return content + fmt.Sprintf("\n### %s (%s)\n\n%s\n",
		c.Author, c.CreatedAt.Format("2006-01-02 15:04"), c.Content)
}

// PreservedSections extracts the parts of an item file that a full
// re-render must carry over: the history turtle block and the comments
// section.
func PreservedSections(content string) string {
	var parts []string
	if block := turtleBlockPattern.FindString(content); block != "" {
		parts = append(parts, block)
	}
	if i := strings.Index(content, "## Comments"); i != -1 {
		section := strings.TrimSpace(turtleBlockPattern.ReplaceAllString(content[i:], ""))
		parts = append(parts, section)
	}
	return strings.Join(parts, "\n\n")
}

// titleFromStem turns a filename stem into a display title:
// "fix-login-flow" -> "Fix Login Flow".
func titleFromStem(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// IDNumber extracts the numeric suffix of an ID or filename stem for
// the given prefix: ("EXP", "EXP-010-some-title") -> 10. The second
// return reports whether the stem carried the prefix with a number.
func IDNumber(prefix, stem string) (int, bool) {
	if !strings.HasPrefix(stem, prefix+"-") {
		return 0, false
	}
	parts := strings.Split(stem, "-")
	if len(parts) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
