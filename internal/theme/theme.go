// Package theme defines the built-in board themes: the column layout,
// item type vocabulary, and ID prefixes a repository uses. Themes are
// resolved once at configuration load; internal logic only ever sees
// the resolved column and prefix tables.
package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zulandar/waybill/internal/models"
)

// Theme is a resolved board vocabulary.
type Theme struct {
	Name    string
	Columns []models.Column

	// StatusMap maps themed column/status IDs to canonical statuses
	// (backlog, ready, in_progress, review, done, blocked).
	StatusMap map[string]string

	// Prefixes maps item types to their ID prefixes.
	Prefixes map[string]string
}

var themes = map[string]Theme{
	"software": {
		Name: "software",
		Columns: []models.Column{
			{ID: "backlog", Name: "Backlog", Order: 1},
			{ID: "ready", Name: "Ready", Order: 2, WIPLimit: 5},
			{ID: "in_progress", Name: "In Progress", Order: 3, WIPLimit: 3},
			{ID: "review", Name: "Review", Order: 4, WIPLimit: 2},
			{ID: "done", Name: "Done", Order: 5},
		},
		StatusMap: map[string]string{
			"backlog":     "backlog",
			"ready":       "ready",
			"in_progress": "in_progress",
			"review":      "review",
			"done":        "done",
			"blocked":     "blocked",
		},
		Prefixes: map[string]string{
			"feature": "FEAT",
			"bug":     "BUG",
			"epic":    "EPIC",
			"issue":   "ISSUE",
			"task":    "TASK",
			"idea":    "IDEA",
		},
	},
	"nautical": {
		Name: "nautical",
		Columns: []models.Column{
			{ID: "harbor", Name: "Harbor", Order: 1},
			{ID: "provisioning", Name: "Provisioning", Order: 2, WIPLimit: 5},
			{ID: "underway", Name: "Underway", Order: 3, WIPLimit: 3},
			{ID: "approaching", Name: "Approaching", Order: 4, WIPLimit: 2},
			{ID: "arrived", Name: "Arrived", Order: 5},
		},
		StatusMap: map[string]string{
			"harbor":       "backlog",
			"provisioning": "ready",
			"underway":     "in_progress",
			"approaching":  "review",
			"arrived":      "done",
			"blocked":      "blocked",
		},
		Prefixes: map[string]string{
			"expedition": "EXP",
			"voyage":     "VOY",
			"directive":  "DIR",
			"hazard":     "HAZ",
			"signal":     "SIG",
			"chore":      "CHORE",
		},
	},
	"spec": {
		Name: "spec",
		Columns: []models.Column{
			{ID: "draft", Name: "Draft", Order: 1},
			{ID: "proposed", Name: "Proposed", Order: 2},
			{ID: "implementing", Name: "Implementing", Order: 3, WIPLimit: 3},
			{ID: "accepted", Name: "Accepted", Order: 4},
		},
		StatusMap: map[string]string{
			"draft":        "backlog",
			"proposed":     "ready",
			"implementing": "in_progress",
			"accepted":     "done",
			"blocked":      "blocked",
		},
		Prefixes: map[string]string{
			"spec": "SPEC",
			"rfc":  "RFC",
		},
	},
}

// statusAliases maps themed or historical status spellings to the
// canonical vocabulary, across all themes.
var statusAliases = map[string]string{
	"harbor":       "backlog",
	"provisioning": "ready",
	"underway":     "in_progress",
	"approaching":  "review",
	"arrived":      "done",
	"intake":       "backlog",
	"planning":     "ready",
	"active":       "in_progress",
	"complete":     "done",
	"completed":    "done",
	"draft":        "backlog",
	"proposed":     "ready",
	"implementing": "in_progress",
	"accepted":     "done",
}

// Lookup returns the named theme. Unknown names fall back to the
// software theme.
func Lookup(name string) Theme {
	if t, ok := themes[strings.ToLower(name)]; ok {
		return t
	}
	return themes["software"]
}

// Names lists the available theme names, sorted.
func Names() []string {
	out := make([]string, 0, len(themes))
	for name := range themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CanonicalStatus maps a raw status string to the canonical
// vocabulary. Canonical statuses pass through; themed aliases are
// translated; anything else returns ok=false.
func CanonicalStatus(raw string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")

	switch normalized {
	case "backlog", "ready", "in_progress", "review", "done", "blocked":
		return normalized, true
	}
	if canonical, ok := statusAliases[normalized]; ok {
		return canonical, true
	}
	return "", false
}

// Prefix returns the ID prefix for an item type within the theme.
// Types outside the theme's table get the upper-cased first four
// letters of the type name.
func (t Theme) Prefix(itemType string) string {
	if p, ok := t.Prefixes[strings.ToLower(itemType)]; ok {
		return p
	}
	cut := itemType
	if len(cut) > 4 {
		cut = cut[:4]
	}
	if cut == "" {
		return "ITEM"
	}
	return strings.ToUpper(cut)
}

// KnownType reports whether the theme defines the given item type.
func (t Theme) KnownType(itemType string) bool {
	_, ok := t.Prefixes[strings.ToLower(itemType)]
	return ok
}

// BoardName returns the display name for a board using this theme.
func (t Theme) BoardName() string {
	return fmt.Sprintf("%s Board", strings.ToUpper(t.Name[:1])+t.Name[1:])
}
