// Package models holds the core Waybill data structures. Operations on
// them live in sibling packages; this package stays dependency-free.
package models

import (
	"time"
)

// WorkItem is the core tracked unit in Waybill. Each item is backed by
// a markdown file with YAML frontmatter; Path records where it lives.
type WorkItem struct {
	ID       string
	Title    string
	Type     string
	Status   string
	Path     string
	Priority string
	Assignee string
	Created  time.Time // date precision
	Updated  time.Time

	Tags        []string
	DependsOn   []string
	Blocks      []string
	Description string
	Resolution  string
	Superseded  []string // IDs of items superseding this one
	Comments    []Comment
}

// Comment is a single comment on a work item.
type Comment struct {
	Content   string
	Author    string
	CreatedAt time.Time
}

// StatusChange is one recorded status transition, parsed from the
// item's history block.
type StatusChange struct {
	Status string
	At     time.Time
	By     string
}

// priorityScores maps priority tags to sort weights. Unknown or
// missing priorities score as medium.
var priorityScores = map[string]int{
	"critical": 100,
	"high":     75,
	"medium":   50,
	"low":      25,
	"backlog":  10,
}

// PriorityScore returns the numeric sort weight for the item's
// priority tag.
func (w *WorkItem) PriorityScore() int {
	if score, ok := priorityScores[w.Priority]; ok {
		return score
	}
	return 50
}

// IsBlocked reports whether the item currently sits in blocked.
func (w *WorkItem) IsBlocked() bool {
	return w.Status == "blocked"
}
