package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/zulandar/waybill/internal/alloc"
	"github.com/zulandar/waybill/internal/item"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/theme"
	"github.com/zulandar/waybill/internal/workflow"
)

// CreateOpts holds parameters for creating a new work item.
type CreateOpts struct {
	Type        string
	Title       string
	Priority    string
	Assignee    string
	Description string
	Tags        []string
	Path        string // explicit file path; derived from type when empty

	// Sync claims the allocated ID through the shared ledger and
	// publishes it; without it allocation is local-only.
	Sync   bool
	Commit bool // git-commit the new item file
}

// CreateItem allocates an ID, writes the item file, and registers the
// item in the cache.
func (s *Service) CreateItem(ctx context.Context, opts CreateOpts) (*models.WorkItem, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("service: title is required")
	}
	itemType := strings.ToLower(opts.Type)
	if !s.theme.KnownType(itemType) {
		return nil, &UnknownTypeError{Type: opts.Type}
	}
	if opts.Priority == "" {
		opts.Priority = "medium"
	}

	prefix := s.theme.Prefix(itemType)
	result, err := s.allocator.Allocate(ctx, prefix, alloc.Options{
		SyncRemote: opts.Sync,
		Commit:     opts.Sync,
	})
	if err != nil {
		return nil, err
	}

	path := opts.Path
	if path == "" {
		dir := filepath.Join(s.root, s.cfg.TypeDir(itemType))
		path = filepath.Join(dir, result.ID+".md")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("service: create item dir: %w", err)
	}

	w := &models.WorkItem{
		ID:          result.ID,
		Title:       opts.Title,
		Type:        itemType,
		Status:      "backlog",
		Path:        path,
		Priority:    opts.Priority,
		Assignee:    opts.Assignee,
		Created:     s.now(),
		Description: opts.Description,
		Tags:        opts.Tags,
	}

	if err := os.WriteFile(path, []byte(item.Render(w)), 0o644); err != nil {
		return nil, fmt.Errorf("service: write %s: %w", path, err)
	}
	s.items[w.ID] = w

	if opts.Commit {
		if err := s.repo.CommitFile(ctx, path, fmt.Sprintf("Create %s: %s", w.ID, w.Title)); err != nil {
			log.Printf("service: commit: %v", err)
		}
	}
	return w, nil
}

// MoveOpts holds parameters for a status transition.
type MoveOpts struct {
	Commit   bool
	Message  string
	Assignee string // also assign while moving
	Validate bool   // validate against the workflow (normally true)
}

// MoveItem transitions an item to a new status, enforcing the
// workflow's transition graph and guard rules plus the target column's
// WIP limit, then rewrites the file with the change recorded in its
// history block.
func (s *Service) MoveItem(ctx context.Context, id, newStatus string, opts MoveOpts) (*models.WorkItem, error) {
	w, err := s.Item(id)
	if err != nil {
		return nil, err
	}

	target, ok := theme.CanonicalStatus(newStatus)
	if !ok {
		return nil, &UnknownStatusError{Status: newStatus}
	}
	oldStatus := w.Status

	// An assignment made as part of the move counts for guard
	// evaluation, so "move and assign" satisfies an assignee guard in
	// one step.
	oldAssignee := w.Assignee
	if opts.Assignee != "" {
		w.Assignee = opts.Assignee
	}

	if opts.Validate {
		if err := s.validateTransition(w, target); err != nil {
			w.Assignee = oldAssignee
			return nil, err
		}
	}

	if err := s.checkWIP(target); err != nil {
		w.Assignee = oldAssignee
		return nil, err
	}

	w.Status = target
	w.Updated = s.now()

	if err := s.writeMove(ctx, w, opts.Assignee); err != nil {
		return nil, err
	}

	if opts.Commit {
		msg := opts.Message
		if msg == "" {
			msg = fmt.Sprintf("Move %s to %s", id, target)
			if opts.Assignee != "" {
				msg += fmt.Sprintf(" (assigned to %s)", opts.Assignee)
			}
		}
		if err := s.repo.CommitFile(ctx, w.Path, msg); err != nil {
			log.Printf("service: commit: %v", err)
		}
	}

	if s.notifier != nil {
		s.notifier.ItemMoved(ctx, w, oldStatus, target)
	}
	return w, nil
}

// validateTransition applies the item type's workflow, falling back to
// the default workflow when no declarative definition exists.
func (s *Service) validateTransition(w *models.WorkItem, target string) error {
	wf := s.workflows.ForType(w.Type)
	if wf == nil {
		wf = workflow.Default()
	}

	decision := wf.ValidateTransition(w, target)
	if decision.Allowed {
		return nil
	}

	// A guard rejection carries the rule's message; a graph rejection
	// carries the allowed set.
	for _, rule := range wf.Rules {
		if rule.Message != "" && rule.Message == decision.Reason {
			return &GuardFailedError{ItemID: w.ID, To: target, Message: decision.Reason}
		}
	}
	return &InvalidTransitionError{
		ItemID:  w.ID,
		From:    w.Status,
		To:      target,
		Allowed: wf.AllowedTransitions(w.Status),
		Reason:  decision.Reason,
	}
}

// checkWIP rejects a move into a column already at its limit.
func (s *Service) checkWIP(target string) error {
	board, err := s.Board()
	if err != nil {
		return err
	}
	for _, col := range board.Columns {
		if board.StatusMap[col.ID] != target || col.WIPLimit == 0 {
			continue
		}
		count := len(board.ItemsByStatus(target))
		if count >= col.WIPLimit {
			return &WIPLimitError{Column: col.Name, Count: count, Limit: col.WIPLimit}
		}
	}
	return nil
}

// writeMove patches the item file in place: frontmatter status (and
// assignee), plus a status change appended to the history block.
func (s *Service) writeMove(ctx context.Context, w *models.WorkItem, assignee string) error {
	raw, err := os.ReadFile(w.Path)
	if err != nil {
		return fmt.Errorf("service: read %s: %w", w.Path, err)
	}
	content := string(raw)

	content = item.SetFrontmatterField(content, "status", w.Status)
	if assignee != "" {
		content = item.SetFrontmatterField(content, "assignee", assignee)
	}

	actor := assignee
	if actor == "" {
		actor = s.repo.UserName(ctx)
	}
	content = item.AppendStatusChange(content, models.StatusChange{
		Status: w.Status,
		At:     s.now(),
		By:     actor,
	})

	if err := os.WriteFile(w.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("service: write %s: %w", w.Path, err)
	}
	return nil
}

// UpdateOpts holds optional field updates; nil pointers leave the
// field unchanged. Status is deliberately absent: MoveItem owns it.
type UpdateOpts struct {
	Title       *string
	Priority    *string
	Assignee    *string
	Description *string
	Tags        *[]string

	Commit  bool
	Message string
}

// UpdateItem rewrites an item's properties, preserving its recorded
// history block.
func (s *Service) UpdateItem(ctx context.Context, id string, opts UpdateOpts) (*models.WorkItem, error) {
	w, err := s.Item(id)
	if err != nil {
		return nil, err
	}

	var changes []string
	if opts.Title != nil && *opts.Title != w.Title {
		w.Title = *opts.Title
		changes = append(changes, "title")
	}
	if opts.Priority != nil && *opts.Priority != w.Priority {
		w.Priority = *opts.Priority
		changes = append(changes, "priority")
	}
	if opts.Assignee != nil && *opts.Assignee != w.Assignee {
		w.Assignee = *opts.Assignee
		changes = append(changes, "assignee")
	}
	if opts.Description != nil && *opts.Description != w.Description {
		w.Description = *opts.Description
		changes = append(changes, "description")
	}
	if opts.Tags != nil {
		w.Tags = *opts.Tags
		changes = append(changes, "tags")
	}
	if len(changes) == 0 {
		return w, nil
	}

	w.Updated = s.now()
	if err := s.rewritePreservingHistory(w); err != nil {
		return nil, err
	}

	if opts.Commit {
		msg := opts.Message
		if msg == "" {
			msg = fmt.Sprintf("Update %s: %s", id, strings.Join(changes, ", "))
		}
		if err := s.repo.CommitFile(ctx, w.Path, msg); err != nil {
			log.Printf("service: commit: %v", err)
		}
	}
	return w, nil
}

// rewritePreservingHistory re-renders the item file but carries the
// existing history block and comments section over.
func (s *Service) rewritePreservingHistory(w *models.WorkItem) error {
	raw, err := os.ReadFile(w.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("service: read %s: %w", w.Path, err)
	}
	old := string(raw)

	content := item.Render(w)
	if tail := item.PreservedSections(old); tail != "" {
		content = strings.TrimRight(content, "\n") + "\n\n" + tail + "\n"
	}

	if err := os.WriteFile(w.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("service: write %s: %w", w.Path, err)
	}
	return nil
}

// AddComment appends a comment to the item file.
func (s *Service) AddComment(ctx context.Context, id, content, author string, commit bool) (*models.WorkItem, error) {
	w, err := s.Item(id)
	if err != nil {
		return nil, err
	}

	if author == "" {
		author = s.repo.UserName(ctx)
	}
	comment := models.Comment{Content: content, Author: author, CreatedAt: s.now()}
	w.Comments = append(w.Comments, comment)
	w.Updated = s.now()

	raw, err := os.ReadFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("service: read %s: %w", w.Path, err)
	}
	updated := item.AppendComment(string(raw), comment)
	if err := os.WriteFile(w.Path, []byte(updated), 0o644); err != nil {
		return nil, fmt.Errorf("service: write %s: %w", w.Path, err)
	}

	if commit {
		if err := s.repo.CommitFile(ctx, w.Path, fmt.Sprintf("Add comment to %s", id)); err != nil {
			log.Printf("service: commit: %v", err)
		}
	}
	return w, nil
}
