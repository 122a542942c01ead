// Package service holds the core work item operations: scanning the
// repository into items, validated status transitions, item creation
// with allocated IDs, comments, and flow metrics. The CLI and the
// dashboard are thin layers over this package.
package service

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zulandar/waybill/internal/alloc"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/git"
	"github.com/zulandar/waybill/internal/item"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/theme"
	"github.com/zulandar/waybill/internal/workflow"
)

// Notifier receives transition events. Delivery is best-effort and
// must never fail a move.
type Notifier interface {
	ItemMoved(ctx context.Context, w *models.WorkItem, from, to string)
}

// Service manages the work items of one repository.
type Service struct {
	cfg   *config.Config
	root  string
	theme theme.Theme

	items     map[string]*models.WorkItem
	workflows *workflow.Registry
	repo      *git.Repository
	allocator *alloc.Allocator
	notifier  Notifier

	now func() time.Time
}

// Open builds a Service for the repository at root, loading workflow
// definitions from .kanban/workflows once.
func Open(root string, cfg *config.Config) (*Service, error) {
	registry, err := workflow.LoadDir(filepath.Join(root, ".kanban", "workflows"))
	if err != nil {
		return nil, fmt.Errorf("service: load workflows: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		root:      root,
		theme:     theme.Lookup(cfg.Theme),
		items:     make(map[string]*models.WorkItem),
		workflows: registry,
		repo:      git.NewRepository(root),
		now:       time.Now,
	}
	s.allocator = alloc.New(root, cfg.WorkPaths(), s.repo, s.rescan)
	return s, nil
}

// SetNotifier installs a transition notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Workflows exposes the loaded workflow registry.
func (s *Service) Workflows() *workflow.Registry {
	return s.workflows
}

// Theme returns the resolved board theme.
func (s *Service) Theme() theme.Theme {
	return s.theme
}

// Scan walks the configured work paths and parses every markdown file
// into a work item. Files that fail to parse are skipped with a
// warning; one malformed item never aborts the scan.
func (s *Service) Scan() ([]*models.WorkItem, error) {
	s.items = make(map[string]*models.WorkItem)

	for _, rel := range s.cfg.WorkPaths() {
		dir := filepath.Join(s.root, rel)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || filepath.Ext(path) != ".md" || s.ignored(path) {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Printf("scan: skipping %s: %v", path, err)
				return nil
			}
			w, err := item.Parse(path, content)
			if err != nil {
				log.Printf("scan: skipping %s: %v", path, err)
				return nil
			}
			if w != nil {
				s.items[w.ID] = w
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("service: scan %s: %w", rel, err)
		}
	}

	return s.sortedItems(), nil
}

// rescan is the allocator's view of the repository: always fresh.
func (s *Service) rescan() ([]*models.WorkItem, error) {
	return s.Scan()
}

// ignored applies the configured ignore patterns. Matching is the
// simple glob style the config format documents: "**" patterns match
// by path segment, "*suffix" patterns by suffix.
func (s *Service) ignored(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	for _, pattern := range s.cfg.Paths.Ignore {
		if strings.Contains(pattern, "**") {
			part := strings.Trim(strings.ReplaceAll(pattern, "**", ""), "/")
			if part != "" && strings.Contains(rel, part) {
				return true
			}
		} else if strings.HasPrefix(pattern, "*") {
			if strings.HasSuffix(rel, pattern[1:]) {
				return true
			}
		}
	}
	return false
}

// Item returns a work item by ID.
func (s *Service) Item(id string) (*models.WorkItem, error) {
	if len(s.items) == 0 {
		if _, err := s.Scan(); err != nil {
			return nil, err
		}
	}
	w, ok := s.items[id]
	if !ok {
		return nil, &ItemNotFoundError{ID: id}
	}
	return w, nil
}

// Filters narrow an item listing.
type Filters struct {
	Status   string
	Type     string
	Assignee string
}

// Items returns items matching the filters, sorted by descending
// priority score with ascending ID as tiebreak.
func (s *Service) Items(f Filters) ([]*models.WorkItem, error) {
	if len(s.items) == 0 {
		if _, err := s.Scan(); err != nil {
			return nil, err
		}
	}

	var out []*models.WorkItem
	for _, w := range s.items {
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.Type != "" && w.Type != f.Type {
			continue
		}
		if f.Assignee != "" && w.Assignee != f.Assignee {
			continue
		}
		out = append(out, w)
	}
	models.SortItems(out)
	return out, nil
}

// Board assembles the board view: theme columns plus every item.
func (s *Service) Board() (*models.Board, error) {
	items, err := s.Items(Filters{})
	if err != nil {
		return nil, err
	}
	return &models.Board{
		ID:        "main",
		Name:      s.theme.BoardName(),
		Columns:   s.theme.Columns,
		Items:     items,
		StatusMap: s.theme.StatusMap,
	}, nil
}

func (s *Service) sortedItems() []*models.WorkItem {
	out := make([]*models.WorkItem, 0, len(s.items))
	for _, w := range s.items {
		out = append(out, w)
	}
	models.SortItems(out)
	return out
}
