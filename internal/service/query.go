package service

import (
	"context"
	"os"

	"github.com/zulandar/waybill/internal/alloc"
	"github.com/zulandar/waybill/internal/flow"
	"github.com/zulandar/waybill/internal/item"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/workflow"
)

// AllowedTransitions returns the state IDs the item may move to under
// its type's workflow.
func (s *Service) AllowedTransitions(w *models.WorkItem) []string {
	wf := s.workflows.ForType(w.Type)
	if wf == nil {
		wf = workflow.Default()
	}
	return wf.AllowedTransitions(w.Status)
}

// Workflow returns the workflow governing an item type. Types without
// a declared workflow get the built-in default.
func (s *Service) Workflow(itemType string) *workflow.Config {
	if wf := s.workflows.ForType(itemType); wf != nil {
		return wf
	}
	return workflow.Default()
}

// StatusHistory reads the recorded status changes for an item.
func (s *Service) StatusHistory(id string) ([]models.StatusChange, error) {
	w, err := s.Item(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(w.Path)
	if err != nil {
		return nil, err
	}
	return item.ParseStatusHistory(string(raw)), nil
}

// FlowMetrics computes cycle/lead time and time-in-status for one
// item. Items without history yield NoHistoryError.
func (s *Service) FlowMetrics(id string) (flow.ItemMetrics, error) {
	history, err := s.StatusHistory(id)
	if err != nil {
		return flow.ItemMetrics{}, err
	}
	if len(history) == 0 {
		return flow.ItemMetrics{}, &NoHistoryError{ItemID: id}
	}
	return flow.Compute(id, history, s.now()), nil
}

// BoardMetrics aggregates flow metrics across all items; items with
// no history are excluded from the averages.
func (s *Service) BoardMetrics() (flow.BoardMetrics, error) {
	items, err := s.Items(Filters{})
	if err != nil {
		return flow.BoardMetrics{}, err
	}

	var perItem []flow.ItemMetrics
	for _, w := range items {
		m, err := s.FlowMetrics(w.ID)
		if err != nil {
			continue
		}
		perItem = append(perItem, m)
	}
	return flow.Aggregate(perItem, len(items)), nil
}

// BlockedItems lists every blocked item.
func (s *Service) BlockedItems() ([]*models.WorkItem, error) {
	return s.Items(Filters{Status: "blocked"})
}

// SuggestNext returns the highest-priority ready item, preferring ones
// already assigned to the given assignee. Returns nil when nothing is
// ready.
func (s *Service) SuggestNext(assignee string) (*models.WorkItem, error) {
	items, err := s.Items(Filters{Status: "ready"})
	if err != nil {
		return nil, err
	}
	if assignee != "" {
		var mine []*models.WorkItem
		for _, w := range items {
			if w.Assignee == assignee {
				mine = append(mine, w)
			}
		}
		if len(mine) > 0 {
			items = mine
		}
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// AllocateNextID runs the ID allocation protocol for a prefix.
func (s *Service) AllocateNextID(ctx context.Context, prefix string, sync, commit bool) (alloc.Result, error) {
	return s.allocator.Allocate(ctx, prefix, alloc.Options{SyncRemote: sync, Commit: commit})
}
