package service

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "work"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := Open(root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func writeTestItem(t *testing.T, svc *Service, id, status, priority, assignee string) {
	t.Helper()
	content := fmt.Sprintf("---\nid: %s\ntitle: \"Item %s\"\ntype: feature\nstatus: %s\n", id, id, status)
	if priority != "" {
		content += "priority: " + priority + "\n"
	}
	if assignee != "" {
		content += "assignee: " + assignee + "\n"
	}
	content += "---\n\n# Item " + id + "\n\nA test work item with enough description text.\n"

	path := filepath.Join(svc.root, "work", id+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	svc := newTestService(t)
	writeTestItem(t, svc, "FEAT-001", "backlog", "high", "")
	writeTestItem(t, svc, "FEAT-002", "ready", "low", "alice")

	// Plain markdown without frontmatter is not an item.
	notesPath := filepath.Join(svc.root, "work", "notes.md")
	if err := os.WriteFile(notesPath, []byte("# Notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := svc.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
}

func TestScan_IgnoresArchive(t *testing.T) {
	svc := newTestService(t)
	writeTestItem(t, svc, "FEAT-001", "backlog", "", "")

	archived := filepath.Join(svc.root, "work", "archive")
	if err := os.MkdirAll(archived, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\nid: FEAT-999\ntitle: Old\ntype: feature\nstatus: done\n---\n"
	if err := os.WriteFile(filepath.Join(archived, "FEAT-999.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := svc.Scan()
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range items {
		if w.ID == "FEAT-999" {
			t.Error("archived item should be ignored")
		}
	}
}

func TestItem_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Item("FEAT-404")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*ItemNotFoundError); !ok {
		t.Errorf("err = %T, want *ItemNotFoundError", err)
	}
}

func TestItems_PriorityOrdering(t *testing.T) {
	svc := newTestService(t)
	writeTestItem(t, svc, "FEAT-001", "backlog", "low", "")
	writeTestItem(t, svc, "FEAT-002", "backlog", "critical", "")
	writeTestItem(t, svc, "FEAT-003", "backlog", "medium", "")

	items, err := svc.Items(Filters{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"FEAT-002", "FEAT-003", "FEAT-001"}
	if len(items) != len(want) {
		t.Fatalf("len(items) = %d", len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %s, want %s", i, items[i].ID, id)
		}
	}
}

func TestItems_Filters(t *testing.T) {
	svc := newTestService(t)
	writeTestItem(t, svc, "FEAT-001", "ready", "high", "alice")
	writeTestItem(t, svc, "FEAT-002", "backlog", "high", "bob")

	items, err := svc.Items(Filters{Status: "ready"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "FEAT-001" {
		t.Errorf("status filter: %v", itemIDs(items))
	}

	items, err = svc.Items(Filters{Assignee: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "FEAT-002" {
		t.Errorf("assignee filter: %v", itemIDs(items))
	}
}

func itemIDs(items []*models.WorkItem) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.ID
	}
	return out
}

func TestBoard(t *testing.T) {
	svc := newTestService(t)
	writeTestItem(t, svc, "FEAT-001", "in_progress", "", "")
	writeTestItem(t, svc, "FEAT-002", "in_progress", "", "")

	board, err := svc.Board()
	if err != nil {
		t.Fatal(err)
	}
	if board.Name != "Software Board" {
		t.Errorf("Name = %q", board.Name)
	}
	if got := board.ColumnCounts()["in_progress"]; got != 2 {
		t.Errorf("in_progress count = %d, want 2", got)
	}
}
