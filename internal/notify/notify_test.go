package notify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

func TestItemMoved_RunsCommand(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "event.txt")
	n := New(config.NotifyConfig{
		Command: "printf '%s|%s' '{{.Subject}}' '{{.Body}}' > " + outFile,
	})

	w := &models.WorkItem{ID: "FEAT-001", Title: "Add search", Assignee: "alice"}
	n.ItemMoved(context.Background(), w, "ready", "in_progress")

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "FEAT-001 moved ready -> in_progress") {
		t.Errorf("subject missing: %q", got)
	}
	if !strings.Contains(got, "Add search (alice)") {
		t.Errorf("body missing: %q", got)
	}
}

func TestItemMoved_NoChannelsConfigured(t *testing.T) {
	n := New(config.NotifyConfig{})
	// Must be a no-op, not a panic or a network call.
	n.ItemMoved(context.Background(), &models.WorkItem{ID: "FEAT-001"}, "a", "b")
}

func TestNew_DiscordSessionOnlyWhenConfigured(t *testing.T) {
	if n := New(config.NotifyConfig{}); n.discord != nil {
		t.Error("discord session created without a webhook config")
	}
	n := New(config.NotifyConfig{DiscordWebhook: config.DiscordConfig{ID: "123", Token: "t"}})
	if n.discord == nil {
		t.Error("discord session missing despite webhook config")
	}
}
