// Package notify delivers transition notifications. Delivery is
// best-effort: a board that cannot reach Slack still moves items, so
// every failure is logged and swallowed.
package notify

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

// Notifier fans a transition event out to the configured channels:
// an arbitrary shell command, a Slack incoming webhook, and a Discord
// webhook.
type Notifier struct {
	cfg config.NotifyConfig

	// discord is a token-less REST session; webhook execution does not
	// need gateway auth.
	discord *discordgo.Session
}

// New builds a Notifier from configuration.
func New(cfg config.NotifyConfig) *Notifier {
	n := &Notifier{cfg: cfg}
	if cfg.DiscordWebhook.ID != "" {
		session, err := discordgo.New("")
		if err != nil {
			log.Printf("notify: discord session: %v", err)
		} else {
			n.discord = session
		}
	}
	return n
}

// ItemMoved implements service.Notifier.
func (n *Notifier) ItemMoved(ctx context.Context, w *models.WorkItem, from, to string) {
	subject := fmt.Sprintf("%s moved %s -> %s", w.ID, from, to)
	body := w.Title
	if w.Assignee != "" {
		body += " (" + w.Assignee + ")"
	}

	n.runCommand(subject, body)
	n.postSlack(ctx, subject, body)
	n.postDiscord(subject, body)
}

// runCommand executes the configured shell command template with the
// event substituted in.
func (n *Notifier) runCommand(subject, body string) {
	if n.cfg.Command == "" {
		return
	}
	r := strings.NewReplacer("{{.Subject}}", subject, "{{.Body}}", body)
	cmd := exec.Command("sh", "-c", r.Replace(n.cfg.Command))
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
}

func (n *Notifier) postSlack(ctx context.Context, subject, body string) {
	if n.cfg.SlackWebhook == "" {
		return
	}
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("*%s*\n%s", subject, body),
	}
	if err := slack.PostWebhookContext(ctx, n.cfg.SlackWebhook, msg); err != nil {
		log.Printf("notify: slack webhook: %v", err)
	}
}

func (n *Notifier) postDiscord(subject, body string) {
	if n.discord == nil {
		return
	}
	_, err := n.discord.WebhookExecute(n.cfg.DiscordWebhook.ID, n.cfg.DiscordWebhook.Token, false,
		&discordgo.WebhookParams{
			Content: fmt.Sprintf("**%s**\n%s", subject, body),
		})
	if err != nil {
		log.Printf("notify: discord webhook: %v", err)
	}
}
