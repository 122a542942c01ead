// Package mirror pushes work items to GitHub issues so collaborators
// without the repository checkout can follow the board. The markdown
// files stay authoritative; mirroring is one-way.
package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/zulandar/waybill/internal/models"
)

// issuesClient abstracts the GitHub issue methods we use, enabling
// test mocks.
type issuesClient interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	Edit(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// Mirror syncs work items to issues in one GitHub repository.
type Mirror struct {
	owner  string
	repo   string
	issues issuesClient
}

// New builds a Mirror authenticated with the given token.
func New(ctx context.Context, owner, repo, token string) *Mirror {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	return &Mirror{owner: owner, repo: repo, issues: client.Issues}
}

// NewWithClient builds a Mirror around an injected issues client.
func NewWithClient(owner, repo string, issues issuesClient) *Mirror {
	return &Mirror{owner: owner, repo: repo, issues: issues}
}

// issueTitle is the mirrored issue title; the leading item ID is the
// join key between board and issue tracker.
func issueTitle(w *models.WorkItem) string {
	return fmt.Sprintf("%s: %s", w.ID, w.Title)
}

// findIssue locates the mirrored issue for an item, if any.
func (m *Mirror) findIssue(ctx context.Context, itemID string) (*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		issues, resp, err := m.issues.ListByRepo(ctx, m.owner, m.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("mirror: list issues: %w", err)
		}
		for _, issue := range issues {
			if strings.HasPrefix(issue.GetTitle(), itemID+":") {
				return issue, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

// SyncItem creates the mirrored issue for an item when absent, and
// closes it when the item is done. Returns the issue number.
func (m *Mirror) SyncItem(ctx context.Context, w *models.WorkItem) (int, error) {
	issue, err := m.findIssue(ctx, w.ID)
	if err != nil {
		return 0, err
	}

	if issue == nil {
		req := &github.IssueRequest{
			Title:  github.Ptr(issueTitle(w)),
			Body:   github.Ptr(w.Description),
			Labels: &[]string{w.Type, "waybill"},
		}
		created, _, err := m.issues.Create(ctx, m.owner, m.repo, req)
		if err != nil {
			return 0, fmt.Errorf("mirror: create issue for %s: %w", w.ID, err)
		}
		issue = created
	}

	wantState := "open"
	if w.Status == "done" {
		wantState = "closed"
	}
	if issue.GetState() != wantState {
		req := &github.IssueRequest{State: github.Ptr(wantState)}
		if _, _, err := m.issues.Edit(ctx, m.owner, m.repo, issue.GetNumber(), req); err != nil {
			return 0, fmt.Errorf("mirror: update issue #%d for %s: %w", issue.GetNumber(), w.ID, err)
		}
	}
	return issue.GetNumber(), nil
}

// SyncAll mirrors every item, returning how many issues were touched.
func (m *Mirror) SyncAll(ctx context.Context, items []*models.WorkItem) (int, error) {
	synced := 0
	for _, w := range items {
		if _, err := m.SyncItem(ctx, w); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}
