// Package git provides the version-control primitives Waybill needs:
// fetch, commit, push, and pull-rebase against the tracked repository.
// All commands target a specific repository directory; callers pass a
// context to bound the synchronous network calls.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds remote operations (fetch, push, pull).
const DefaultTimeout = 30 * time.Second

// Repository targets a git repository at a specific directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository rooted at dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// run executes a git command in the repository directory. Stderr is
// captured and folded into error messages.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.dir}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git: %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Fetch retrieves the latest refs from origin.
func (r *Repository) Fetch(ctx context.Context) error {
	_, err := r.run(ctx, "fetch", "origin")
	return err
}

// Add stages the given paths.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	_, err := r.run(ctx, append([]string{"add"}, paths...)...)
	return err
}

// Commit records staged changes with the given message.
func (r *Repository) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// Push publishes local commits. A non-fast-forward rejection surfaces
// as an error; callers treat it as a retryable conflict, not a fault.
func (r *Repository) Push(ctx context.Context) error {
	_, err := r.run(ctx, "push")
	return err
}

// PullRebase integrates remote changes by rebasing local commits on
// top of the remote head.
func (r *Repository) PullRebase(ctx context.Context) error {
	_, err := r.run(ctx, "pull", "--rebase")
	return err
}

// RebaseAbort discards an in-progress rebase, restoring the
// pre-rebase state.
func (r *Repository) RebaseAbort(ctx context.Context) error {
	_, err := r.run(ctx, "rebase", "--abort")
	return err
}

// ResetToUpstream discards local commits and working tree changes so
// the branch matches its upstream.
func (r *Repository) ResetToUpstream(ctx context.Context) error {
	_, err := r.run(ctx, "reset", "--hard", "@{upstream}")
	return err
}

// UserName returns the configured git user name, or "unknown" when
// none is set.
func (r *Repository) UserName(ctx context.Context) string {
	name, err := r.run(ctx, "config", "user.name")
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

// CommitFile is the common add-then-commit sequence for a single
// path. Failures are returned, not swallowed; callers decide whether a
// failed commit is fatal for their operation.
func (r *Repository) CommitFile(ctx context.Context, path, message string) error {
	if err := r.Add(ctx, path); err != nil {
		return err
	}
	return r.Commit(ctx, message)
}
