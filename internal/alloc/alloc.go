// Package alloc implements concurrent-safe work item ID allocation.
// Multiple agents mint IDs against the same repository without a
// central database: each allocation scans every known source of issued
// numbers, records its claim in a shared ledger file, and publishes
// the claim through git. Conflicting claims are detected by the push
// being rejected, at which point the loser rebases and retries with
// fresh state.
package alloc

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/zulandar/waybill/internal/git"
	"github.com/zulandar/waybill/internal/item"
	"github.com/zulandar/waybill/internal/models"
)

// maxRetries bounds how often a losing allocation rebases and retries
// before reporting failure.
const maxRetries = 3

// ExhaustedError reports that allocation lost the publish race on
// every retry. It is a reported failure, never a duplicate ID.
type ExhaustedError struct {
	Prefix   string
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("alloc: failed to allocate %s id after %d retries", e.Prefix, e.Attempts)
}

// Allocator mints unique per-prefix IDs for one repository.
type Allocator struct {
	root      string   // repository root
	workPaths []string // relative paths scanned for item files
	repo      *git.Repository

	// rescan re-reads the repository's parsed items so an allocation
	// sees every ID the structured metadata knows about.
	rescan func() ([]*models.WorkItem, error)

	// now is swappable for tests.
	now func() time.Time
}

// New returns an Allocator for the repository at root.
func New(root string, workPaths []string, repo *git.Repository, rescan func() ([]*models.WorkItem, error)) *Allocator {
	return &Allocator{
		root:      root,
		workPaths: workPaths,
		repo:      repo,
		rescan:    rescan,
		now:       time.Now,
	}
}

// Options control synchronization behavior for one allocation.
type Options struct {
	// SyncRemote fetches before scanning and pushes the claim after
	// committing. Without it allocation is local-only.
	SyncRemote bool
	// Commit records the claim in the ledger and commits it. Without
	// it the allocation is advisory: the caller gets the next number
	// but nothing is claimed.
	Commit bool
}

// Result is the outcome of one allocation request.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Prefix  string `json:"prefix"`
	Number  int    `json:"number,omitempty"`
	Message string `json:"message"`
}

// Allocate mints the next ID for prefix. The loop is the optimistic
// concurrency protocol: scan, claim, publish; on publish rejection,
// rebase onto the winner's state and start over with a fresh scan.
func (a *Allocator) Allocate(ctx context.Context, prefix string, opts Options) (Result, error) {
	prefix = strings.ToUpper(prefix)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Lost the publish race: integrate the winner's allocation
			// before rescanning.
			if err := a.resync(ctx); err != nil {
				log.Printf("alloc: retry %d: resync: %v", attempt, err)
				continue
			}
		} else if opts.SyncRemote {
			// Best effort: a failed fetch degrades to local-only
			// scanning rather than aborting the allocation.
			fetchCtx, cancel := context.WithTimeout(ctx, git.DefaultTimeout)
			if err := a.repo.Fetch(fetchCtx); err != nil {
				log.Printf("alloc: fetch: %v", err)
			}
			cancel()
		}

		number, err := a.NextNumber(prefix)
		if err != nil {
			return Result{Prefix: prefix}, err
		}
		id := FormatID(prefix, number)

		if !opts.Commit {
			return Result{Success: true, ID: id, Prefix: prefix, Number: number,
				Message: fmt.Sprintf("Allocated %s", id)}, nil
		}

		if err := a.recordAllocation(ctx, id, prefix, number); err != nil {
			return Result{Prefix: prefix}, err
		}

		if !opts.SyncRemote {
			return Result{Success: true, ID: id, Prefix: prefix, Number: number,
				Message: fmt.Sprintf("Allocated %s", id)}, nil
		}

		pushCtx, cancel := context.WithTimeout(ctx, git.DefaultTimeout)
		err = a.repo.Push(pushCtx)
		cancel()
		if err == nil {
			return Result{Success: true, ID: id, Prefix: prefix, Number: number,
				Message: fmt.Sprintf("Allocated %s", id)}, nil
		}
		// Push rejected: another agent claimed an ID first.
		log.Printf("alloc: push rejected, retrying: %v", err)
	}

	err := &ExhaustedError{Prefix: prefix, Attempts: maxRetries}
	return Result{Success: false, Prefix: prefix, Message: "Failed to allocate ID after retries"}, err
}

// resync integrates the winner's state after a lost publish race.
// pull --rebase suffices when histories merge cleanly, but both racers
// append to the same ledger file, so the rebase usually conflicts. In
// that case the local claim is abandoned: abort the rebase, hard-reset
// to the upstream state, and fold any local-only ledger records back
// in before the caller rescans.
func (a *Allocator) resync(ctx context.Context) error {
	local, err := ReadLedger(a.root)
	if err != nil {
		local = nil
	}

	if err := a.repo.PullRebase(ctx); err == nil {
		return nil
	}
	if err := a.repo.RebaseAbort(ctx); err != nil {
		log.Printf("alloc: rebase abort: %v", err)
	}
	if err := a.repo.ResetToUpstream(ctx); err != nil {
		return err
	}

	remote, err := ReadLedger(a.root)
	if err != nil {
		remote = nil
	}
	merged := mergeLedgers(remote, local)
	if len(merged) == len(remote) {
		return nil
	}
	path, err := writeLedger(a.root, merged)
	if err != nil {
		return err
	}
	return a.repo.CommitFile(ctx, path, "Merge allocation ledger")
}

// mergeLedgers unions two record sets by ID, remote entries first. A
// local claim that lost the race carries the winner's ID and is
// dropped by the dedupe; the loop re-allocates it under a fresh
// number.
func mergeLedgers(remote, local []models.Allocation) []models.Allocation {
	seen := make(map[string]bool, len(remote))
	out := append([]models.Allocation(nil), remote...)
	for _, rec := range remote {
		seen[rec.ID] = true
	}
	for _, rec := range local {
		if !seen[rec.ID] {
			seen[rec.ID] = true
			out = append(out, rec)
		}
	}
	return out
}

// NextNumber computes max+1 across every source of issued numbers:
// parsed item IDs, raw filenames under the scan paths (items whose
// metadata failed to parse still occupy their number), and the ledger
// (IDs claimed before their item file exists).
func (a *Allocator) NextNumber(prefix string) (int, error) {
	max := 0

	items, err := a.rescan()
	if err != nil {
		return 0, fmt.Errorf("alloc: rescan: %w", err)
	}
	for _, w := range items {
		if n, ok := item.IDNumber(prefix, w.ID); ok && n > max {
			max = n
		}
	}

	for _, rel := range a.workPaths {
		dir := filepath.Join(a.root, rel)
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(path) != ".md" {
				return nil
			}
			stem := strings.TrimSuffix(filepath.Base(path), ".md")
			if n, ok := item.IDNumber(prefix, stem); ok && n > max {
				max = n
			}
			return nil
		})
	}

	ledger, err := ReadLedger(a.root)
	if err != nil {
		log.Printf("alloc: ledger unreadable, ignoring: %v", err)
		ledger = nil
	}
	for _, rec := range ledger {
		if rec.Prefix == prefix && rec.Number > max {
			max = rec.Number
		}
	}

	return max + 1, nil
}

// FormatID renders a prefix and number as an item ID, zero-padded to
// at least three digits.
func FormatID(prefix string, number int) string {
	return fmt.Sprintf("%s-%03d", prefix, number)
}

// recordAllocation appends the claim to the ledger and commits it.
func (a *Allocator) recordAllocation(ctx context.Context, id, prefix string, number int) error {
	rec := models.Allocation{
		ID:          id,
		Prefix:      prefix,
		Number:      number,
		AllocatedAt: a.now().Format(time.RFC3339),
		AllocatedBy: a.repo.UserName(ctx),
	}
	ledgerPath, err := AppendLedger(a.root, rec)
	if err != nil {
		return err
	}
	if err := a.repo.CommitFile(ctx, ledgerPath, fmt.Sprintf("Allocate ID: %s", id)); err != nil {
		// A failed commit leaves the ledger update local; a later
		// allocation's scan still sees it, so no duplicate can result.
		log.Printf("alloc: commit: %v", err)
	}
	return nil
}
