package alloc

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/zulandar/waybill/internal/git"
	"github.com/zulandar/waybill/internal/models"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func staticRescan(items ...*models.WorkItem) func() ([]*models.WorkItem, error) {
	return func() ([]*models.WorkItem, error) { return items, nil }
}

func TestFormatID(t *testing.T) {
	cases := []struct {
		prefix string
		number int
		want   string
	}{
		{"EXP", 1, "EXP-001"},
		{"EXP", 42, "EXP-042"},
		{"FEAT", 999, "FEAT-999"},
		{"BUG", 1000, "BUG-1000"},
	}
	for _, tc := range cases {
		if got := FormatID(tc.prefix, tc.number); got != tc.want {
			t.Errorf("FormatID(%q, %d) = %q, want %q", tc.prefix, tc.number, got, tc.want)
		}
	}
}

func TestNextNumber_EmptyRepo(t *testing.T) {
	a := New(t.TempDir(), []string{"work/"}, nil, staticRescan())
	n, err := a.NextNumber("EXP")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("NextNumber = %d, want 1", n)
	}
}

func TestNextNumber_MaxAcrossSources(t *testing.T) {
	root := t.TempDir()

	// Filename claims EXP-010 even though its metadata never parsed.
	writeFile(t, filepath.Join(root, "work", "EXP-010-chart-the-reef.md"), "broken")

	// Ledger has claims up to EXP-003.
	for i := 1; i <= 3; i++ {
		if _, err := AppendLedger(root, models.Allocation{
			ID: FormatID("EXP", i), Prefix: "EXP", Number: i,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// Parsed items know about EXP-002.
	a := New(root, []string{"work/"}, nil, staticRescan(
		&models.WorkItem{ID: "EXP-002"},
	))

	n, err := a.NextNumber("EXP")
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Errorf("NextNumber = %d, want 11 (file EXP-010 is the max)", n)
	}
}

func TestNextNumber_PrefixesIndependent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "work", "VOY-020-southern-run.md"), "x")

	a := New(root, []string{"work/"}, nil, staticRescan())
	n, err := a.NextNumber("EXP")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("NextNumber(EXP) = %d, want 1: VOY numbers must not count", n)
	}
}

func TestAllocate_Advisory(t *testing.T) {
	root := t.TempDir()
	a := New(root, []string{"work/"}, nil, staticRescan(&models.WorkItem{ID: "EXP-004"}))

	res, err := a.Allocate(context.Background(), "exp", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ID != "EXP-005" || res.Number != 5 {
		t.Errorf("Result = %+v", res)
	}

	// Advisory allocations claim nothing.
	if records, _ := ReadLedger(root); len(records) != 0 {
		t.Errorf("advisory allocation wrote ledger records: %v", records)
	}
}

func TestAllocate_CommitRecordsLedger(t *testing.T) {
	root := initGitRepo(t)
	a := New(root, []string{"work/"}, git.NewRepository(root), staticRescan())

	res, err := a.Allocate(context.Background(), "EXP", Options{Commit: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ID != "EXP-001" {
		t.Fatalf("Result = %+v", res)
	}

	records, err := ReadLedger(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "EXP-001" || records[0].Number != 1 {
		t.Errorf("ledger = %+v", records)
	}

	// The very next allocation must see the claim.
	res, err = a.Allocate(context.Background(), "EXP", Options{Commit: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "EXP-002" {
		t.Errorf("second allocation = %s, want EXP-002", res.ID)
	}
}

func TestReadLedger_Missing(t *testing.T) {
	records, err := ReadLedger(t.TempDir())
	if err != nil {
		t.Fatalf("missing ledger should be empty, got %v", err)
	}
	if records != nil {
		t.Errorf("records = %v", records)
	}
}

func TestAppendLedger_TrimsToLimit(t *testing.T) {
	root := t.TempDir()
	for i := 1; i <= ledgerLimit+10; i++ {
		if _, err := AppendLedger(root, models.Allocation{
			ID: FormatID("EXP", i), Prefix: "EXP", Number: i,
		}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := ReadLedger(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != ledgerLimit {
		t.Fatalf("len(records) = %d, want %d", len(records), ledgerLimit)
	}
	if records[0].Number != 11 {
		t.Errorf("oldest surviving record = %d, want 11", records[0].Number)
	}
	if records[len(records)-1].Number != ledgerLimit+10 {
		t.Errorf("newest record = %d", records[len(records)-1].Number)
	}
}

func TestAppendLedger_ReplacesCorrupt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, LedgerPath(root), "{not json")

	if _, err := AppendLedger(root, models.Allocation{ID: "EXP-001", Prefix: "EXP", Number: 1}); err != nil {
		t.Fatalf("AppendLedger over corrupt ledger failed: %v", err)
	}

	records, err := ReadLedger(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != "EXP-001" {
		t.Errorf("records = %+v", records)
	}
}

func TestMergeLedgers(t *testing.T) {
	remote := []models.Allocation{
		{ID: "EXP-001", Prefix: "EXP", Number: 1, AllocatedBy: "alice"},
	}
	local := []models.Allocation{
		{ID: "EXP-001", Prefix: "EXP", Number: 1, AllocatedBy: "bob"},
		{ID: "VOY-003", Prefix: "VOY", Number: 3, AllocatedBy: "bob"},
	}

	merged := mergeLedgers(remote, local)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2: %+v", len(merged), merged)
	}
	// The losing duplicate claim yields to the remote record.
	if merged[0].ID != "EXP-001" || merged[0].AllocatedBy != "alice" {
		t.Errorf("merged[0] = %+v, want alice's EXP-001", merged[0])
	}
	// Local-only records survive the merge.
	if merged[1].ID != "VOY-003" {
		t.Errorf("merged[1] = %+v, want VOY-003", merged[1])
	}
}

func TestAllocate_RetriesAfterLostPushRace(t *testing.T) {
	base := t.TempDir()
	remote := filepath.Join(base, "remote.git")
	gitCmd(t, base, "init", "--bare", remote)

	// Seed the remote so every clone shares a branch with an upstream.
	seed := filepath.Join(base, "seed")
	gitCmd(t, base, "clone", remote, seed)
	configureUser(t, seed)
	writeFile(t, filepath.Join(seed, "README.md"), "items\n")
	gitCmd(t, seed, "add", "README.md")
	gitCmd(t, seed, "commit", "-m", "Initial commit")
	gitCmd(t, seed, "push", "origin", "HEAD")

	alice := filepath.Join(base, "alice")
	bob := filepath.Join(base, "bob")
	gitCmd(t, base, "clone", remote, alice)
	gitCmd(t, base, "clone", remote, bob)
	configureUser(t, alice)
	configureUser(t, bob)

	ctx := context.Background()
	opts := Options{SyncRemote: true, Commit: true}

	aliceAlloc := New(alice, []string{"work/"}, git.NewRepository(alice), staticRescan())
	res, err := aliceAlloc.Allocate(ctx, "EXP", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ID != "EXP-001" {
		t.Fatalf("first racer got %+v, want EXP-001", res)
	}

	// Bob's clone predates alice's claim: his push is rejected, and the
	// retry must integrate her ledger before rescanning.
	bobAlloc := New(bob, []string{"work/"}, git.NewRepository(bob), staticRescan())
	res, err = bobAlloc.Allocate(ctx, "EXP", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ID != "EXP-002" {
		t.Fatalf("losing racer got %+v, want EXP-002", res)
	}

	// Both claims are published: a fresh clone sees the full ledger.
	check := filepath.Join(base, "check")
	gitCmd(t, base, "clone", remote, check)
	records, err := ReadLedger(check)
	if err != nil {
		t.Fatal(err)
	}
	ids := make(map[string]bool, len(records))
	for _, rec := range records {
		ids[rec.ID] = true
	}
	if !ids["EXP-001"] || !ids["EXP-002"] {
		t.Errorf("remote ledger = %+v, want both EXP-001 and EXP-002", records)
	}
}

// gitCmd runs one git command for test setup, skipping the test when
// git is unavailable.
func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("git unavailable: %v: %s", err, out)
	}
}

func configureUser(t *testing.T, dir string) {
	t.Helper()
	gitCmd(t, dir, "config", "user.email", "test@example.com")
	gitCmd(t, dir, "config", "user.name", "Test User")
}

// initGitRepo creates a local repository with an identity configured
// so commits succeed.
func initGitRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
	} {
		cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git unavailable: %v: %s", err, out)
		}
	}
	return root
}
