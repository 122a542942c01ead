package alloc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zulandar/waybill/internal/models"
)

// ledgerFile is the shared allocation ledger, relative to the
// repository root. It lives inside .kanban/ so every agent commits the
// same path.
const ledgerFile = ".kanban/_ID_ALLOCATIONS.json"

// ledgerLimit bounds the ledger to the most recent entries; it is a
// collision guard, not an audit log.
const ledgerLimit = 100

// LedgerPath returns the ledger location for a repository root.
func LedgerPath(root string) string {
	return filepath.Join(root, ledgerFile)
}

// ReadLedger loads the allocation records. A missing ledger is empty,
// not an error.
func ReadLedger(root string) ([]models.Allocation, error) {
	data, err := os.ReadFile(LedgerPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("alloc: read ledger: %w", err)
	}
	var records []models.Allocation
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("alloc: parse ledger: %w", err)
	}
	return records, nil
}

// AppendLedger adds a record, trims the ledger to its bound, and
// writes it back. Returns the ledger path for the follow-up commit.
func AppendLedger(root string, rec models.Allocation) (string, error) {
	records, err := ReadLedger(root)
	if err != nil {
		// A corrupt ledger is replaced rather than blocking
		// allocation; the filesystem scan still prevents duplicates.
		records = nil
	}
	return writeLedger(root, append(records, rec))
}

// writeLedger trims records to the ledger bound and writes them back,
// returning the ledger path for the follow-up commit.
func writeLedger(root string, records []models.Allocation) (string, error) {
	if len(records) > ledgerLimit {
		records = records[len(records)-ledgerLimit:]
	}

	path := LedgerPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("alloc: create ledger dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("alloc: marshal ledger: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("alloc: write ledger: %w", err)
	}
	return path, nil
}
