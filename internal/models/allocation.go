package models

// Allocation is one issued-ID record in the shared allocation ledger.
// The ledger keeps only the most recent entries; it is a collision
// guard, not an audit log.
type Allocation struct {
	ID          string `json:"id"`
	Prefix      string `json:"prefix"`
	Number      int    `json:"number"`
	AllocatedAt string `json:"allocated_at"`
	AllocatedBy string `json:"allocated_by"`
}
