package models

import "sort"

// Column is one kanban column. Columns come from the active theme and
// are read-only relative to items.
type Column struct {
	ID          string
	Name        string
	Order       int
	WIPLimit    int // 0 means unlimited
	Description string
}

// OverWIP reports whether count exceeds the column's limit. A count
// equal to the limit is not a violation.
func (c Column) OverWIP(count int) bool {
	return c.WIPLimit > 0 && count > c.WIPLimit
}

// WIPViolation pairs an over-limit column with its current count.
type WIPViolation struct {
	Column Column
	Count  int
}

// Board is a view over a column sequence and an item collection. It is
// recomputed on demand, never persisted.
type Board struct {
	ID      string
	Name    string
	Columns []Column
	Items   []*WorkItem

	// StatusMap maps column IDs to canonical item statuses for themed
	// columns. Columns absent from the map count as zero.
	StatusMap map[string]string
}

// ItemsByStatus returns all items with the given canonical status.
func (b *Board) ItemsByStatus(status string) []*WorkItem {
	var out []*WorkItem
	for _, item := range b.Items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// ColumnCounts returns the item count per column ID.
func (b *Board) ColumnCounts() map[string]int {
	counts := make(map[string]int, len(b.Columns))
	for _, col := range b.Columns {
		status, ok := b.StatusMap[col.ID]
		if !ok {
			counts[col.ID] = 0
			continue
		}
		counts[col.ID] = len(b.ItemsByStatus(status))
	}
	return counts
}

// WIPViolations returns every column whose count exceeds its limit.
func (b *Board) WIPViolations() []WIPViolation {
	counts := b.ColumnCounts()
	var out []WIPViolation
	for _, col := range b.Columns {
		if count := counts[col.ID]; col.OverWIP(count) {
			out = append(out, WIPViolation{Column: col, Count: count})
		}
	}
	return out
}

// SortItems orders items by descending priority score, ties broken by
// ascending ID. This is the default listing order everywhere.
func SortItems(items []*WorkItem) {
	sort.Slice(items, func(i, j int) bool {
		si, sj := items[i].PriorityScore(), items[j].PriorityScore()
		if si != sj {
			return si > sj
		}
		return items[i].ID < items[j].ID
	})
}
