// Package index maintains a local sqlite mirror of the scanned work
// items. The markdown files stay the source of truth; the index is a
// rebuildable cache that gives the dashboard cheap queries without
// re-walking the repository per request.
package index

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/zulandar/waybill/internal/models"
)

// ItemRecord is the GORM row mirroring one work item.
type ItemRecord struct {
	ID        string `gorm:"primaryKey;size:32"`
	Title     string `gorm:"not null"`
	Type      string `gorm:"size:16;index"`
	Status    string `gorm:"size:16;index"`
	Priority  string `gorm:"size:16"`
	Assignee  string `gorm:"size:64;index"`
	Path      string `gorm:"size:255"`
	Score     int
	UpdatedAt time.Time
}

// Open opens (or creates) the index database at path and migrates the
// schema. Use ":memory:" for tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&ItemRecord{}); err != nil {
		return nil, fmt.Errorf("index: auto-migrate: %w", err)
	}
	return db, nil
}

// Rebuild replaces the index content with the given items: upsert
// every row, then delete rows whose files no longer exist.
func Rebuild(db *gorm.DB, items []*models.WorkItem) error {
	seen := make([]string, 0, len(items))
	for _, w := range items {
		rec := ItemRecord{
			ID:        w.ID,
			Title:     w.Title,
			Type:      w.Type,
			Status:    w.Status,
			Priority:  w.Priority,
			Assignee:  w.Assignee,
			Path:      w.Path,
			Score:     w.PriorityScore(),
			UpdatedAt: w.Updated,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rec)
		if result.Error != nil {
			return fmt.Errorf("index: upsert %s: %w", w.ID, result.Error)
		}
		seen = append(seen, w.ID)
	}

	// GORM refuses an unconditioned Delete, so an empty repository
	// needs the explicit global-delete session to clear the index.
	query := db.Model(&ItemRecord{})
	if len(seen) > 0 {
		query = query.Where("id NOT IN ?", seen)
	} else {
		query = query.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	if err := query.Delete(&ItemRecord{}).Error; err != nil {
		return fmt.Errorf("index: prune: %w", err)
	}
	return nil
}

// StatusCounts returns the item count per status.
func StatusCounts(db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := db.Model(&ItemRecord{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("index: status counts: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// ByStatus lists indexed items with the given status, best first.
func ByStatus(db *gorm.DB, status string) ([]ItemRecord, error) {
	var recs []ItemRecord
	err := db.Where("status = ?", status).
		Order("score DESC, id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("index: by status %s: %w", status, err)
	}
	return recs, nil
}

// All lists every indexed item, best first.
func All(db *gorm.DB) ([]ItemRecord, error) {
	var recs []ItemRecord
	if err := db.Order("score DESC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	return recs, nil
}
