// Package flow derives cycle and lead time metrics from recorded
// status history.
package flow

import (
	"time"

	"github.com/zulandar/waybill/internal/models"
)

// ItemMetrics summarizes one item's movement through the board.
type ItemMetrics struct {
	ItemID      string             `json:"item_id"`
	Transitions int                `json:"transitions"`
	// TimeInStatus accumulates hours per status; the final open
	// interval is measured against now.
	TimeInStatus map[string]float64 `json:"time_in_status"`
	// CycleTimeHours is first in_progress to done; zero value of Valid
	// means the item never completed the span.
	CycleTimeHours Hours `json:"cycle_time_hours"`
	// LeadTimeHours is first ready to done.
	LeadTimeHours Hours `json:"lead_time_hours"`
}

// Hours is an optional duration measured in hours.
type Hours struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Compute derives metrics from an item's ordered status history. The
// caller supplies now so the open interval is deterministic in tests.
func Compute(itemID string, history []models.StatusChange, now time.Time) ItemMetrics {
	m := ItemMetrics{
		ItemID:       itemID,
		Transitions:  len(history),
		TimeInStatus: make(map[string]float64),
	}

	for i, entry := range history {
		end := now
		if i+1 < len(history) {
			end = history[i+1].At
		}
		m.TimeInStatus[entry.Status] += end.Sub(entry.At).Hours()
	}

	var inProgress, ready, done time.Time
	for _, entry := range history {
		switch entry.Status {
		case "in_progress":
			if inProgress.IsZero() {
				inProgress = entry.At
			}
		case "ready":
			if ready.IsZero() {
				ready = entry.At
			}
		case "done":
			done = entry.At
		}
	}

	if !inProgress.IsZero() && !done.IsZero() {
		m.CycleTimeHours = Hours{Value: done.Sub(inProgress).Hours(), Valid: true}
	}
	if !ready.IsZero() && !done.IsZero() {
		m.LeadTimeHours = Hours{Value: done.Sub(ready).Hours(), Valid: true}
	}
	return m
}

// BoardMetrics aggregates flow metrics across a board.
type BoardMetrics struct {
	TotalItems        int                `json:"total_items"`
	ItemsWithHistory  int                `json:"items_with_history"`
	AvgCycleTimeHours Hours              `json:"avg_cycle_time_hours"`
	AvgLeadTimeHours  Hours              `json:"avg_lead_time_hours"`
	TimeInStatus      map[string]float64 `json:"total_time_in_status"`
}

// Aggregate averages item metrics across the board. Items without any
// history are excluded from the averages.
func Aggregate(perItem []ItemMetrics, totalItems int) BoardMetrics {
	out := BoardMetrics{
		TotalItems:   totalItems,
		TimeInStatus: make(map[string]float64),
	}

	var cycleSum, leadSum float64
	var cycleCount, leadCount int
	for _, m := range perItem {
		if m.Transitions == 0 {
			continue
		}
		out.ItemsWithHistory++
		if m.CycleTimeHours.Valid {
			cycleSum += m.CycleTimeHours.Value
			cycleCount++
		}
		if m.LeadTimeHours.Valid {
			leadSum += m.LeadTimeHours.Value
			leadCount++
		}
		for status, hours := range m.TimeInStatus {
			out.TimeInStatus[status] += hours
		}
	}

	if cycleCount > 0 {
		out.AvgCycleTimeHours = Hours{Value: cycleSum / float64(cycleCount), Valid: true}
	}
	if leadCount > 0 {
		out.AvgLeadTimeHours = Hours{Value: leadSum / float64(leadCount), Valid: true}
	}
	return out
}
