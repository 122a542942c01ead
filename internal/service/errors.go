package service

import (
	"fmt"
	"strings"
)

// ItemNotFoundError reports a lookup for an ID no scanned file claims.
type ItemNotFoundError struct {
	ID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("service: item not found: %s", e.ID)
}

// UnknownTypeError reports an item type the active theme does not
// define.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("service: unknown item type: %s", e.Type)
}

// UnknownStatusError reports a status outside the canonical vocabulary
// and the active theme's aliases.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("service: unknown status: %s", e.Status)
}

// InvalidTransitionError reports a move the workflow's transition
// graph does not permit.
type InvalidTransitionError struct {
	ItemID  string
	From    string
	To      string
	Allowed []string
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return "service: " + e.Reason
	}
	allowed := strings.Join(e.Allowed, ", ")
	if allowed == "" {
		allowed = "none"
	}
	return fmt.Sprintf("service: invalid transition %s -> %s for %s (allowed: %s)",
		e.From, e.To, e.ItemID, allowed)
}

// GuardFailedError reports a transition blocked by a workflow rule.
type GuardFailedError struct {
	ItemID  string
	To      string
	Message string
}

func (e *GuardFailedError) Error() string {
	return fmt.Sprintf("service: transition to %s blocked: %s", e.To, e.Message)
}

// WIPLimitError reports a move into a column already at its limit.
type WIPLimitError struct {
	Column string
	Count  int
	Limit  int
}

func (e *WIPLimitError) Error() string {
	return fmt.Sprintf("service: WIP limit reached for %s (%d/%d)", e.Column, e.Count, e.Limit)
}

// NoHistoryError reports that flow metrics were requested for an item
// with no recorded status changes.
type NoHistoryError struct {
	ItemID string
}

func (e *NoHistoryError) Error() string {
	return fmt.Sprintf("service: no status history for %s", e.ItemID)
}
