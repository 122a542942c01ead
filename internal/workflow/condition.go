package workflow

import (
	"regexp"
	"strings"

	"github.com/zulandar/waybill/internal/models"
)

// ConditionKind enumerates the recognized guard predicate shapes.
type ConditionKind int

const (
	// CondUnrecognized is any condition text the engine does not
	// understand. It always evaluates false, so an author typo or an
	// unsupported rule blocks the transition instead of silently
	// passing it.
	CondUnrecognized ConditionKind = iota
	// CondAssigneePresent passes when the item has a non-empty assignee.
	CondAssigneePresent
	// CondDescriptionMinLen passes when len(description) > MinLen.
	CondDescriptionMinLen
	// CondResolutionPresent passes when the item has a non-empty resolution.
	CondResolutionPresent
	// CondSupersededJustified passes unless resolution is "superseded"
	// with no superseding item references.
	CondSupersededJustified
	// CondObjectiveOrDescription passes when the title contains
	// "objective" (case-insensitive) or the description is non-empty.
	CondObjectiveOrDescription
)

// Condition is a parsed guard predicate. Raw preserves the original
// condition text for diagnostics.
type Condition struct {
	Kind   ConditionKind
	MinLen int
	Raw    string
}

var minLenPattern = regexp.MustCompile(`>\s*(\d+)`)

// ParseCondition classifies a rule's condition text into one of the
// recognized predicate shapes. The vocabulary matches the expressions
// used in workflow definition files; anything else is Unrecognized.
func ParseCondition(raw string) Condition {
	cond := Condition{Kind: CondUnrecognized, Raw: raw}

	switch {
	case strings.Contains(raw, "item.assignee is not None"):
		cond.Kind = CondAssigneePresent

	case strings.Contains(raw, "len(item.description"):
		cond.Kind = CondDescriptionMinLen
		if m := minLenPattern.FindStringSubmatch(raw); m != nil {
			cond.MinLen = atoiSafe(m[1])
		}

	case strings.Contains(raw, "item.resolution is not None"):
		cond.Kind = CondResolutionPresent

	case strings.Contains(raw, "item.resolution") && strings.Contains(raw, "superseded_by"):
		cond.Kind = CondSupersededJustified

	case strings.Contains(raw, "'objective'") && strings.Contains(raw, "item.title"):
		cond.Kind = CondObjectiveOrDescription
	}

	return cond
}

// Evaluate applies the condition to an item. Unrecognized conditions
// fail closed.
func (c Condition) Evaluate(item *models.WorkItem) bool {
	switch c.Kind {
	case CondAssigneePresent:
		return item.Assignee != ""
	case CondDescriptionMinLen:
		return len(item.Description) > c.MinLen
	case CondResolutionPresent:
		return item.Resolution != ""
	case CondSupersededJustified:
		if item.Resolution != "superseded" {
			return true
		}
		return len(item.Superseded) > 0
	case CondObjectiveOrDescription:
		if strings.Contains(strings.ToLower(item.Title), "objective") {
			return true
		}
		return item.Description != ""
	default:
		return false
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
