package workflow

import (
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/waybill/internal/models"
)

// Decision is the outcome of validating a proposed transition.
type Decision struct {
	Allowed bool
	Reason  string
}

// ValidateTransition decides whether item may move from its current
// status to target under this workflow.
//
// An unknown current status is allowed through (historical data can
// predate a workflow definition); an unknown target and a failed guard
// are rejected. The asymmetry is deliberate: drift in old data should
// not strand items, but nothing may move into a state the workflow
// does not define.
func (c *Config) ValidateTransition(item *models.WorkItem, target string) Decision {
	if c == nil {
		// No workflow for this type: every transition is permitted.
		return Decision{Allowed: true}
	}

	current := c.State(item.Status)
	targetState := c.State(target)

	if current == nil {
		log.Printf("workflow: unknown current state %q on %s, allowing transition", item.Status, item.ID)
		return Decision{Allowed: true}
	}

	if targetState == nil {
		return Decision{Allowed: false, Reason: fmt.Sprintf("Unknown target state: %s", target)}
	}

	if !current.CanTransitionTo(targetState.ID) {
		allowed := strings.Join(current.AllowedTransitions, ", ")
		if allowed == "" {
			allowed = "none"
		}
		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf("Cannot transition from '%s' to '%s'. Allowed: %s",
				current.Name, targetState.Name, allowed),
		}
	}

	// First failing guard wins, in declaration order.
	for _, rule := range c.Rules {
		if rule.AppliesTo != targetState.ID {
			continue
		}
		if !rule.Condition.Evaluate(item) {
			return Decision{Allowed: false, Reason: rule.Message}
		}
	}

	return Decision{Allowed: true}
}
