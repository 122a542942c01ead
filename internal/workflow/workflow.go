// Package workflow implements the per-type state machines that govern
// work item status transitions: declarative workflow definitions,
// normalized state lookup, and guard-rule evaluation.
package workflow

import (
	"fmt"
	"strings"
)

// StateConfig describes one workflow state.
type StateConfig struct {
	ID                 string
	Name               string
	IsInitial          bool
	IsTerminal         bool
	AllowedTransitions []string
	Description        string
}

// CanTransitionTo reports whether target is a declared outgoing
// transition of this state.
func (s StateConfig) CanTransitionTo(target string) bool {
	for _, t := range s.AllowedTransitions {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionRule guards entry into a target state. Condition is parsed
// from the rule's declared condition text at load time; unrecognized
// conditions always evaluate false.
type TransitionRule struct {
	ID        string
	AppliesTo string // target state ID this rule guards
	Condition Condition
	Message   string
}

// Config is a complete workflow definition for one item type.
type Config struct {
	ID        string
	Name      string
	AppliesTo string // item type this workflow governs
	States    []StateConfig
	Rules     []TransitionRule
	Version   int
	Source    string // file the definition was parsed from, if any
}

// NormalizeStateID canonicalizes a state identifier for lookup:
// lower-cased, trimmed, spaces and hyphens folded to underscores.
func NormalizeStateID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.ReplaceAll(id, " ", "_")
	return strings.ReplaceAll(id, "-", "_")
}

// State returns the state with the given ID, or nil if the workflow
// does not define it. Lookup is normalized, so "in-progress",
// "IN_PROGRESS" and "in_progress" all resolve to the same state.
func (c *Config) State(id string) *StateConfig {
	normalized := NormalizeStateID(id)
	for i := range c.States {
		if strings.ToLower(c.States[i].ID) == normalized {
			return &c.States[i]
		}
	}
	return nil
}

// AllowedTransitions returns the outgoing transitions of the given
// state, or nil if the state is unknown.
func (c *Config) AllowedTransitions(from string) []string {
	if state := c.State(from); state != nil {
		return state.AllowedTransitions
	}
	return nil
}

// InitialStates returns the states items may start in.
func (c *Config) InitialStates() []StateConfig {
	var out []StateConfig
	for _, s := range c.States {
		if s.IsInitial {
			out = append(out, s)
		}
	}
	return out
}

// TerminalStates returns the states items end in.
func (c *Config) TerminalStates() []StateConfig {
	var out []StateConfig
	for _, s := range c.States {
		if s.IsTerminal {
			out = append(out, s)
		}
	}
	return out
}

// Mermaid renders the workflow as a Mermaid stateDiagram-v2 block.
func (c *Config) Mermaid() string {
	lines := []string{"stateDiagram-v2"}
	for _, s := range c.States {
		if s.IsInitial {
			lines = append(lines, fmt.Sprintf("    [*] --> %s", s.ID))
		}
		if s.IsTerminal {
			lines = append(lines, fmt.Sprintf("    %s --> [*]", s.ID))
		}
		for _, target := range s.AllowedTransitions {
			lines = append(lines, fmt.Sprintf("    %s --> %s", s.ID, target))
		}
	}
	return strings.Join(lines, "\n")
}

// ASCII renders a plain-text summary of the workflow.
func (c *Config) ASCII() string {
	lines := []string{fmt.Sprintf("Workflow: %s (applies to: %s)", c.Name, c.AppliesTo), ""}
	for _, s := range c.States {
		var markers []string
		if s.IsInitial {
			markers = append(markers, "initial")
		}
		if s.IsTerminal {
			markers = append(markers, "terminal")
		}
		marker := ""
		if len(markers) > 0 {
			marker = " (" + strings.Join(markers, ", ") + ")"
		}
		lines = append(lines, fmt.Sprintf("  [%s]%s", s.ID, marker))
		if len(s.AllowedTransitions) > 0 {
			lines = append(lines, "    -> "+strings.Join(s.AllowedTransitions, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// Default returns the built-in workflow used when no declarative
// definition exists for an item type.
func Default() *Config {
	return &Config{
		ID:   "default",
		Name: "Default Workflow",
		States: []StateConfig{
			{ID: "backlog", Name: "Backlog", IsInitial: true,
				AllowedTransitions: []string{"ready", "blocked"}},
			{ID: "ready", Name: "Ready",
				AllowedTransitions: []string{"in_progress", "backlog", "blocked"}},
			{ID: "in_progress", Name: "In Progress",
				AllowedTransitions: []string{"review", "done", "blocked", "ready"}},
			{ID: "review", Name: "Review",
				AllowedTransitions: []string{"done", "in_progress", "blocked"}},
			{ID: "blocked", Name: "Blocked",
				AllowedTransitions: []string{"ready", "in_progress", "backlog"}},
			{ID: "done", Name: "Done", IsTerminal: true},
		},
	}
}
