package workflow

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleWorkflow = `---
id: experiment-workflow
type: kanban-workflow
applies_to: experiment
version: 2
---

# Experiment Workflow

States and transitions:

` + "```turtle" + `
@prefix wf: <https://waybill.dev/workflow/> .

<state/backlog> a wf:State ;
    wf:name "Backlog" ;
    wf:isInitial true ;
    wf:transitions <state/running>, <state/abandoned> .

<state/running> a wf:State ;
    wf:name "Running" ;
    wf:transitions <state/concluded>, <state/abandoned> .

<state/concluded> a wf:State ;
    wf:name "Concluded" ;
    wf:isTerminal true .

<state/abandoned> a wf:State ;
    wf:name "Abandoned" ;
    wf:isTerminal true .
` + "```" + `

Guard rules:

` + "```turtle" + `
@prefix wf: <https://waybill.dev/workflow/> .

<rule/needs-owner> a wf:Rule ;
    wf:appliesTo <state/running> ;
    wf:condition "item.assignee is not None" ;
    wf:message "Experiments need an owner before they run" .
` + "```" + `
`

func TestParse_WorkflowDefinition(t *testing.T) {
	cfg, err := Parse([]byte(sampleWorkflow))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Parse returned nil for a workflow definition")
	}

	if cfg.ID != "experiment-workflow" {
		t.Errorf("ID = %q", cfg.ID)
	}
	if cfg.Name != "Experiment Workflow" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.AppliesTo != "experiment" {
		t.Errorf("AppliesTo = %q", cfg.AppliesTo)
	}
	if cfg.Version != 2 {
		t.Errorf("Version = %d", cfg.Version)
	}

	if len(cfg.States) != 4 {
		t.Fatalf("len(States) = %d, want 4", len(cfg.States))
	}
	backlog := cfg.State("backlog")
	if backlog == nil || !backlog.IsInitial {
		t.Fatalf("backlog state missing or not initial: %+v", backlog)
	}
	if got := backlog.AllowedTransitions; len(got) != 2 || got[0] != "running" || got[1] != "abandoned" {
		t.Errorf("backlog transitions = %v", got)
	}
	concluded := cfg.State("concluded")
	if concluded == nil || !concluded.IsTerminal {
		t.Errorf("concluded state missing or not terminal: %+v", concluded)
	}

	if len(cfg.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(cfg.Rules))
	}
	rule := cfg.Rules[0]
	if rule.AppliesTo != "running" {
		t.Errorf("rule AppliesTo = %q", rule.AppliesTo)
	}
	if rule.Condition.Kind != CondAssigneePresent {
		t.Errorf("rule condition kind = %d", rule.Condition.Kind)
	}
	if rule.Message != "Experiments need an owner before they run" {
		t.Errorf("rule Message = %q", rule.Message)
	}
}

func TestParse_NotAWorkflow(t *testing.T) {
	cfg, err := Parse([]byte("---\nid: FEAT-001\ntype: feature\n---\n\n# Some item\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("ordinary item markdown should parse to nil, got %+v", cfg)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	cfg, err := Parse([]byte("# Just a readme\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("plain markdown should parse to nil, got %+v", cfg)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("---\ntype: kanban-workflow\n---\n\n# Minimal\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.AppliesTo != "feature" {
		t.Errorf("AppliesTo default = %q, want feature", cfg.AppliesTo)
	}
	if cfg.Version != 1 {
		t.Errorf("Version default = %d, want 1", cfg.Version)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "experiment.md"), []byte(sampleWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Workflows live here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if wf := r.ForType("experiment"); wf == nil {
		t.Fatal("experiment workflow not registered")
	}
	if wf := r.ForType("feature"); wf != nil {
		t.Errorf("unexpected workflow for feature: %+v", wf)
	}
	if types := r.Types(); len(types) != 1 || types[0] != "experiment" {
		t.Errorf("Types() = %v", types)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	r, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(r.Types()) != 0 {
		t.Errorf("Types() = %v, want empty", r.Types())
	}
}
