package workflow

import (
	"testing"

	"github.com/zulandar/waybill/internal/models"
)

func TestParseCondition_Kinds(t *testing.T) {
	cases := []struct {
		raw  string
		want ConditionKind
	}{
		{"item.assignee is not None", CondAssigneePresent},
		{"item.assignee is not None and item.assignee != ''", CondAssigneePresent},
		{"len(item.description or '') > 50", CondDescriptionMinLen},
		{"item.resolution is not None", CondResolutionPresent},
		{"item.resolution != 'superseded' or len(item.superseded_by) > 0", CondSupersededJustified},
		{"'objective' in item.title.lower() or item.description", CondObjectiveOrDescription},
		{"item.points > 3", CondUnrecognized},
		{"", CondUnrecognized},
	}
	for _, tc := range cases {
		if got := ParseCondition(tc.raw).Kind; got != tc.want {
			t.Errorf("ParseCondition(%q).Kind = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseCondition_MinLen(t *testing.T) {
	cond := ParseCondition("len(item.description or '') > 50")
	if cond.MinLen != 50 {
		t.Errorf("MinLen = %d, want 50", cond.MinLen)
	}
}

func TestEvaluate_AssigneePresent(t *testing.T) {
	cond := ParseCondition("item.assignee is not None")
	if cond.Evaluate(&models.WorkItem{}) {
		t.Error("empty assignee should fail")
	}
	if !cond.Evaluate(&models.WorkItem{Assignee: "kim"}) {
		t.Error("non-empty assignee should pass")
	}
}

func TestEvaluate_DescriptionMinLen(t *testing.T) {
	cond := ParseCondition("len(item.description or '') > 10")
	if cond.Evaluate(&models.WorkItem{Description: "too short"}) {
		t.Error("9-char description should fail a > 10 check")
	}
	if !cond.Evaluate(&models.WorkItem{Description: "long enough text"}) {
		t.Error("16-char description should pass a > 10 check")
	}
	// Boundary: exactly the threshold is not strictly greater.
	if cond.Evaluate(&models.WorkItem{Description: "ten chars."}) {
		t.Error("10-char description should fail a > 10 check")
	}
}

func TestEvaluate_SupersededJustified(t *testing.T) {
	cond := ParseCondition("item.resolution != 'superseded' or len(item.superseded_by) > 0")

	if !cond.Evaluate(&models.WorkItem{Resolution: "fixed"}) {
		t.Error("non-superseded resolution should pass")
	}
	if cond.Evaluate(&models.WorkItem{Resolution: "superseded"}) {
		t.Error("superseded without references should fail")
	}
	if !cond.Evaluate(&models.WorkItem{Resolution: "superseded", Superseded: []string{"FEAT-009"}}) {
		t.Error("superseded with a reference should pass")
	}
}

func TestEvaluate_ObjectiveOrDescription(t *testing.T) {
	cond := ParseCondition("'objective' in item.title.lower() or item.description")

	if !cond.Evaluate(&models.WorkItem{Title: "Q3 Objective: latency"}) {
		t.Error("title containing 'objective' should pass")
	}
	if !cond.Evaluate(&models.WorkItem{Title: "misc", Description: "details"}) {
		t.Error("non-empty description should pass")
	}
	if cond.Evaluate(&models.WorkItem{Title: "misc"}) {
		t.Error("neither objective title nor description should fail")
	}
}

func TestEvaluate_UnrecognizedFailsClosed(t *testing.T) {
	cond := ParseCondition("item.story_points >= 3")
	item := &models.WorkItem{
		Assignee:    "kim",
		Description: "a perfectly complete item",
		Resolution:  "fixed",
	}
	if cond.Evaluate(item) {
		t.Error("unrecognized condition must evaluate false")
	}
}
