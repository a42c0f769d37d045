package calculator

import (
	"testing"
	"time"

	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/person"
)

func intPtr(n int) *int { return &n }

func evalView(cohorts []string, attrs map[string]string) *person.View {
	return person.NewView([]person.AttributeRow{
		{RowType: person.RowTypePerson, Attributes: attrs},
		{RowType: person.RowTypeCohorts, Cohorts: cohorts},
	})
}

func TestResolveCohorts(t *testing.T) {
	it := &campaign.Iteration{
		IterationCohorts: []campaign.IterationCohort{
			{CohortLabel: "rsv_75to79", CohortGroup: "age"},
			{CohortLabel: "rsv_care_home", CohortGroup: "care"},
			{CohortLabel: "virtual_all", CohortGroup: "all", Virtual: "Y"},
		},
	}
	view := evalView([]string{"rsv_75to79"}, nil)

	items := resolveCohorts(it, view)
	if len(items) != 2 {
		t.Fatalf("expected 2 work items, got %d", len(items))
	}
	if items[0].cohort.CohortLabel != "rsv_75to79" || items[0].virtual {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].cohort.CohortLabel != "virtual_all" || !items[1].virtual {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestEvaluateCohortFilterBeatsSuppression(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	it := &campaign.Iteration{
		IterationCohorts: []campaign.IterationCohort{{CohortLabel: "c", CohortGroup: "g"}},
		IterationRules: []campaign.IterationRule{
			{Type: campaign.RuleFilter, Name: "TooYoung", Priority: 10,
				AttributeLevel: campaign.LevelPerson, AttributeName: "AGE",
				Operator: campaign.OpLt, Comparator: "75"},
			{Type: campaign.RuleSuppression, Name: "AlreadyVaccinated", Priority: 10,
				AttributeLevel: campaign.LevelPerson, AttributeName: "VACCINATED",
				Operator: campaign.OpIsTrue},
		},
	}
	view := evalView([]string{"c"}, map[string]string{"AGE": "70", "VACCINATED": "Y"})

	v := evaluateCohort(workItem{cohort: it.IterationCohorts[0]}, it, view, "RSV", today)
	if v.status != StatusNotEligible {
		t.Fatalf("expected NotEligible, got %v", v.status)
	}
	if len(v.reasons) != 1 || v.reasons[0].RuleName != "TooYoung" {
		t.Errorf("expected the filter reason only, got %+v", v.reasons)
	}
}

func TestEvaluateCohortSuppression(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	it := &campaign.Iteration{
		IterationCohorts: []campaign.IterationCohort{{CohortLabel: "c", CohortGroup: "g"}},
		IterationRules: []campaign.IterationRule{
			{Type: campaign.RuleFilter, Name: "TooYoung", Priority: 10,
				AttributeLevel: campaign.LevelPerson, AttributeName: "AGE",
				Operator: campaign.OpLt, Comparator: "75"},
			{Type: campaign.RuleSuppression, Name: "AlreadyVaccinated", Priority: 10,
				AttributeLevel: campaign.LevelPerson, AttributeName: "VACCINATED",
				Operator: campaign.OpIsTrue},
		},
	}
	view := evalView([]string{"c"}, map[string]string{"AGE": "76", "VACCINATED": "Y"})

	v := evaluateCohort(workItem{cohort: it.IterationCohorts[0]}, it, view, "RSV", today)
	if v.status != StatusNotActionable {
		t.Fatalf("expected NotActionable, got %v", v.status)
	}
}

func TestEvaluateCohortDefaultActionable(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	it := &campaign.Iteration{
		IterationCohorts: []campaign.IterationCohort{{CohortLabel: "c", CohortGroup: "g"}},
	}
	view := evalView([]string{"c"}, nil)

	v := evaluateCohort(workItem{cohort: it.IterationCohorts[0]}, it, view, "RSV", today)
	if v.status != StatusActionable {
		t.Fatalf("expected Actionable with no rules, got %v", v.status)
	}
	if len(v.reasons) != 0 {
		t.Errorf("expected no reasons, got %+v", v.reasons)
	}
}

func TestEvaluateCohortRuleScopedToOtherCohort(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	it := &campaign.Iteration{
		IterationCohorts: []campaign.IterationCohort{
			{CohortLabel: "a", CohortGroup: "g"},
			{CohortLabel: "b", CohortGroup: "g"},
		},
		IterationRules: []campaign.IterationRule{
			{Type: campaign.RuleFilter, Name: "OnlyB", Priority: 10, CohortLabel: "b",
				AttributeLevel: campaign.LevelPerson, AttributeName: "X",
				Operator: campaign.OpIsNull},
		},
	}
	view := evalView([]string{"a", "b"}, nil)

	va := evaluateCohort(workItem{cohort: it.IterationCohorts[0]}, it, view, "RSV", today)
	vb := evaluateCohort(workItem{cohort: it.IterationCohorts[1], order: 1}, it, view, "RSV", today)
	if va.status != StatusActionable {
		t.Errorf("cohort a must not see cohort b's rule, got %v", va.status)
	}
	if vb.status != StatusNotEligible {
		t.Errorf("cohort b should fire its filter, got %v", vb.status)
	}
}

func TestEvalTypeGroupsConjunction(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	rules := []campaign.IterationRule{
		{Type: campaign.RuleFilter, Name: "A", Priority: 10,
			AttributeLevel: campaign.LevelPerson, AttributeName: "AGE",
			Operator: campaign.OpGte, Comparator: "75"},
		{Type: campaign.RuleFilter, Name: "B", Priority: 10,
			AttributeLevel: campaign.LevelPerson, AttributeName: "AGE",
			Operator: campaign.OpLt, Comparator: "80"},
	}

	// Both match: the group fires with both reasons.
	out := evalTypeGroups(rules, evalView(nil, map[string]string{"AGE": "77"}), "RSV", today)
	if !out.fired || len(out.reasons) != 2 {
		t.Fatalf("expected group to fire with 2 reasons, got fired=%v reasons=%+v", out.fired, out.reasons)
	}

	// One misses: the whole group stays quiet but both rules are audited.
	out = evalTypeGroups(rules, evalView(nil, map[string]string{"AGE": "82"}), "RSV", today)
	if out.fired {
		t.Error("expected group not to fire when one rule misses")
	}
	if len(out.audit) != 2 {
		t.Errorf("expected both rules audited, got %d", len(out.audit))
	}
}

func TestEvalTypeGroupsRuleStop(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	rules := []campaign.IterationRule{
		{Type: campaign.RuleSuppression, Name: "First", Priority: 10, RuleStop: true,
			AttributeLevel: campaign.LevelPerson, AttributeName: "A",
			Operator: campaign.OpIsNotNull},
		{Type: campaign.RuleSuppression, Name: "Second", Priority: 20,
			AttributeLevel: campaign.LevelPerson, AttributeName: "A",
			Operator: campaign.OpIsNotNull},
	}
	view := evalView(nil, map[string]string{"A": "x"})

	out := evalTypeGroups(rules, view, "RSV", today)
	if !out.fired {
		t.Fatal("expected first group to fire")
	}
	if len(out.reasons) != 1 || out.reasons[0].RuleName != "First" {
		t.Errorf("rule stop should halt later groups, got %+v", out.reasons)
	}

	// A rule stop on a group that does not fire has no effect.
	rules[0].Operator = campaign.OpIsNull
	out = evalTypeGroups(rules, view, "RSV", today)
	if !out.fired || len(out.reasons) != 1 || out.reasons[0].RuleName != "Second" {
		t.Errorf("non-fired rule stop must not block later groups, got fired=%v %+v", out.fired, out.reasons)
	}
}

func TestEvalTypeGroupsPriorityOrder(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	// Declared out of order; priority 5 must still run first.
	rules := []campaign.IterationRule{
		{Type: campaign.RuleRedirect, Name: "Late", Priority: 20, CommsRouting: "late", RuleStop: true,
			AttributeLevel: campaign.LevelPerson, AttributeName: "A", Operator: campaign.OpIsNotNull},
		{Type: campaign.RuleRedirect, Name: "Early", Priority: 5, CommsRouting: "early", RuleStop: true,
			AttributeLevel: campaign.LevelPerson, AttributeName: "A", Operator: campaign.OpIsNotNull},
	}
	view := evalView(nil, map[string]string{"A": "x"})

	out := evalTypeGroups(rules, view, "RSV", today)
	if len(out.routing) != 1 || out.routing[0] != "early" {
		t.Errorf("expected the priority-5 group to fire first and stop, got %v", out.routing)
	}
}

func TestMatchRuleLevels(t *testing.T) {
	today := time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)
	view := person.NewView([]person.AttributeRow{
		{RowType: person.RowTypePerson, Attributes: map[string]string{"AGE": "76"}},
		{RowType: person.RowTypeTarget, Target: "RSV", Attributes: map[string]string{"DOSES": "1"}},
		{RowType: person.RowTypeCohorts, Cohorts: []string{"rsv_75to79"}},
	})

	person75 := campaign.IterationRule{AttributeLevel: campaign.LevelPerson,
		AttributeName: "AGE", Operator: campaign.OpGte, Comparator: "75"}
	if !matchRule(person75, view, "RSV", today) {
		t.Error("PERSON rule should match")
	}

	// TARGET level defaults to the campaign condition when no target is named.
	targetDoses := campaign.IterationRule{AttributeLevel: campaign.LevelTarget,
		AttributeName: "DOSES", Operator: campaign.OpEquals, Comparator: "1"}
	if !matchRule(targetDoses, view, "RSV", today) {
		t.Error("TARGET rule should fall back to the campaign target")
	}
	if matchRule(targetDoses, view, "COVID", today) {
		t.Error("TARGET rule against an absent target must not match")
	}

	memberOf := campaign.IterationRule{AttributeLevel: campaign.LevelCohort,
		Operator: campaign.OpMemberOf, Comparator: "rsv_75to79, rsv_care_home"}
	if !matchRule(memberOf, view, "RSV", today) {
		t.Error("COHORT MemberOf should match a held label")
	}

	notMember := campaign.IterationRule{AttributeLevel: campaign.LevelCohort,
		Operator: campaign.OpNotMemberOf, Comparator: "covid_at_risk"}
	if !matchRule(notMember, view, "RSV", today) {
		t.Error("COHORT NotaMemberOf should match when no label is held")
	}

	startsWith := campaign.IterationRule{AttributeLevel: campaign.LevelCohort,
		Operator: campaign.OpStartsWith, Comparator: "rsv_"}
	if !matchRule(startsWith, view, "RSV", today) {
		t.Error("COHORT starts_with should match any held label")
	}
}
