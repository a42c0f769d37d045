package calculator

import (
	"reflect"
	"testing"

	"github.com/ignite/eligibility-api/internal/campaign"
)

func verdict(label, group string, priority *int, status Status, order int, reasons ...Reason) cohortVerdict {
	return cohortVerdict{
		item: workItem{
			cohort: campaign.IterationCohort{
				CohortLabel:         label,
				CohortGroup:         group,
				Priority:            priority,
				PositiveDescription: "positive " + label,
				NegativeDescription: "negative " + label,
			},
			order: order,
		},
		status:  status,
		reasons: reasons,
	}
}

func TestAggregateMaxStatusWins(t *testing.T) {
	verdicts := []cohortVerdict{
		verdict("a", "g1", intPtr(10), StatusNotEligible, 0),
		verdict("b", "g2", intPtr(20), StatusActionable, 1),
		verdict("c", "g3", intPtr(30), StatusNotActionable, 2),
	}

	status, groups, _ := aggregate(verdicts)
	if status != StatusActionable {
		t.Fatalf("expected Actionable, got %v", status)
	}
	// Only the winning cohort survives into the groups.
	if len(groups) != 1 || groups[0].CohortCode != "g2" {
		t.Errorf("expected only g2 to survive, got %+v", groups)
	}
	if groups[0].Description != "positive b" {
		t.Errorf("expected positive description, got %q", groups[0].Description)
	}
}

func TestAggregateNegativeDescriptionWhenNotEligible(t *testing.T) {
	verdicts := []cohortVerdict{
		verdict("a", "g1", intPtr(10), StatusNotEligible, 0),
	}
	status, groups, _ := aggregate(verdicts)
	if status != StatusNotEligible {
		t.Fatalf("expected NotEligible, got %v", status)
	}
	if groups[0].Description != "negative a" {
		t.Errorf("expected negative description, got %q", groups[0].Description)
	}
}

func TestAggregateGroupDescriptionByPriority(t *testing.T) {
	// Two cohorts in the same group: the lower priority value provides the
	// description even when declared second.
	verdicts := []cohortVerdict{
		verdict("late", "g", intPtr(20), StatusActionable, 0),
		verdict("early", "g", intPtr(10), StatusActionable, 1),
	}
	_, groups, _ := aggregate(verdicts)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].Description != "positive early" {
		t.Errorf("expected the priority-10 description, got %q", groups[0].Description)
	}
}

func TestAggregateSkipsEmptyDescriptions(t *testing.T) {
	v1 := verdict("first", "g", intPtr(10), StatusActionable, 0)
	v1.item.cohort.PositiveDescription = ""
	v2 := verdict("second", "g", intPtr(20), StatusActionable, 1)

	_, groups, _ := aggregate([]cohortVerdict{v1, v2})
	if groups[0].Description != "positive second" {
		t.Errorf("expected first non-empty description, got %q", groups[0].Description)
	}
}

func TestAggregateMissingPrioritySortsLast(t *testing.T) {
	verdicts := []cohortVerdict{
		verdict("nopriority", "g", nil, StatusActionable, 0),
		verdict("ten", "g", intPtr(10), StatusActionable, 1),
	}
	_, groups, _ := aggregate(verdicts)
	if groups[0].Description != "positive ten" {
		t.Errorf("expected the prioritised cohort to win, got %q", groups[0].Description)
	}
}

func TestAggregateReasonDedup(t *testing.T) {
	shared := Reason{RuleType: "S", RuleName: "AlreadyVaccinated", RulePriority: 10, Matched: true}
	other := Reason{RuleType: "S", RuleName: "RecentDose", RulePriority: 5, Matched: true}

	verdicts := []cohortVerdict{
		verdict("a", "g1", intPtr(10), StatusNotActionable, 0, shared),
		verdict("b", "g2", intPtr(20), StatusNotActionable, 1, shared, other),
	}
	_, _, reasons := aggregate(verdicts)
	if len(reasons) != 2 {
		t.Fatalf("expected 2 deduplicated reasons, got %d: %+v", len(reasons), reasons)
	}
	// Sorted by priority then name.
	want := []string{"RecentDose", "AlreadyVaccinated"}
	var got []string
	for _, r := range reasons {
		got = append(got, r.RuleName)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected reason order %v, got %v", want, got)
	}
}

func TestAggregateOrderIndependence(t *testing.T) {
	build := func(order []int) []cohortVerdict {
		all := []cohortVerdict{
			verdict("a", "g2", intPtr(10), StatusActionable, 0),
			verdict("b", "g1", intPtr(10), StatusActionable, 1),
			verdict("c", "g1", intPtr(5), StatusActionable, 2),
		}
		out := make([]cohortVerdict, 0, len(all))
		for _, i := range order {
			out = append(out, all[i])
		}
		return out
	}

	_, groups1, _ := aggregate(build([]int{0, 1, 2}))
	_, groups2, _ := aggregate(build([]int{2, 0, 1}))
	if !reflect.DeepEqual(groups1, groups2) {
		t.Errorf("aggregation must not depend on input order:\n%+v\n%+v", groups1, groups2)
	}
	if groups1[0].CohortCode != "g1" {
		t.Errorf("expected groups sorted by cohort group, got %+v", groups1)
	}
}
