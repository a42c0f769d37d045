package calculator

import "sort"

// aggregate collapses per-cohort verdicts into the campaign verdict.
//
// The campaign status is the precedence maximum over cohorts. For
// presentation, cohorts are grouped by cohort group; within a group only rows
// matching the winning status survive, the first non-empty description by
// cohort priority wins, and reasons are deduplicated across surviving rows.
func aggregate(verdicts []cohortVerdict) (Status, []CohortGroupResult, []Reason) {
	status := StatusNotEligible
	for _, v := range verdicts {
		status = maxStatus(status, v.status)
	}

	sortVerdicts(verdicts)

	groupIndex := make(map[string]int)
	var groups []CohortGroupResult
	seen := make(map[reasonKey]struct{})
	var reasons []Reason

	for _, v := range verdicts {
		if v.status != status {
			continue
		}
		g := v.item.cohort.CohortGroup
		idx, ok := groupIndex[g]
		if !ok {
			idx = len(groups)
			groupIndex[g] = idx
			groups = append(groups, CohortGroupResult{CohortCode: g, Status: status})
		}
		if groups[idx].Description == "" {
			groups[idx].Description = cohortDescription(v, status)
		}
		for _, r := range v.reasons {
			if _, dup := seen[r.key()]; dup {
				continue
			}
			seen[r.key()] = struct{}{}
			reasons = append(reasons, r)
		}
	}

	sort.SliceStable(reasons, func(i, j int) bool {
		if reasons[i].RulePriority != reasons[j].RulePriority {
			return reasons[i].RulePriority < reasons[j].RulePriority
		}
		return reasons[i].RuleName < reasons[j].RuleName
	})

	return status, groups, reasons
}

// sortVerdicts orders cohort verdicts deterministically: cohort group, then
// cohort priority, then cohort label, with insertion order as the final
// tiebreak. Evaluation order must never affect the result.
func sortVerdicts(verdicts []cohortVerdict) {
	sort.SliceStable(verdicts, func(i, j int) bool {
		a, b := verdicts[i].item, verdicts[j].item
		if a.cohort.CohortGroup != b.cohort.CohortGroup {
			return a.cohort.CohortGroup < b.cohort.CohortGroup
		}
		if a.cohort.EffectivePriority() != b.cohort.EffectivePriority() {
			return a.cohort.EffectivePriority() < b.cohort.EffectivePriority()
		}
		if a.cohort.CohortLabel != b.cohort.CohortLabel {
			return a.cohort.CohortLabel < b.cohort.CohortLabel
		}
		return a.order < b.order
	})
}

// cohortDescription picks the cohort text for the surviving status: the
// positive description for Actionable/NotActionable, the negative one for
// NotEligible.
func cohortDescription(v cohortVerdict, status Status) string {
	if status == StatusNotEligible {
		return v.item.cohort.NegativeDescription
	}
	return v.item.cohort.PositiveDescription
}
