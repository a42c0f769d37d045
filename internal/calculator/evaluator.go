package calculator

import (
	"sort"
	"time"

	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/person"
)

// resolveCohorts builds the per-iteration working set: every virtual cohort
// unconditionally, plus every non-virtual cohort the person belongs to.
// After resolution the evaluator does not distinguish virtual cohorts except
// via the origin flag, which only feeds the audit.
func resolveCohorts(it *campaign.Iteration, view *person.View) []workItem {
	items := make([]workItem, 0, len(it.IterationCohorts))
	for i, cohort := range it.IterationCohorts {
		switch {
		case cohort.IsVirtual():
			items = append(items, workItem{cohort: cohort, virtual: true, order: i})
		case view.InCohort(cohort.CohortLabel):
			items = append(items, workItem{cohort: cohort, order: i})
		}
	}
	return items
}

// evaluateCohort applies the iteration's rules to one cohort and produces its
// verdict. Filter groups are tried first; suppression groups only while the
// cohort is still eligible. Redirect and action-routing rules never change
// status, they only contribute routing keys for the action selector.
func evaluateCohort(item workItem, it *campaign.Iteration, view *person.View, defaultTarget string, today time.Time) cohortVerdict {
	byType := make(map[campaign.RuleType][]campaign.IterationRule)
	for _, rule := range it.IterationRules {
		if rule.CohortLabel != "" && rule.CohortLabel != item.cohort.CohortLabel {
			continue
		}
		byType[rule.Type] = append(byType[rule.Type], rule)
	}

	v := cohortVerdict{
		item:    item,
		status:  StatusActionable,
		routing: make(map[campaign.RuleType][]string),
	}

	filter := evalTypeGroups(byType[campaign.RuleFilter], view, defaultTarget, today)
	v.audit = append(v.audit, filter.audit...)
	if filter.fired {
		v.status = StatusNotEligible
		v.reasons = append(v.reasons, filter.reasons...)
	} else {
		suppression := evalTypeGroups(byType[campaign.RuleSuppression], view, defaultTarget, today)
		v.audit = append(v.audit, suppression.audit...)
		if suppression.fired {
			v.status = StatusNotActionable
			v.reasons = append(v.reasons, suppression.reasons...)
		}
	}

	// Routing selectors for the verdict the cohort landed on.
	var routingType campaign.RuleType
	switch v.status {
	case StatusActionable:
		routingType = campaign.RuleRedirect
	case StatusNotEligible:
		routingType = campaign.RuleNotEligibleAction
	case StatusNotActionable:
		routingType = campaign.RuleNotActionableAction
	}
	outcome := evalTypeGroups(byType[routingType], view, defaultTarget, today)
	v.audit = append(v.audit, outcome.audit...)
	if outcome.fired {
		v.routing[routingType] = outcome.routing
	}

	return v
}

// typeOutcome is the result of evaluating all priority groups of one rule
// type against one cohort.
type typeOutcome struct {
	fired   bool
	reasons []Reason // fired rules
	audit   []Reason // every evaluated rule
	routing []string // comms routing of fired rules, in rule order
}

// evalTypeGroups groups rules by priority and evaluates each group as a
// conjunction: a group fires iff every rule in it matches. A fired rule with
// RuleStop halts evaluation of the remaining groups of this type.
func evalTypeGroups(rules []campaign.IterationRule, view *person.View, defaultTarget string, today time.Time) typeOutcome {
	var out typeOutcome
	if len(rules) == 0 {
		return out
	}

	groups := make(map[int][]campaign.IterationRule)
	priorities := make([]int, 0, len(rules))
	for _, rule := range rules {
		if _, seen := groups[rule.Priority]; !seen {
			priorities = append(priorities, rule.Priority)
		}
		groups[rule.Priority] = append(groups[rule.Priority], rule)
	}
	sort.Ints(priorities)

	for _, priority := range priorities {
		group := groups[priority]
		groupFired := true
		matches := make([]bool, len(group))
		for i, rule := range group {
			matched := matchRule(rule, view, defaultTarget, today)
			matches[i] = matched
			if !matched {
				groupFired = false
			}
			out.audit = append(out.audit, Reason{
				RuleType:        string(rule.Type),
				RuleName:        rule.Name,
				RulePriority:    rule.Priority,
				RuleDescription: rule.Description,
				Matched:         matched,
			})
		}
		if !groupFired {
			continue
		}

		out.fired = true
		stop := false
		for _, rule := range group {
			out.reasons = append(out.reasons, Reason{
				RuleType:        string(rule.Type),
				RuleName:        rule.Name,
				RulePriority:    rule.Priority,
				RuleDescription: rule.Description,
				Matched:         true,
			})
			if rule.CommsRouting != "" {
				out.routing = append(out.routing, rule.CommsRouting)
			}
			if bool(rule.RuleStop) {
				stop = true
			}
		}
		if stop {
			break
		}
	}
	return out
}

// matchRule resolves the rule's attribute from the person view and hands the
// pair to the comparator engine. TARGET rules without an explicit target use
// the campaign's condition tag.
func matchRule(rule campaign.IterationRule, view *person.View, defaultTarget string, today time.Time) bool {
	switch rule.AttributeLevel {
	case campaign.LevelPerson:
		value, present := view.PersonAttr(rule.AttributeName)
		return matchOperator(rule.Operator, value, present, rule.Comparator, today)
	case campaign.LevelTarget:
		target := rule.AttributeTarget
		if target == "" {
			target = defaultTarget
		}
		value, present := view.TargetAttr(target, rule.AttributeName)
		return matchOperator(rule.Operator, value, present, rule.Comparator, today)
	case campaign.LevelCohort:
		cohorts := view.Cohorts()
		if rule.Operator == campaign.OpMemberOf || rule.Operator == campaign.OpNotMemberOf {
			cmp, _, _ := splitNVL(rule.Comparator)
			return matchList(rule.Operator, cohorts, cmp)
		}
		// Any cohort label satisfying the operator matches.
		for _, label := range cohorts {
			if matchOperator(rule.Operator, label, true, rule.Comparator, today) {
				return true
			}
		}
		return matchOperator(rule.Operator, "", false, rule.Comparator, today)
	}
	return false
}
