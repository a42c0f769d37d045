package calculator

import (
	"strconv"
	"strings"
	"time"

	"github.com/ignite/eligibility-api/internal/campaign"
)

// The comparator engine evaluates one rule operator against one attribute
// value. It is pure: a comparator that fails to parse means the rule does not
// match, never an error.

const (
	nvlPrefix  = "[[NVL:"
	nvlSuffix  = "]]"
	attrLayout = "20060102"
)

// splitNVL strips a trailing [[NVL:<literal>]] suffix from a comparator.
// The suffix is removed before any operator-specific splitting.
func splitNVL(comparator string) (stripped, literal string, ok bool) {
	idx := strings.LastIndex(comparator, nvlPrefix)
	if idx < 0 || !strings.HasSuffix(comparator, nvlSuffix) {
		return comparator, "", false
	}
	literal = comparator[idx+len(nvlPrefix) : len(comparator)-len(nvlSuffix)]
	return comparator[:idx], literal, true
}

// matchOperator evaluates op against a scalar attribute value. present is
// false when the attribute is absent from the person; numerical and date
// operators then fall back to the comparator's NVL literal, or do not match.
func matchOperator(op campaign.RuleOperator, value string, present bool, comparator string, today time.Time) bool {
	// Presence operators see the raw attribute, before NVL defaulting.
	switch op {
	case campaign.OpIsNull:
		return !present
	case campaign.OpIsNotNull:
		return present
	case campaign.OpIsEmpty:
		return !present || strings.TrimSpace(value) == ""
	case campaign.OpIsNotEmpty:
		return present && strings.TrimSpace(value) != ""
	case campaign.OpIsTrue:
		return present && parseBool(value)
	case campaign.OpIsFalse:
		return present && !parseBool(value)
	}

	cmp, nvl, hasNVL := splitNVL(comparator)
	if !present {
		if !hasNVL {
			return false
		}
		value = nvl
	}

	switch op {
	case campaign.OpEquals:
		return compareValues(value, cmp) == 0
	case campaign.OpNotEquals:
		return compareValues(value, cmp) != 0
	case campaign.OpGt:
		return compareValues(value, cmp) > 0
	case campaign.OpLt:
		return compareValues(value, cmp) < 0
	case campaign.OpGte:
		return compareValues(value, cmp) >= 0
	case campaign.OpLte:
		return compareValues(value, cmp) <= 0

	case campaign.OpContains:
		return strings.Contains(value, cmp)
	case campaign.OpNotContains:
		return !strings.Contains(value, cmp)
	case campaign.OpStartsWith:
		return strings.HasPrefix(value, cmp)
	case campaign.OpNotStartsWith:
		return !strings.HasPrefix(value, cmp)
	case campaign.OpEndsWith:
		return strings.HasSuffix(value, cmp)

	case campaign.OpIn:
		return inList(value, cmp)
	case campaign.OpNotIn:
		return !inList(value, cmp)
	case campaign.OpMemberOf:
		return matchList(op, []string{value}, cmp)
	case campaign.OpNotMemberOf:
		return matchList(op, []string{value}, cmp)

	case campaign.OpBetween:
		return between(value, cmp)
	case campaign.OpNotBetween:
		lo, hi, ok := splitRange(cmp)
		if !ok {
			return false
		}
		return !(compareValues(value, lo) >= 0 && compareValues(value, hi) <= 0)

	case campaign.OpDayLte, campaign.OpDayLt, campaign.OpDayGte, campaign.OpDayGt,
		campaign.OpWeekLte, campaign.OpWeekLt, campaign.OpWeekGte, campaign.OpWeekGt,
		campaign.OpYearLte, campaign.OpYearLt, campaign.OpYearGte, campaign.OpYearGt:
		return matchDateOffset(op, value, cmp, today)
	}
	return false
}

// matchList evaluates the cohort-set operators against a list of values.
// The comparator may name several labels, comma-separated; MemberOf matches
// when any named label is present.
func matchList(op campaign.RuleOperator, values []string, comparator string) bool {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	member := false
	for _, label := range strings.Split(comparator, ",") {
		if _, ok := set[strings.TrimSpace(label)]; ok {
			member = true
			break
		}
	}
	if op == campaign.OpNotMemberOf {
		return !member
	}
	return member
}

// compareValues orders two scalars: numerically when both parse as numbers,
// as dates when both parse as YYYYMMDD, lexically otherwise.
func compareValues(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if fa, errA := strconv.ParseFloat(a, 64); errA == nil {
		if fb, errB := strconv.ParseFloat(b, 64); errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a, b)
}

func inList(value, comparator string) bool {
	for _, item := range strings.Split(comparator, ",") {
		if strings.TrimSpace(item) == strings.TrimSpace(value) {
			return true
		}
	}
	return false
}

func between(value, comparator string) bool {
	lo, hi, ok := splitRange(comparator)
	if !ok {
		return false
	}
	return compareValues(value, lo) >= 0 && compareValues(value, hi) <= 0
}

func splitRange(comparator string) (lo, hi string, ok bool) {
	parts := strings.SplitN(comparator, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// matchDateOffset compares a YYYYMMDD date attribute to today plus the
// comparator's integer offset in days, weeks or calendar years. Years use
// calendar month/day arithmetic, not a 365-day approximation.
func matchDateOffset(op campaign.RuleOperator, value, comparator string, today time.Time) bool {
	attr, err := time.ParseInLocation(attrLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(comparator))
	if err != nil {
		return false
	}

	day := time.Date(today.UTC().Year(), today.UTC().Month(), today.UTC().Day(), 0, 0, 0, 0, time.UTC)
	var ref time.Time
	unit := string(op)[0]
	switch unit {
	case 'D':
		ref = day.AddDate(0, 0, n)
	case 'W':
		ref = day.AddDate(0, 0, 7*n)
	case 'Y':
		ref = day.AddDate(n, 0, 0)
	default:
		return false
	}

	switch string(op)[1:] {
	case "<=":
		return !attr.After(ref)
	case "<":
		return attr.Before(ref)
	case ">=":
		return !attr.Before(ref)
	case ">":
		return attr.After(ref)
	}
	return false
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "y", "yes", "1":
		return true
	}
	return false
}
