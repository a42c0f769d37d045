package calculator

import (
	"testing"
	"time"

	"github.com/ignite/eligibility-api/internal/campaign"
)

var testToday = time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC)

func TestSplitNVL(t *testing.T) {
	tests := []struct {
		in       string
		stripped string
		literal  string
		ok       bool
	}{
		{"75[[NVL:0]]", "75", "0", true},
		{"20250101,20251231[[NVL:19000101]]", "20250101,20251231", "19000101", true},
		{"75", "75", "", false},
		{"[[NVL:]]", "", "", true},
		{"75[[NVL:0]]tail", "75[[NVL:0]]tail", "", false},
	}
	for _, tt := range tests {
		stripped, literal, ok := splitNVL(tt.in)
		if stripped != tt.stripped || literal != tt.literal || ok != tt.ok {
			t.Errorf("splitNVL(%q) = (%q, %q, %v), expected (%q, %q, %v)",
				tt.in, stripped, literal, ok, tt.stripped, tt.literal, tt.ok)
		}
	}
}

func TestMatchOperator(t *testing.T) {
	tests := []struct {
		name       string
		op         campaign.RuleOperator
		value      string
		present    bool
		comparator string
		want       bool
	}{
		// Equality, numeric and lexical
		{"numeric equals", campaign.OpEquals, "75", true, "75.0", true},
		{"string equals", campaign.OpEquals, "SW1A", true, "SW1A", true},
		{"not equals", campaign.OpNotEquals, "74", true, "75", true},
		{"numeric gt", campaign.OpGt, "80", true, "75", true},
		{"numeric gt false", campaign.OpGt, "9", true, "75", false},
		{"lexical lt", campaign.OpLt, "apple", true, "banana", true},
		{"gte equal", campaign.OpGte, "75", true, "75", true},
		{"lte", campaign.OpLte, "74.5", true, "75", true},

		// Substring family
		{"contains", campaign.OpContains, "diabetes,asthma", true, "asthma", true},
		{"not_contains", campaign.OpNotContains, "diabetes", true, "asthma", true},
		{"starts_with", campaign.OpStartsWith, "SW1A 1AA", true, "SW1", true},
		{"not_starts_with", campaign.OpNotStartsWith, "E1 6AN", true, "SW1", true},
		{"ends_with", campaign.OpEndsWith, "E1 6AN", true, "6AN", true},

		// List membership
		{"in", campaign.OpIn, "B", true, "A, B, C", true},
		{"in miss", campaign.OpIn, "D", true, "A,B,C", false},
		{"not_in", campaign.OpNotIn, "D", true, "A,B,C", true},
		{"MemberOf single value", campaign.OpMemberOf, "rsv", true, "flu, rsv", true},
		{"NotaMemberOf single value", campaign.OpNotMemberOf, "covid", true, "flu,rsv", true},

		// Presence, before NVL defaulting
		{"is_null absent", campaign.OpIsNull, "", false, "", true},
		{"is_null present", campaign.OpIsNull, "x", true, "", false},
		{"is_not_null", campaign.OpIsNotNull, "x", true, "", true},
		{"is_empty blank", campaign.OpIsEmpty, "   ", true, "", true},
		{"is_empty absent", campaign.OpIsEmpty, "", false, "", true},
		{"is_not_empty", campaign.OpIsNotEmpty, "x", true, "", true},
		{"is_not_empty absent", campaign.OpIsNotEmpty, "", false, "", false},
		{"is_true", campaign.OpIsTrue, "Y", true, "", true},
		{"is_true numeric", campaign.OpIsTrue, "1", true, "", true},
		{"is_true absent", campaign.OpIsTrue, "", false, "", false},
		{"is_false", campaign.OpIsFalse, "N", true, "", true},

		// Ranges
		{"between inside", campaign.OpBetween, "50", true, "18,64", true},
		{"between edge", campaign.OpBetween, "64", true, "18,64", true},
		{"between outside", campaign.OpBetween, "65", true, "18,64", false},
		{"between malformed", campaign.OpBetween, "50", true, "18", false},
		{"not_between", campaign.OpNotBetween, "65", true, "18,64", true},
		{"between dates", campaign.OpBetween, "20250401", true, "20250101,20251231", true},

		// NVL defaulting for absent attributes
		{"absent no NVL", campaign.OpEquals, "", false, "75", false},
		{"absent with NVL match", campaign.OpEquals, "", false, "0[[NVL:0]]", true},
		{"absent with NVL miss", campaign.OpGt, "", false, "75[[NVL:0]]", false},
		{"present ignores NVL", campaign.OpEquals, "75", true, "75[[NVL:0]]", true},

		// Date offsets relative to 2025-04-25
		{"D<= inside", campaign.OpDayLte, "20250420", true, "0", true},
		{"D<= future", campaign.OpDayLte, "20250430", true, "0", false},
		{"D> offset", campaign.OpDayGt, "20250430", true, "3", true},
		{"W<=", campaign.OpWeekLte, "20250424", true, "-1", false},
		{"W>=", campaign.OpWeekGte, "20250420", true, "-1", true},
		{"Y<= age 75", campaign.OpYearLte, "19500425", true, "-75", true},
		{"Y<= under 75", campaign.OpYearLt, "19500426", true, "-75", false},
		{"Y> future birthday", campaign.OpYearGt, "19500426", true, "-75", true},
		{"date bad value", campaign.OpDayLte, "not-a-date", true, "0", false},
		{"date bad offset", campaign.OpDayLte, "20250420", true, "soon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchOperator(tt.op, tt.value, tt.present, tt.comparator, testToday)
			if got != tt.want {
				t.Errorf("matchOperator(%s, %q, present=%v, %q) = %v, expected %v",
					tt.op, tt.value, tt.present, tt.comparator, got, tt.want)
			}
		})
	}
}

func TestMatchList(t *testing.T) {
	cohorts := []string{"flu_clinical", "rsv_75to79"}

	if !matchList(campaign.OpMemberOf, cohorts, "rsv_75to79") {
		t.Error("expected MemberOf to match a held label")
	}
	if !matchList(campaign.OpMemberOf, cohorts, "covid_at_risk, rsv_75to79") {
		t.Error("expected MemberOf to match any label in a comma list")
	}
	if matchList(campaign.OpMemberOf, cohorts, "covid_at_risk") {
		t.Error("expected MemberOf miss")
	}
	if !matchList(campaign.OpNotMemberOf, cohorts, "covid_at_risk") {
		t.Error("expected NotaMemberOf to match when no label is held")
	}
	if matchList(campaign.OpNotMemberOf, cohorts, "flu_clinical") {
		t.Error("expected NotaMemberOf miss when a label is held")
	}
}
