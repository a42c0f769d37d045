// Package campaign holds the typed, validated representation of campaign
// configurations: campaigns, dated iterations, cohorts, priority-grouped
// rules, actions and status text. Configs are read-only after Parse and are
// safely shared by reference across concurrent requests.
package campaign

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RuleType partitions iteration rules into evaluation buckets.
type RuleType string

const (
	RuleFilter              RuleType = "F"
	RuleSuppression         RuleType = "S"
	RuleRedirect            RuleType = "R"
	RuleNotEligibleAction   RuleType = "X"
	RuleNotActionableAction RuleType = "Y"
)

// AttributeLevel selects which person row a rule reads.
type AttributeLevel string

const (
	LevelPerson AttributeLevel = "PERSON"
	LevelTarget AttributeLevel = "TARGET"
	LevelCohort AttributeLevel = "COHORT"
)

// RuleOperator is the comparison a rule applies to an attribute value.
type RuleOperator string

const (
	OpEquals        RuleOperator = "="
	OpNotEquals     RuleOperator = "!="
	OpGt            RuleOperator = ">"
	OpLt            RuleOperator = "<"
	OpGte           RuleOperator = ">="
	OpLte           RuleOperator = "<="
	OpContains      RuleOperator = "contains"
	OpNotContains   RuleOperator = "not_contains"
	OpStartsWith    RuleOperator = "starts_with"
	OpNotStartsWith RuleOperator = "not_starts_with"
	OpEndsWith      RuleOperator = "ends_with"
	OpIn            RuleOperator = "in"
	OpNotIn         RuleOperator = "not_in"
	OpMemberOf      RuleOperator = "MemberOf"
	OpNotMemberOf   RuleOperator = "NotaMemberOf"
	OpIsNull        RuleOperator = "is_null"
	OpIsNotNull     RuleOperator = "is_not_null"
	OpBetween       RuleOperator = "between"
	OpNotBetween    RuleOperator = "not_between"
	OpIsEmpty       RuleOperator = "is_empty"
	OpIsNotEmpty    RuleOperator = "is_not_empty"
	OpIsTrue        RuleOperator = "is_true"
	OpIsFalse       RuleOperator = "is_false"
	OpDayLte        RuleOperator = "D<="
	OpDayLt         RuleOperator = "D<"
	OpDayGte        RuleOperator = "D>="
	OpDayGt         RuleOperator = "D>"
	OpWeekLte       RuleOperator = "W<="
	OpWeekLt        RuleOperator = "W<"
	OpWeekGte       RuleOperator = "W>="
	OpWeekGt        RuleOperator = "W>"
	OpYearLte       RuleOperator = "Y<="
	OpYearLt        RuleOperator = "Y<"
	OpYearGte       RuleOperator = "Y>="
	OpYearGt        RuleOperator = "Y>"
)

var knownOperators = map[RuleOperator]struct{}{
	OpEquals: {}, OpNotEquals: {}, OpGt: {}, OpLt: {}, OpGte: {}, OpLte: {},
	OpContains: {}, OpNotContains: {}, OpStartsWith: {}, OpNotStartsWith: {}, OpEndsWith: {},
	OpIn: {}, OpNotIn: {}, OpMemberOf: {}, OpNotMemberOf: {},
	OpIsNull: {}, OpIsNotNull: {}, OpBetween: {}, OpNotBetween: {},
	OpIsEmpty: {}, OpIsNotEmpty: {}, OpIsTrue: {}, OpIsFalse: {},
	OpDayLte: {}, OpDayLt: {}, OpDayGte: {}, OpDayGt: {},
	OpWeekLte: {}, OpWeekLt: {}, OpWeekGte: {}, OpWeekGt: {},
	OpYearLte: {}, OpYearLt: {}, OpYearGte: {}, OpYearGt: {},
}

// Known reports whether op is a recognised rule operator.
func (op RuleOperator) Known() bool {
	_, ok := knownOperators[op]
	return ok
}

// Date is a calendar date serialised as YYYYMMDD in campaign JSON.
type Date struct {
	time.Time
}

const dateLayout = "20060102"

// UnmarshalJSON parses a YYYYMMDD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date back as a YYYYMMDD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// FlexBool accepts JSON true/false or the strings "Y"/"N" (case-insensitive).
// Absent values default to false.
type FlexBool bool

// UnmarshalJSON handles both boolean and Y/N string encodings.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = FlexBool(v)
	case string:
		*b = FlexBool(strings.EqualFold(strings.TrimSpace(v), "Y"))
	case nil:
		*b = false
	default:
		return fmt.Errorf("invalid boolean value %v", raw)
	}
	return nil
}

// MarshalJSON renders a plain JSON boolean.
func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// IterationCohort describes one cohort within an iteration. CohortLabel is
// the membership key matched against the person's cohorts; CohortGroup is the
// aggregation bucket reported to the caller. Virtual cohorts apply to every
// person regardless of membership.
type IterationCohort struct {
	CohortLabel         string `json:"CohortLabel"`
	CohortGroup         string `json:"CohortGroup"`
	PositiveDescription string `json:"PositiveDescription,omitempty"`
	NegativeDescription string `json:"NegativeDescription,omitempty"`
	Priority            *int   `json:"Priority,omitempty"`
	Virtual             string `json:"Virtual,omitempty"` // "Y"/"N", missing means "N"
}

// IsVirtual reports whether the cohort is virtual (always present for the
// person). The flag is trimmed and case-insensitive.
func (c IterationCohort) IsVirtual() bool {
	return strings.EqualFold(strings.TrimSpace(c.Virtual), "Y")
}

// EffectivePriority returns the cohort priority, with absent priorities
// ordered last. Smaller values win.
func (c IterationCohort) EffectivePriority() int {
	if c.Priority == nil {
		return int(^uint(0) >> 1) // max int
	}
	return *c.Priority
}

// IterationRule is one typed rule within an iteration.
type IterationRule struct {
	Type            RuleType       `json:"Type"`
	Name            string         `json:"Name"`
	Description     string         `json:"Description"`
	Priority        int            `json:"Priority"`
	AttributeLevel  AttributeLevel `json:"AttributeLevel"`
	AttributeName   string         `json:"AttributeName,omitempty"`
	AttributeTarget string         `json:"AttributeTarget,omitempty"`
	CohortLabel     string         `json:"CohortLabel,omitempty"`
	Operator        RuleOperator   `json:"Operator"`
	Comparator      string         `json:"Comparator"`
	RuleStop        FlexBool       `json:"RuleStop,omitempty"`
	CommsRouting    string         `json:"CommsRouting,omitempty"`
}

// AvailableAction is one comms action a routing key can resolve to.
// Strings may carry [[...]] tokens expanded against the person.
type AvailableAction struct {
	ActionType        string `json:"ActionType"`
	ActionCode        string `json:"ExternalRoutingCode"`
	ActionDescription string `json:"ActionDescription,omitempty"`
	URLLink           string `json:"UrlLink,omitempty"`
	URLLabel          string `json:"UrlLabel,omitempty"`
}

// ActionsMapper maps routing keys to available actions.
type ActionsMapper map[string]AvailableAction

// Get returns the action for a routing key.
func (m ActionsMapper) Get(key string) (AvailableAction, bool) {
	a, ok := m[key]
	return a, ok
}

// StatusText carries per-status response text for an iteration.
type StatusText struct {
	NotEligible   string `json:"NotEligible,omitempty"`
	NotActionable string `json:"NotActionable,omitempty"`
	Actionable    string `json:"Actionable,omitempty"`
}

// Iteration is the active ruleset of a campaign from its iteration date.
type Iteration struct {
	ID                          string            `json:"ID"`
	Version                     int               `json:"Version"`
	Name                        string            `json:"Name"`
	IterationDate               Date              `json:"IterationDate"`
	Type                        string            `json:"Type"` // A, M, S or O
	DefaultCommsRouting         string            `json:"DefaultCommsRouting,omitempty"`
	DefaultNotEligibleRouting   string            `json:"DefaultNotEligibleRouting,omitempty"`
	DefaultNotActionableRouting string            `json:"DefaultNotActionableRouting,omitempty"`
	IterationCohorts            []IterationCohort `json:"IterationCohorts"`
	IterationRules              []IterationRule   `json:"IterationRules"`
	ActionsMapper               ActionsMapper     `json:"ActionsMapper,omitempty"`
	StatusText                  *StatusText       `json:"StatusText,omitempty"`
}

// Config is one campaign configuration. Target names the condition the
// campaign recommends (e.g. "RSV"); Type is "V"ariable or "S"tatic.
type Config struct {
	ID                 string      `json:"ID"`
	Version            int         `json:"Version"`
	Name               string      `json:"Name"`
	Type               string      `json:"Type"`
	Target             string      `json:"Target"`
	Manager            []string    `json:"Manager,omitempty"`
	Approver           []string    `json:"Approver,omitempty"`
	Reviewer           []string    `json:"Reviewer,omitempty"`
	IterationFrequency string      `json:"IterationFrequency,omitempty"`
	IterationType      string      `json:"IterationType,omitempty"`
	StartDate          Date        `json:"StartDate"`
	EndDate            Date        `json:"EndDate"`
	Iterations         []Iteration `json:"Iterations"`
}

// Document is the top-level shape of a stored campaign config object.
type Document struct {
	CampaignConfig Config `json:"CampaignConfig"`
}

// Live reports whether today falls within the campaign's date range.
func (c *Config) Live(today time.Time) bool {
	day := truncateToDay(today)
	return !day.Before(c.StartDate.Time) && !day.After(c.EndDate.Time)
}

// CurrentIteration selects, among iterations dated on or before today, the
// one with the greatest iteration date. ok is false when no iteration
// qualifies yet.
func (c *Config) CurrentIteration(today time.Time) (*Iteration, bool) {
	day := truncateToDay(today)
	var current *Iteration
	for i := range c.Iterations {
		it := &c.Iterations[i]
		if it.IterationDate.After(day) {
			continue
		}
		if current == nil || it.IterationDate.After(current.IterationDate.Time) {
			current = it
		}
	}
	return current, current != nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
