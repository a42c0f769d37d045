package calculator

import (
	"errors"

	"github.com/ignite/eligibility-api/internal/campaign"
)

// ErrInvalidToken marks a malformed [[...]] token in a description, status
// text or action string. It is user-visible and fails the whole request.
var ErrInvalidToken = errors.New("invalid token")

// Reason is the display/audit record of a rule firing against a cohort.
// Identity for deduplication is (RuleType, RuleName, RulePriority).
type Reason struct {
	RuleType        string `json:"ruleType"`
	RuleName        string `json:"ruleName"`
	RulePriority    int    `json:"rulePriority"`
	RuleDescription string `json:"ruleDescription,omitempty"`
	Matched         bool   `json:"matcherMatched"`
}

type reasonKey struct {
	ruleType string
	name     string
	priority int
}

func (r Reason) key() reasonKey {
	return reasonKey{ruleType: r.RuleType, name: r.RuleName, priority: r.RulePriority}
}

// CohortGroupResult is the surviving row for one cohort group in a condition.
type CohortGroupResult struct {
	CohortCode  string `json:"cohortCode"`
	Status      Status `json:"status"`
	Description string `json:"description,omitempty"`
}

// SuggestedAction is one comms action emitted for a condition.
type SuggestedAction struct {
	ActionType  string `json:"actionType"`
	ActionCode  string `json:"actionCode"`
	Description string `json:"description,omitempty"`
	URLLink     string `json:"urlLink,omitempty"`
	URLLabel    string `json:"urlLabel,omitempty"`
}

// Condition is the per-campaign entry in the response.
type Condition struct {
	ConditionName    string              `json:"condition"`
	Status           Status              `json:"status"`
	StatusText       string              `json:"statusText"`
	CohortResults    []CohortGroupResult `json:"cohortResults"`
	SuitabilityRules []Reason            `json:"suitabilityRules"`
	Actions          []SuggestedAction   `json:"actions,omitempty"`
}

// EligibilityStatus is the full response for one person.
type EligibilityStatus struct {
	Conditions []Condition `json:"conditions"`
}

// workItem is one cohort in the per-iteration working set, after virtual
// expansion and membership reconciliation.
type workItem struct {
	cohort  campaign.IterationCohort
	virtual bool // membership came from the virtual flag, not the person
	order   int  // insertion order, tiebreak for equal priorities
}

// cohortVerdict is the outcome of evaluating one cohort.
type cohortVerdict struct {
	item    workItem
	status  Status
	reasons []Reason // fired rules only
	audit   []Reason // every evaluated rule, fired or not
	// routing keys from fired R/X/Y rules, in evaluation order
	routing map[campaign.RuleType][]string
}
