// Package audit builds the per-request audit record: one entry per campaign
// considered, listing every rule evaluated (fired or not), the chosen status
// text and the actions emitted. The builder is request-scoped and owned by
// the calculator facade; no global state.
package audit

import (
	"log"
	"time"

	"github.com/google/uuid"
)

// RuleLine records one rule evaluation against one cohort.
type RuleLine struct {
	CohortLabel string `json:"cohortLabel"`
	RuleType    string `json:"ruleType"`
	RuleName    string `json:"ruleName"`
	Priority    int    `json:"rulePriority"`
	Description string `json:"ruleDescription,omitempty"`
	Matched     bool   `json:"matcherMatched"`
}

// ActionLine records one action chosen for a campaign, after token expansion.
type ActionLine struct {
	RoutingKey  string `json:"routingKey"`
	ActionType  string `json:"actionType"`
	ActionCode  string `json:"actionCode"`
	Description string `json:"description,omitempty"`
	URLLink     string `json:"urlLink,omitempty"`
	URLLabel    string `json:"urlLabel,omitempty"`
}

// CampaignEntry is the audit for a single campaign evaluation.
type CampaignEntry struct {
	CampaignID       string       `json:"campaignId"`
	CampaignVersion  int          `json:"campaignVersion"`
	IterationID      string       `json:"iterationId"`
	IterationVersion int          `json:"iterationVersion"`
	ConditionName    string       `json:"conditionName"`
	Status           string       `json:"status"`
	StatusText       string       `json:"statusText"`
	Rules            []RuleLine   `json:"rules,omitempty"`
	Actions          []ActionLine `json:"actions,omitempty"`
}

// Record is the complete audit for one eligibility request.
type Record struct {
	RequestID   string          `json:"requestId"`
	PersonID    string          `json:"personId,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt time.Time       `json:"completedAt"`
	Campaigns   []CampaignEntry `json:"campaigns"`
	Messages    []string        `json:"messages,omitempty"`
}

// Builder accumulates a Record for one request.
type Builder struct {
	rec Record
}

// NewBuilder starts an audit record for the given person.
func NewBuilder(personID string) *Builder {
	return &Builder{rec: Record{
		RequestID: uuid.New().String(),
		PersonID:  personID,
		StartedAt: time.Now().UTC(),
	}}
}

// AddCampaign appends a campaign entry.
func (b *Builder) AddCampaign(entry CampaignEntry) {
	b.rec.Campaigns = append(b.rec.Campaigns, entry)
}

// Info appends an informational line and mirrors it to the process log.
func (b *Builder) Info(msg string) {
	b.rec.Messages = append(b.rec.Messages, msg)
	log.Printf("[audit] %s", msg)
}

// Record finalises and returns the accumulated record.
func (b *Builder) Record() *Record {
	b.rec.CompletedAt = time.Now().UTC()
	return &b.rec
}
