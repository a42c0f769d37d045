// Package calculator implements the eligibility calculation engine: given a
// person's attribute rows and a set of campaign configurations it decides,
// per campaign, whether the person is Actionable, NotActionable or
// NotEligible, with the cohorts and rules that justify the verdict and the
// comms actions to suggest.
//
// Evaluation is stateless per request; the only request-scoped mutable state
// is the audit record handed in by the caller. Campaign configs are read-only
// and shared across parallel requests.
package calculator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/eligibility-api/internal/audit"
	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/person"
)

// Query carries the request filters.
type Query struct {
	IncludeActions string   // "Y" (default) or "N"
	Conditions     []string // condition names, or ["ALL"]
	Category       string   // "ALL", or a campaign category ("V"/"S")
}

// WantsActions reports whether suggested actions belong in the response.
func (q Query) WantsActions() bool {
	return !strings.EqualFold(q.IncludeActions, "N")
}

func (q Query) wantsCondition(name string) bool {
	if len(q.Conditions) == 0 {
		return true
	}
	for _, c := range q.Conditions {
		if strings.EqualFold(c, "ALL") || strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func (q Query) wantsCategory(category string) bool {
	return q.Category == "" || strings.EqualFold(q.Category, "ALL") || strings.EqualFold(q.Category, category)
}

// Calculator is the facade over the evaluation engine. It is stateless and
// safe for concurrent use; the clock is injectable for deterministic tests.
type Calculator struct {
	now func() time.Time
}

// New creates a calculator using the wall clock.
func New() *Calculator {
	return &Calculator{now: time.Now}
}

// NewWithClock creates a calculator with a fixed clock source.
func NewWithClock(now func() time.Time) *Calculator {
	return &Calculator{now: now}
}

// GetEligibilityStatus evaluates every live campaign for the person and
// returns one condition per campaign with a current iteration. Cancellation
// is honoured at campaign boundaries; partial results are discarded.
func (c *Calculator) GetEligibilityStatus(
	ctx context.Context,
	rows []person.AttributeRow,
	configs []campaign.Config,
	q Query,
	ab *audit.Builder,
) (*EligibilityStatus, error) {
	view := person.NewView(rows)
	today := c.now().UTC()

	result := &EligibilityStatus{Conditions: []Condition{}}
	for i := range configs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := &configs[i]
		if !q.wantsCondition(cfg.Target) || !q.wantsCategory(cfg.Type) {
			continue
		}
		if !cfg.Live(today) {
			continue
		}
		it, ok := cfg.CurrentIteration(today)
		if !ok {
			ab.Info(fmt.Sprintf("Skipping campaign ID %s as no active iteration was found.", cfg.ID))
			continue
		}

		condition, err := c.evaluateCampaign(cfg, it, view, today, q, ab)
		if err != nil {
			return nil, err
		}
		result.Conditions = append(result.Conditions, *condition)
	}
	return result, nil
}

func (c *Calculator) evaluateCampaign(
	cfg *campaign.Config,
	it *campaign.Iteration,
	view *person.View,
	today time.Time,
	q Query,
	ab *audit.Builder,
) (*Condition, error) {
	items := resolveCohorts(it, view)
	if len(items) == 0 {
		return c.baseIneligible(cfg, it, view, q, ab)
	}

	verdicts := make([]cohortVerdict, 0, len(items))
	for _, item := range items {
		verdicts = append(verdicts, evaluateCohort(item, it, view, cfg.Target, today))
	}

	status, groups, reasons := aggregate(verdicts)
	for i := range groups {
		expanded, err := expandTokens(groups[i].Description, view)
		if err != nil {
			return nil, err
		}
		groups[i].Description = expanded
	}

	statusText, err := c.statusText(it, status, cfg.Target, view)
	if err != nil {
		return nil, err
	}

	var actions []SuggestedAction
	var actionLines []audit.ActionLine
	if q.WantsActions() {
		actions, actionLines, err = selectActions(status, it, verdicts, view)
		if err != nil {
			return nil, err
		}
	}

	ab.AddCampaign(audit.CampaignEntry{
		CampaignID:       cfg.ID,
		CampaignVersion:  cfg.Version,
		IterationID:      it.ID,
		IterationVersion: it.Version,
		ConditionName:    cfg.Target,
		Status:           status.String(),
		StatusText:       statusText,
		Rules:            auditRules(verdicts),
		Actions:          actionLines,
	})

	return &Condition{
		ConditionName:    cfg.Target,
		Status:           status,
		StatusText:       statusText,
		CohortResults:    groups,
		SuitabilityRules: reasons,
		Actions:          actions,
	}, nil
}

// baseIneligible is the verdict for a person outside every iteration cohort:
// NotEligible with a single synthetic base-eligibility reason and the
// negative description of the iteration's highest-priority cohort.
func (c *Calculator) baseIneligible(
	cfg *campaign.Config,
	it *campaign.Iteration,
	view *person.View,
	q Query,
	ab *audit.Builder,
) (*Condition, error) {
	status := StatusNotEligible
	reason := Reason{
		RuleType:        string(campaign.RuleFilter),
		RuleName:        "BASE_ELIGIBILITY",
		RulePriority:    0,
		RuleDescription: "Not a member of any eligible cohort",
		Matched:         true,
	}

	var groups []CohortGroupResult
	if best, ok := bestCohort(it); ok {
		description, err := expandTokens(best.NegativeDescription, view)
		if err != nil {
			return nil, err
		}
		groups = append(groups, CohortGroupResult{
			CohortCode:  best.CohortGroup,
			Status:      status,
			Description: description,
		})
	}

	statusText, err := c.statusText(it, status, cfg.Target, view)
	if err != nil {
		return nil, err
	}

	var actions []SuggestedAction
	var actionLines []audit.ActionLine
	if q.WantsActions() {
		actions, actionLines, err = selectActions(status, it, nil, view)
		if err != nil {
			return nil, err
		}
	}

	ab.AddCampaign(audit.CampaignEntry{
		CampaignID:       cfg.ID,
		CampaignVersion:  cfg.Version,
		IterationID:      it.ID,
		IterationVersion: it.Version,
		ConditionName:    cfg.Target,
		Status:           status.String(),
		StatusText:       statusText,
		Rules: []audit.RuleLine{{
			RuleType:    reason.RuleType,
			RuleName:    reason.RuleName,
			Priority:    reason.RulePriority,
			Description: reason.RuleDescription,
			Matched:     true,
		}},
		Actions: actionLines,
	})

	return &Condition{
		ConditionName:    cfg.Target,
		Status:           status,
		StatusText:       statusText,
		CohortResults:    groups,
		SuitabilityRules: []Reason{reason},
		Actions:          actions,
	}, nil
}

// statusText picks the iteration's text for the status, falling back to the
// built-in defaults, and expands any tokens against the person.
func (c *Calculator) statusText(it *campaign.Iteration, status Status, condition string, view *person.View) (string, error) {
	text := ""
	if it.StatusText != nil {
		switch status {
		case StatusActionable:
			text = it.StatusText.Actionable
		case StatusNotActionable:
			text = it.StatusText.NotActionable
		case StatusNotEligible:
			text = it.StatusText.NotEligible
		}
	}
	if strings.TrimSpace(text) == "" {
		text = defaultStatusText(status, condition)
	}
	return expandTokens(text, view)
}

// bestCohort returns the iteration cohort with the smallest priority,
// insertion order breaking ties.
func bestCohort(it *campaign.Iteration) (campaign.IterationCohort, bool) {
	if len(it.IterationCohorts) == 0 {
		return campaign.IterationCohort{}, false
	}
	best := it.IterationCohorts[0]
	for _, cohort := range it.IterationCohorts[1:] {
		if cohort.EffectivePriority() < best.EffectivePriority() {
			best = cohort
		}
	}
	return best, true
}

func auditRules(verdicts []cohortVerdict) []audit.RuleLine {
	var lines []audit.RuleLine
	for _, v := range verdicts {
		for _, r := range v.audit {
			lines = append(lines, audit.RuleLine{
				CohortLabel: v.item.cohort.CohortLabel,
				RuleType:    r.RuleType,
				RuleName:    r.RuleName,
				Priority:    r.RulePriority,
				Description: r.RuleDescription,
				Matched:     r.Matched,
			})
		}
	}
	return lines
}
