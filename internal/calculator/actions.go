package calculator

import (
	"strings"

	"github.com/ignite/eligibility-api/internal/audit"
	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/person"
)

// selectActions chooses the comms actions for a campaign verdict. Routing
// keys from fired redirect (Actionable), not-eligible-action (NotEligible)
// and not-actionable-action (NotActionable) rules override the iteration
// defaults; keys resolve through the ActionsMapper and unknown keys emit
// nothing. Duplicate keys are dropped, input order is kept.
func selectActions(status Status, it *campaign.Iteration, verdicts []cohortVerdict, view *person.View) ([]SuggestedAction, []audit.ActionLine, error) {
	var routingType campaign.RuleType
	var fallback string
	switch status {
	case StatusActionable:
		routingType, fallback = campaign.RuleRedirect, it.DefaultCommsRouting
	case StatusNotEligible:
		routingType, fallback = campaign.RuleNotEligibleAction, it.DefaultNotEligibleRouting
	case StatusNotActionable:
		routingType, fallback = campaign.RuleNotActionableAction, it.DefaultNotActionableRouting
	}

	var keys []string
	for _, v := range verdicts {
		if v.status != status {
			continue
		}
		keys = append(keys, v.routing[routingType]...)
	}
	if len(keys) == 0 && fallback != "" {
		keys = []string{fallback}
	}

	var actions []SuggestedAction
	var lines []audit.ActionLine
	seen := make(map[string]struct{})
	for _, raw := range keys {
		for _, key := range strings.Split(raw, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			available, ok := it.ActionsMapper.Get(key)
			if !ok {
				continue
			}
			description, err := expandTokens(available.ActionDescription, view)
			if err != nil {
				return nil, nil, err
			}
			urlLabel, err := expandTokens(available.URLLabel, view)
			if err != nil {
				return nil, nil, err
			}
			actions = append(actions, SuggestedAction{
				ActionType:  available.ActionType,
				ActionCode:  available.ActionCode,
				Description: description,
				URLLink:     available.URLLink,
				URLLabel:    urlLabel,
			})
			lines = append(lines, audit.ActionLine{
				RoutingKey:  key,
				ActionType:  available.ActionType,
				ActionCode:  available.ActionCode,
				Description: description,
				URLLink:     available.URLLink,
				URLLabel:    urlLabel,
			})
		}
	}
	return actions, lines, nil
}
