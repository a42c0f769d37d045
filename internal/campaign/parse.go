package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrConfigInvalid marks structural or semantic violations found when loading
// a campaign config. Nothing is evaluated for a request that hits one.
var ErrConfigInvalid = errors.New("campaign config invalid")

// Parse decodes a {"CampaignConfig": ...} JSON document and validates it.
// Unknown fields are ignored for forward compatibility.
func Parse(data []byte) (*Config, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	cfg := doc.CampaignConfig
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the config invariants: sensible date range, at least one
// iteration, unique iteration dates, and known enum codes throughout.
func (c *Config) Validate() error {
	if c.ID == "" {
		return invalidf("campaign has no ID")
	}
	if c.Type != "V" && c.Type != "S" {
		return invalidf("campaign %s: unknown type %q", c.ID, c.Type)
	}
	if c.StartDate.After(c.EndDate.Time) {
		return invalidf("campaign %s: start date %s after end date %s",
			c.ID, c.StartDate.Format(dateLayout), c.EndDate.Format(dateLayout))
	}
	if len(c.Iterations) == 0 {
		return invalidf("campaign %s: no iterations", c.ID)
	}

	seen := make(map[string]struct{}, len(c.Iterations))
	for i := range c.Iterations {
		it := &c.Iterations[i]
		day := it.IterationDate.Format(dateLayout)
		if _, dup := seen[day]; dup {
			return invalidf("campaign %s: multiple iterations with iteration date %s", c.ID, day)
		}
		seen[day] = struct{}{}
		if err := it.validate(c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (it *Iteration) validate(campaignID string) error {
	switch it.Type {
	case "A", "M", "S", "O":
	default:
		return invalidf("campaign %s iteration %s: unknown iteration type %q", campaignID, it.ID, it.Type)
	}
	for _, c := range it.IterationCohorts {
		v := strings.ToUpper(strings.TrimSpace(c.Virtual))
		if v != "" && v != "Y" && v != "N" {
			return invalidf("campaign %s iteration %s: invalid Virtual flag %q for cohort %s",
				campaignID, it.ID, c.Virtual, c.CohortLabel)
		}
	}
	for _, r := range it.IterationRules {
		switch r.Type {
		case RuleFilter, RuleSuppression, RuleRedirect, RuleNotEligibleAction, RuleNotActionableAction:
		default:
			return invalidf("campaign %s iteration %s: unknown rule type %q on rule %q",
				campaignID, it.ID, r.Type, r.Name)
		}
		switch r.AttributeLevel {
		case LevelPerson, LevelTarget, LevelCohort:
		default:
			return invalidf("campaign %s iteration %s: unknown attribute level %q on rule %q",
				campaignID, it.ID, r.AttributeLevel, r.Name)
		}
		if !r.Operator.Known() {
			return invalidf("campaign %s iteration %s: unknown operator %q on rule %q",
				campaignID, it.ID, r.Operator, r.Name)
		}
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfigInvalid, fmt.Sprintf(format, args...))
}
