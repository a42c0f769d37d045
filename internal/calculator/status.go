package calculator

import (
	"encoding/json"
	"fmt"
)

// Status is the per-cohort and per-campaign eligibility verdict. The integer
// order NotEligible < NotActionable < Actionable is the sole place precedence
// is encoded; the aggregator depends only on max.
type Status int

const (
	StatusNotEligible Status = iota
	StatusNotActionable
	StatusActionable
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusActionable:
		return "Actionable"
	case StatusNotActionable:
		return "NotActionable"
	default:
		return "NotEligible"
	}
}

// MarshalJSON renders the status as its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a wire-name status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "Actionable":
		*s = StatusActionable
	case "NotActionable":
		*s = StatusNotActionable
	case "NotEligible":
		*s = StatusNotEligible
	default:
		return fmt.Errorf("unknown status %q", name)
	}
	return nil
}

func maxStatus(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// defaultStatusText is used when the iteration carries no status text, or the
// field for the winning status is empty.
func defaultStatusText(s Status, condition string) string {
	if s == StatusNotEligible {
		return "We do not believe you can have it"
	}
	return fmt.Sprintf("You should have the %s vaccine", condition)
}
