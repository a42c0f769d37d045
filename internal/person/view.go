// Package person presents a person's attribute rows as typed, immutable
// lookups for the eligibility calculator.
package person

import "sort"

// Row types in the person attribute store.
const (
	RowTypePerson  = "PERSON"
	RowTypeCohorts = "COHORTS"
	RowTypeTarget  = "TARGET"
)

// AttributeRow is one record from the person attribute store. A person has
// exactly one PERSON row, zero or more TARGET rows (keyed by target name,
// e.g. "RSV"), and at most one COHORTS row carrying cohort labels.
type AttributeRow struct {
	RowType    string            `json:"type"`
	Target     string            `json:"target,omitempty"` // set when RowType == TARGET
	Attributes map[string]string `json:"attributes,omitempty"`
	Cohorts    []string          `json:"cohorts,omitempty"` // set when RowType == COHORTS
}

// View is an immutable, request-scoped view over a person's attribute rows.
// Missing attributes are reported via the ok return, never as empty strings,
// so callers can distinguish "absent" from "empty".
type View struct {
	person  map[string]string
	targets map[string]map[string]string
	cohorts map[string]struct{}
}

// NewView builds a view from attribute rows. Later rows of the same type
// shadow earlier ones attribute-by-attribute; cohort labels accumulate.
func NewView(rows []AttributeRow) *View {
	v := &View{
		person:  make(map[string]string),
		targets: make(map[string]map[string]string),
		cohorts: make(map[string]struct{}),
	}
	for _, row := range rows {
		switch row.RowType {
		case RowTypePerson:
			for k, val := range row.Attributes {
				v.person[k] = val
			}
		case RowTypeTarget:
			if row.Target == "" {
				continue
			}
			t := v.targets[row.Target]
			if t == nil {
				t = make(map[string]string)
				v.targets[row.Target] = t
			}
			for k, val := range row.Attributes {
				t[k] = val
			}
		case RowTypeCohorts:
			for _, label := range row.Cohorts {
				v.cohorts[label] = struct{}{}
			}
		}
	}
	return v
}

// PersonAttr returns a PERSON-level attribute.
func (v *View) PersonAttr(name string) (string, bool) {
	val, ok := v.person[name]
	return val, ok
}

// TargetAttr returns an attribute from the named TARGET row.
func (v *View) TargetAttr(target, name string) (string, bool) {
	t, ok := v.targets[target]
	if !ok {
		return "", false
	}
	val, ok := t[name]
	return val, ok
}

// InCohort reports whether the person belongs to the given cohort label.
func (v *View) InCohort(label string) bool {
	_, ok := v.cohorts[label]
	return ok
}

// Cohorts returns the person's cohort labels, sorted for determinism.
func (v *View) Cohorts() []string {
	labels := make([]string, 0, len(v.cohorts))
	for label := range v.cohorts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
