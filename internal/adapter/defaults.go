package adapter

import "github.com/amishk599/jobfeed/internal/model"

// field names an optional canonical text field that a provider may omit.
type field int

const (
	fieldLocation field = iota
	fieldEmploymentType
	fieldSalaryRange
	fieldCompanyName
	fieldCompanyWebsite
	fieldIndustry
)

// fieldPolicy says what an absent value resolves to. A nil fallback leaves
// the field absent (serialized as null).
type fieldPolicy struct {
	fallback *string
}

var (
	orNotAvailable = fieldPolicy{fallback: ptr(model.NotAvailable)}
	keepAbsent     = fieldPolicy{}
)

// policyTable holds one provider's defaults. Fields without an entry stay absent.
type policyTable map[field]fieldPolicy

// text resolves an optional value through the table.
func (t policyTable) text(f field, v *string) *string {
	if v != nil {
		return v
	}
	return t[f].fallback
}

// value is text for fields the canonical record stores as plain strings.
func (t policyTable) value(f field, v *string) string {
	if r := t.text(f, v); r != nil {
		return *r
	}
	return ""
}

var providerOnePolicy = policyTable{
	fieldLocation:       orNotAvailable,
	fieldEmploymentType: orNotAvailable,
	fieldSalaryRange:    orNotAvailable,
	fieldCompanyName:    orNotAvailable,
	fieldCompanyWebsite: orNotAvailable,
	fieldIndustry:       orNotAvailable,
}

// Provider two derives location, employment type and salary itself, and
// reports a missing website as absent rather than "N/A".
var providerTwoPolicy = policyTable{
	fieldCompanyName:    orNotAvailable,
	fieldCompanyWebsite: keepAbsent,
	fieldIndustry:       orNotAvailable,
}
