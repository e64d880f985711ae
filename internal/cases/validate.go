package cases

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
)

// MaxNervesTreated bounds a single case; it also keeps the value inside the
// 32-bit column it is stored in.
const MaxNervesTreated = 1000

// ValidationError maps a field name to what is wrong with it.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid case: " + strings.Join(parts, "; ")
}

// FromRequest validates req and converts it to a case. All field errors are
// collected; the returned error is a ValidationError when any field fails.
func FromRequest(req dto.CaseRequest, now time.Time) (models.Case, error) {
	errs := ValidationError{}
	c := models.Case{
		CaseNumber:         strings.TrimSpace(req.CaseNumber),
		NervesTreated:      req.NervesTreated,
		CaseType:           strings.TrimSpace(req.CaseType),
		ClinicalSystem:     strings.TrimSpace(req.ClinicalSystem),
		Site:               strings.TrimSpace(req.Site),
		Surgeon:            strings.TrimSpace(req.Surgeon),
		UserStatus:         strings.ToUpper(strings.TrimSpace(req.UserStatus)),
		Specialty:          strings.TrimSpace(req.Specialty),
		Extremity:          strings.ToUpper(strings.TrimSpace(req.Extremity)),
		SurgeryDescription: strings.TrimSpace(req.SurgeryDescription),
		NeuromaCase:        req.NeuromaCase,
		CaseStudy:          req.CaseStudy,
		Region:             strings.TrimSpace(req.Region),
	}

	if c.CaseNumber == "" {
		errs["caseNumber"] = "case number is required"
	}
	if c.NervesTreated < 0 {
		errs["nervesTreated"] = "nerves treated cannot be negative"
	} else if c.NervesTreated > MaxNervesTreated {
		errs["nervesTreated"] = fmt.Sprintf("nerves treated cannot exceed %d", MaxNervesTreated)
	}
	if strings.TrimSpace(req.OpDate) == "" {
		errs["opDate"] = "operation date is required"
	} else if opDate, err := time.Parse(DateLayout, strings.TrimSpace(req.OpDate)); err != nil {
		errs["opDate"] = "operation date must be YYYY-MM-DD"
	} else if opDate.After(DayOf(now)) {
		errs["opDate"] = "operation date cannot be in the future"
	} else {
		c.OpDate = opDate
	}
	switch c.CaseType {
	case models.CaseTypePrimary, models.CaseTypeRevision:
	default:
		errs["caseType"] = "case type must be Primary or Revision"
	}
	switch c.UserStatus {
	case models.StatusEstimated, models.StatusIn, models.StatusValidated:
	default:
		errs["userStatus"] = "user status must be EST, IN or VAL"
	}
	switch c.Extremity {
	case models.ExtremityUpper, models.ExtremityLower:
	default:
		errs["extremity"] = "extremity must be UE or LE"
	}
	if c.Specialty == "" {
		errs["specialty"] = "specialty is required"
	}
	if c.Surgeon == "" {
		errs["surgeon"] = "surgeon is required"
	}
	if c.Region == "" {
		errs["region"] = "region is required"
	}

	if len(errs) > 0 {
		return models.Case{}, errs
	}
	return c, nil
}
