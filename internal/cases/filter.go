package cases

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hongminglow/casetrack-be/internal/models"
)

// Filter selects cases. Every non-zero field must match for a case to be
// kept. From and To bound the operation date inclusively by calendar day.
type Filter struct {
	Type       string
	Specialty  string
	Region     string
	Extremity  string
	UserStatus string
	Surgeon    string
	Search     string
	From       time.Time
	To         time.Time
}

// IsZero reports whether no field of the filter is set.
func (f Filter) IsZero() bool {
	return f.Type == "" && f.Specialty == "" && f.Region == "" && f.Extremity == "" &&
		f.UserStatus == "" && f.Surgeon == "" && f.Search == "" && f.From.IsZero() && f.To.IsZero()
}

// FilterFromQuery reads a filter from URL query parameters:
// type, specialty, region, extremity, status, surgeon, q, from, to.
func FilterFromQuery(q url.Values) (Filter, error) {
	f := Filter{
		Type:       strings.TrimSpace(q.Get("type")),
		Specialty:  strings.TrimSpace(q.Get("specialty")),
		Region:     strings.TrimSpace(q.Get("region")),
		Extremity:  strings.TrimSpace(q.Get("extremity")),
		UserStatus: strings.TrimSpace(q.Get("status")),
		Surgeon:    strings.TrimSpace(q.Get("surgeon")),
		Search:     strings.TrimSpace(q.Get("q")),
	}
	var err error
	if f.From, err = parseDate(q.Get("from")); err != nil {
		return Filter{}, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseDate(q.Get("to")); err != nil {
		return Filter{}, fmt.Errorf("to: %w", err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return Filter{}, fmt.Errorf("from must not be after to")
	}
	return f, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return t, nil
}

// Match reports whether c satisfies every set field of f.
func (f Filter) Match(c models.Case) bool {
	if f.Type != "" && !strings.EqualFold(c.CaseType, f.Type) {
		return false
	}
	if f.Specialty != "" && !strings.EqualFold(c.Specialty, f.Specialty) {
		return false
	}
	if f.Region != "" && !strings.EqualFold(c.Region, f.Region) {
		return false
	}
	if f.Extremity != "" && !strings.EqualFold(c.Extremity, f.Extremity) {
		return false
	}
	if f.UserStatus != "" && !strings.EqualFold(c.UserStatus, f.UserStatus) {
		return false
	}
	if f.Surgeon != "" && !strings.EqualFold(c.Surgeon, f.Surgeon) {
		return false
	}
	if !f.From.IsZero() && DayOf(c.OpDate).Before(DayOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && DayOf(c.OpDate).After(DayOf(f.To)) {
		return false
	}
	if f.Search != "" && !matchesSearch(c, strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func matchesSearch(c models.Case, needle string) bool {
	for _, hay := range []string{c.CaseNumber, c.Surgeon, c.Site, c.ClinicalSystem, c.Specialty, c.Region, c.SurgeryDescription} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Apply returns the cases matching f. A zero filter returns list itself.
func Apply(list []models.Case, f Filter) []models.Case {
	if f.IsZero() {
		return list
	}
	out := make([]models.Case, 0, len(list))
	for _, c := range list {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Values encodes f as query parameters understood by FilterFromQuery.
func (f Filter) Values() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("type", f.Type)
	set("specialty", f.Specialty)
	set("region", f.Region)
	set("extremity", f.Extremity)
	set("status", f.UserStatus)
	set("surgeon", f.Surgeon)
	set("q", f.Search)
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(DateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(DateLayout))
	}
	return q
}
