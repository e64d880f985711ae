package cases

import (
	"net/url"
	"sort"
	"strings"

	"github.com/hongminglow/casetrack-be/internal/models"
)

// Sort fields accepted by Sort and the list endpoint.
const (
	SortCaseNumber    = "caseNumber"
	SortOpDate        = "opDate"
	SortNervesTreated = "nervesTreated"
	SortSurgeon       = "surgeon"
	SortSpecialty     = "specialty"
	SortRegion        = "region"
	SortSurvivalDays  = "survivalDays"
)

// Order is a sort field plus direction.
type Order struct {
	Field string
	Desc  bool
}

// DefaultOrder lists the most recent operations first.
var DefaultOrder = Order{Field: SortOpDate, Desc: true}

// OrderFromQuery reads sort and order query parameters. Unknown fields fall
// back to the operation date.
func OrderFromQuery(q url.Values) Order {
	field := strings.TrimSpace(q.Get("sort"))
	if field == "" {
		return DefaultOrder
	}
	if !knownField(field) {
		field = SortOpDate
	}
	return Order{Field: field, Desc: strings.EqualFold(q.Get("order"), "desc")}
}

func knownField(field string) bool {
	switch field {
	case SortCaseNumber, SortOpDate, SortNervesTreated, SortSurgeon, SortSpecialty, SortRegion, SortSurvivalDays:
		return true
	}
	return false
}

// Sort orders list in place. Ties are broken by case number ascending so the
// result is deterministic.
func Sort(list []models.Case, o Order) {
	less := lessFunc(o.Field)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if less(a, b) {
			return !o.Desc
		}
		if less(b, a) {
			return o.Desc
		}
		return a.CaseNumber < b.CaseNumber
	})
}

func lessFunc(field string) func(a, b models.Case) bool {
	switch field {
	case SortCaseNumber:
		return func(a, b models.Case) bool { return a.CaseNumber < b.CaseNumber }
	case SortNervesTreated:
		return func(a, b models.Case) bool { return a.NervesTreated < b.NervesTreated }
	case SortSurgeon:
		return func(a, b models.Case) bool { return strings.ToLower(a.Surgeon) < strings.ToLower(b.Surgeon) }
	case SortSpecialty:
		return func(a, b models.Case) bool { return strings.ToLower(a.Specialty) < strings.ToLower(b.Specialty) }
	case SortRegion:
		return func(a, b models.Case) bool { return strings.ToLower(a.Region) < strings.ToLower(b.Region) }
	case SortSurvivalDays:
		return func(a, b models.Case) bool { return a.SurvivalDays < b.SurvivalDays }
	default:
		return func(a, b models.Case) bool { return a.OpDate.Before(b.OpDate) }
	}
}
