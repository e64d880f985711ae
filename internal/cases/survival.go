// Package cases holds the read-side logic for surgical cases: survival
// derivation, validation, filtering, sorting and dashboard aggregation.
package cases

import (
	"time"

	"github.com/hongminglow/casetrack-be/internal/models"
)

// DateLayout is the wire layout for operation dates and date filters.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Survival returns whole days and weeks elapsed from opDate to now. Both are
// clamped at zero for operation dates in the future.
func Survival(opDate, now time.Time) (days, weeks int) {
	elapsed := now.Sub(opDate)
	if elapsed <= 0 {
		return 0, 0
	}
	days = int(elapsed / day)
	return days, days / 7
}

// WithSurvival returns c with its derived survival fields filled in.
func WithSurvival(c models.Case, now time.Time) models.Case {
	c.SurvivalDays, c.SurvivalWeeks = Survival(c.OpDate, now)
	return c
}

// Derive fills in survival fields on every case in place.
func Derive(list []models.Case, now time.Time) {
	for i := range list {
		list[i].SurvivalDays, list[i].SurvivalWeeks = Survival(list[i].OpDate, now)
	}
}

// DayOf truncates t to midnight UTC of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
