package gate

import (
	"time"

	dErrors "simkah/pkg/domain-errors"
)

// ValidateLeadTime checks that the marriage date falls strictly after the
// calendar day following the reference time: submitting on Jan 10 requires a
// marriage date of Jan 12 or later. Only calendar days matter; clock time is
// discarded.
//
// Errors: CodeLeadTimeViolation carrying the earliest acceptable date.
func ValidateLeadTime(marriageDate, reference time.Time) error {
	earliest := truncateToDay(reference).AddDate(0, 0, 2)
	if truncateToDay(marriageDate).Before(earliest) {
		return dErrors.New(dErrors.CodeLeadTimeViolation,
			"marriage date must be at least one full day after submission").
			WithDetail("marriage_date", truncateToDay(marriageDate).Format(time.DateOnly)).
			WithDetail("earliest_allowed", earliest.Format(time.DateOnly))
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
