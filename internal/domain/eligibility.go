package domain

import (
	"fmt"
	"time"
)

// RecoveryDays is the minimum number of days between whole-blood
// donations before a donor becomes eligible again.
const RecoveryDays = 56

const millisPerDay = 24 * 60 * 60 * 1000

// Eligible reports whether the donor may donate at the given time. A
// donor with no recorded donation is always eligible, and the boundary
// is inclusive: exactly RecoveryDays elapsed means eligible.
func (d Donor) Eligible(now time.Time) bool {
	if d.LastDonation == nil {
		return true
	}
	return now.UnixMilli()-int64(*d.LastDonation) >= RecoveryDays*millisPerDay
}

// RecoveryRemaining returns the whole days left until the donor is
// eligible again, rounding partial days up. ok is false when the donor
// has never donated and no countdown applies.
func (d Donor) RecoveryRemaining(now time.Time) (days int, ok bool) {
	if d.LastDonation == nil {
		return 0, false
	}
	deficit := int64(RecoveryDays*millisPerDay) - (now.UnixMilli() - int64(*d.LastDonation))
	if deficit <= 0 {
		return 0, true
	}
	return int((deficit + millisPerDay - 1) / millisPerDay), true
}

// EligibilityLabel renders the donor status for listings and prompts.
func (d Donor) EligibilityLabel(now time.Time) string {
	days, ok := d.RecoveryRemaining(now)
	if !ok || days == 0 {
		return "eligible"
	}
	if days == 1 {
		return "eligible in 1 day"
	}
	return fmt.Sprintf("eligible in %d days", days)
}
