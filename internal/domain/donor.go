package domain

import (
	"fmt"
	"strings"
	"time"
)

// BloodType enumerates the eight ABO/Rh blood groups.
type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// BloodTypes lists every group in canonical display order. Sorting and
// the compatibility table both follow this order.
var BloodTypes = []BloodType{
	BloodAPos, BloodANeg,
	BloodBPos, BloodBNeg,
	BloodABPos, BloodABNeg,
	BloodOPos, BloodONeg,
}

// ParseBloodType normalizes user input into a BloodType. It accepts
// lower case and the digit zero in place of the letter O.
func ParseBloodType(s string) (BloodType, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(cleaned, "0") {
		cleaned = "O" + cleaned[1:]
	}
	bt := BloodType(cleaned)
	if !bt.Valid() {
		return "", fmt.Errorf("%w: unknown blood type %q", ErrValidation, s)
	}
	return bt, nil
}

// Valid reports whether b is one of the eight known groups.
func (b BloodType) Valid() bool {
	return b.rank() < len(BloodTypes)
}

func (b BloodType) rank() int {
	for i, bt := range BloodTypes {
		if bt == b {
			return i
		}
	}
	return len(BloodTypes)
}

// Millis is a timestamp in milliseconds since the Unix epoch. Donation
// times are carried in this form by every backend and wire format.
type Millis int64

// MillisFromTime converts a time.Time to epoch milliseconds.
func MillisFromTime(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time converts the timestamp back to a time.Time in UTC.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// Donor is a person registered in the directory.
type Donor struct {
	ID           string
	Name         string
	Phone        string
	BloodType    BloodType
	LastDonation *Millis // nil when the donor has never donated
	GroupIDs     []string
	Notes        string
	Location     string
}

// Clone returns a deep copy safe to keep as a rollback snapshot.
func (d Donor) Clone() Donor {
	out := d
	if d.LastDonation != nil {
		ld := *d.LastDonation
		out.LastDonation = &ld
	}
	if d.GroupIDs != nil {
		out.GroupIDs = append([]string(nil), d.GroupIDs...)
	}
	return out
}

// InGroup reports whether the donor is a member of the given group.
func (d Donor) InGroup(groupID string) bool {
	for _, id := range d.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// WithoutGroup returns a copy of the donor with the group membership
// removed. The receiver is left untouched.
func (d Donor) WithoutGroup(groupID string) Donor {
	out := d.Clone()
	kept := out.GroupIDs[:0]
	for _, id := range out.GroupIDs {
		if id != groupID {
			kept = append(kept, id)
		}
	}
	out.GroupIDs = kept
	return out
}
