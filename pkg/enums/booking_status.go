package enums

import "fmt"

// BookingStatus tracks the approval workflow of a booking.
type BookingStatus string

const (
	BookingStatusWaiting  BookingStatus = "waiting"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusRejected BookingStatus = "rejected"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusWaiting,
	BookingStatusApproved,
	BookingStatusRejected,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
// Approved and rejected bookings can never be re-decided.
func (b BookingStatus) IsTerminal() bool {
	return b == BookingStatusApproved || b == BookingStatusRejected
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
