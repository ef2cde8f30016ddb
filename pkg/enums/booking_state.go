package enums

import (
	"fmt"
	"strings"
)

// BookingState is the bucket a caller filters booking lists by. It mixes
// temporal buckets (CURRENT/PAST/FUTURE relative to the query instant) with
// status buckets (WAITING/REJECTED).
type BookingState string

const (
	BookingStateAll      BookingState = "ALL"
	BookingStateCurrent  BookingState = "CURRENT"
	BookingStatePast     BookingState = "PAST"
	BookingStateFuture   BookingState = "FUTURE"
	BookingStateWaiting  BookingState = "WAITING"
	BookingStateRejected BookingState = "REJECTED"
)

var validBookingStates = []BookingState{
	BookingStateAll,
	BookingStateCurrent,
	BookingStatePast,
	BookingStateFuture,
	BookingStateWaiting,
	BookingStateRejected,
}

// String implements fmt.Stringer.
func (s BookingState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingState.
func (s BookingState) IsValid() bool {
	for _, candidate := range validBookingStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBookingState validates a raw state token once at the boundary.
// Unrecognized tokens are an error, never an implicit ALL or an empty list.
func ParseBookingState(value string) (BookingState, error) {
	normalized := BookingState(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validBookingStates {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown booking state %q", value)
}
