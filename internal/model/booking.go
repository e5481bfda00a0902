package model

import "time"

// DateLayout is the wire format for booking dates.  Bookings work in
// whole calendar days; times of day never participate in any rule.
const DateLayout = "2006-01-02"

// Booking records a user's reservation of a facility for an inclusive
// date range.  Both bounds are part of the stay: a booking with
// start_date == end_date occupies exactly one day.  This struct
// corresponds to a row in the `facility_bookings` table.
//
// Fields:
//  ID         – primary key identifier.
//  FacilityID – facility being reserved.
//  BookerID   – user who placed the booking.
//  StartDate  – first day of the stay (UTC midnight).
//  EndDate    – last day of the stay, inclusive (UTC midnight).
//  Notes      – optional free-text note for the owner.
//  IsApproved – set by the facility owner through the approval endpoint.
//  IsPaid     – flipped by the payment calculator once a payment lands.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
    ID         uint64    // facility_bookings.id
    FacilityID uint64    // facility_bookings.facility_id
    BookerID   uint64    // facility_bookings.booker_id
    StartDate  time.Time // facility_bookings.start_date
    EndDate    time.Time // facility_bookings.end_date
    Notes      *string   // facility_bookings.notes (nullable)
    IsApproved bool      // facility_bookings.is_approved
    IsPaid     bool      // facility_bookings.is_paid
    CreatedAt  time.Time // facility_bookings.created_at
    UpdatedAt  time.Time // facility_bookings.updated_at
}

// Duration returns the number of days the booking occupies, counting
// both bounds.  start == end yields 1.
func (b *Booking) Duration() int {
    return DurationDays(b.StartDate, b.EndDate)
}

// DurationDays computes the inclusive day count between two dates.
// Inputs must be normalized to midnight; ParseDate guarantees that.
func DurationDays(start, end time.Time) int {
    return int(end.Sub(start)/(24*time.Hour)) + 1
}

// Overlaps reports whether two inclusive date ranges intersect.  The
// standard interval test: neither range starts after the other ends.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
    return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) into a UTC
// midnight time.Time.
func ParseDate(s string) (time.Time, error) {
    return time.ParseInLocation(DateLayout, s, time.UTC)
}

// ValidateRange checks the date-range sanity rule: both dates present
// and end not before start.  Overlap against other bookings is the
// repository's job because it needs the current booking set; this
// check is purely local.
func ValidateRange(start, end time.Time) ValidationErrors {
    ve := ValidationErrors{}
    if start.IsZero() {
        ve["start_date"] = "start date must be provided"
    }
    if end.IsZero() {
        ve["end_date"] = "end date must be provided"
    }
    if !start.IsZero() && !end.IsZero() && end.Before(start) {
        ve["end_date"] = "end date cannot be before start date"
    }
    if len(ve) == 0 {
        return nil
    }
    return ve
}
