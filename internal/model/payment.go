package model

import "time"

// Payment methods accepted by the API.
const (
    MethodCredit = "credit"
    MethodDebit  = "debit"
)

// ValidMethod reports whether s is a known payment method.
func ValidMethod(s string) bool {
    return s == MethodCredit || s == MethodDebit
}

// Payment is the settlement record for a booking.  Exactly one payment
// may exist per booking.  The total is always derived on the server
// from the booking duration and the facility's daily price; it is
// never accepted from client input.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – paid booking (unique).
//  UserID      – paying user.
//  TotalAmount – duration * price_per_day at payment time (derived).
//  Method      – one of the Method* enumeration values.
//  CreatedAt   – creation timestamp.
type Payment struct {
    ID          uint64    // payments.id
    BookingID   uint64    // payments.booking_id
    UserID      uint64    // payments.user_id
    TotalAmount int64     // payments.total_amount (derived)
    Method      string    // payments.method
    CreatedAt   time.Time // payments.created_at
}

// PaymentTotal computes the amount owed for a stay of the given
// duration at the given daily price.
func PaymentTotal(durationDays int, pricePerDay int64) int64 {
    return int64(durationDays) * pricePerDay
}
