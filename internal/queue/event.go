// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentCompletedEvent is published when a booking payment is recorded.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type PaymentCompletedEvent struct {
    PaymentID    uint64 `json:"payment_id"`
    BookingID    uint64 `json:"booking_id"`
    UserID       uint64 `json:"user_id"`
    FacilityID   uint64 `json:"facility_id"`
    FacilityName string `json:"facility_name"`
    StartDate    string `json:"start_date"`
    EndDate      string `json:"end_date"`
    Duration     int    `json:"duration"`
    TotalAmount  int64  `json:"total_amount"`
    Method       string `json:"method"`
    PaidAt       string `json:"paid_at"`
}
