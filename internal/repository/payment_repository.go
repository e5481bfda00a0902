package repository

import (
    "context"
    "database/sql"

    "github.com/usaha/rental-api/internal/model"
)

// PaymentRepo provides persistence for payments.  A payment's total is
// never taken from the client: the handler locks the booking through
// BookingChargeTx, derives the amount from duration and daily price,
// inserts the row and flips the booking's paid flag, all in one
// transaction.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

// BookingCharge carries everything the payment calculator needs about
// the booking being paid for.
type BookingCharge struct {
    BookerID    uint64
    Duration    int
    PricePerDay int64
    IsPaid      bool
}

// BookingChargeTx locks the booking row and returns its booker, the
// derived duration and the facility's daily price.  The lock keeps a
// concurrent payment for the same booking waiting until this
// transaction decides.  Returns ErrNotFound when the booking does not
// exist.
func (r *PaymentRepo) BookingChargeTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*BookingCharge, error) {
    const q = `SELECT b.booker_id, b.start_date, b.end_date, b.is_paid, f.price_per_day
               FROM facility_bookings b
               JOIN facilities f ON f.id = b.facility_id
               WHERE b.id = ? FOR UPDATE`
    var c BookingCharge
    var start, end sql.NullTime
    err := tx.QueryRowContext(ctx, q, bookingID).Scan(&c.BookerID, &start, &end, &c.IsPaid, &c.PricePerDay)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    c.Duration = model.DurationDays(start.Time, end.Time)
    return &c, nil
}

// ExistsForBookingTx reports whether the booking already has a
// payment.  Creation rejects the second payment rather than reusing
// the first.
func (r *PaymentRepo) ExistsForBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
    var exists bool
    err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = ?)`, bookingID).Scan(&exists)
    return exists, err
}

// CreateTx inserts the payment row with the server-computed total and
// populates the generated ID and creation timestamp.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    const q = `INSERT INTO payments (booking_id, user_id, total_amount, method) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, p.BookingID, p.UserID, p.TotalAmount, p.Method)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT created_at FROM payments WHERE id = ?`, p.ID).Scan(&p.CreatedAt)
}

// MarkBookingPaidTx sets the booking's paid flag.  Re-setting an
// already true flag is harmless.
func (r *PaymentRepo) MarkBookingPaidTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    _, err := tx.ExecContext(ctx, `UPDATE facility_bookings SET is_paid = 1 WHERE id = ?`, bookingID)
    return err
}

// GetByIDForUser loads a payment scoped to the requesting user.  A
// payment belonging to someone else is reported as ErrNotFound, not
// ErrForbidden: payment listings are private, so absence from the
// caller's scope looks identical to absence.
func (r *PaymentRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Payment, error) {
    const q = `SELECT id, booking_id, user_id, total_amount, method, created_at
               FROM payments WHERE id = ? AND user_id = ?`
    var p model.Payment
    err := r.db.QueryRowContext(ctx, q, id, userID).Scan(
        &p.ID, &p.BookingID, &p.UserID, &p.TotalAmount, &p.Method, &p.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// ListByUser returns the requesting user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
    const q = `SELECT id, booking_id, user_id, total_amount, method, created_at
               FROM payments WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    payments := make([]model.Payment, 0)
    for rows.Next() {
        var p model.Payment
        if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.TotalAmount, &p.Method, &p.CreatedAt); err != nil {
            return nil, err
        }
        payments = append(payments, p)
    }
    return payments, rows.Err()
}
