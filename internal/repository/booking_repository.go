package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/usaha/rental-api/internal/model"
)

// BookingRepo provides persistence for facility bookings and runs the
// date validation rules that must see the current booking set.  The
// overlap scan and the insert/update happen inside one caller-owned
// transaction that first locks the facility row, so two concurrent
// requests for the same facility serialize and cannot both observe
// "no conflict".
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// LockFacilityTx takes a row lock on the facility and returns its
// owner and daily price.  Every booking write starts here: the lock
// is what serializes concurrent overlap checks for one facility.
// Returns ErrNotFound when the facility does not exist.
func (r *BookingRepo) LockFacilityTx(ctx context.Context, tx *sql.Tx, facilityID uint64) (ownerID uint64, pricePerDay int64, err error) {
    const q = `SELECT owner_id, price_per_day FROM facilities WHERE id = ? FOR UPDATE`
    err = tx.QueryRowContext(ctx, q, facilityID).Scan(&ownerID, &pricePerDay)
    if err == sql.ErrNoRows {
        return 0, 0, ErrNotFound
    }
    return ownerID, pricePerDay, err
}

// FacilityOwner returns the owning user of a facility without taking a
// lock, for read-path authorization.
func (r *BookingRepo) FacilityOwner(ctx context.Context, facilityID uint64) (uint64, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM facilities WHERE id = ?`, facilityID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return ownerID, err
}

// FacilityName returns a facility's display name, used when building
// event payloads.
func (r *BookingRepo) FacilityName(ctx context.Context, facilityID uint64) (string, error) {
    var name string
    err := r.db.QueryRowContext(ctx, `SELECT name FROM facilities WHERE id = ?`, facilityID).Scan(&name)
    if err == sql.ErrNoRows {
        return "", ErrNotFound
    }
    return name, err
}

// HasOverlapTx reports whether any booking for the facility intersects
// the inclusive [start, end] range.  excludeID is the candidate's own
// id on the update path (zero on create) so a re-save of an unchanged
// booking does not conflict with itself.
func (r *BookingRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, facilityID uint64, start, end time.Time, excludeID uint64) (bool, error) {
    const q = `SELECT EXISTS(
                 SELECT 1 FROM facility_bookings
                 WHERE facility_id = ? AND end_date >= ? AND start_date <= ? AND id <> ?)`
    var exists bool
    err := tx.QueryRowContext(ctx, q, facilityID, start, end, excludeID).Scan(&exists)
    return exists, err
}

// CreateTx inserts a booking within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  The caller must have validated the range and run
// the overlap scan first, and must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO facility_bookings (facility_id, booker_id, start_date, end_date, notes) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.FacilityID, b.BookerID, b.StartDate, b.EndDate, b.Notes)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back the row to populate defaults and timestamps.
    const sel = `SELECT is_approved, is_paid, created_at, updated_at FROM facility_bookings WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.IsApproved, &b.IsPaid, &b.CreatedAt, &b.UpdatedAt)
}

// UpdateDatesTx rewrites the booking's date range and notes inside the
// caller's transaction.  The caller re-runs range validation and the
// overlap scan (excluding this id) before calling.
func (r *BookingRepo) UpdateDatesTx(ctx context.Context, tx *sql.Tx, id uint64, start, end time.Time, notes *string) error {
    const q = `UPDATE facility_bookings SET start_date = ?, end_date = ?, notes = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, start, end, notes, id)
    return err
}

// GetByID loads a booking together with the owning facility's user id,
// which handlers feed to the policy check as the counterparty.
// Returns ErrNotFound when no such booking exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, uint64, error) {
    const q = `SELECT b.id, b.facility_id, b.booker_id, b.start_date, b.end_date,
                      b.notes, b.is_approved, b.is_paid, b.created_at, b.updated_at,
                      f.owner_id
               FROM facility_bookings b
               JOIN facilities f ON f.id = b.facility_id
               WHERE b.id = ?`
    var b model.Booking
    var notes sql.NullString
    var facilityOwner uint64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.FacilityID, &b.BookerID, &b.StartDate, &b.EndDate,
        &notes, &b.IsApproved, &b.IsPaid, &b.CreatedAt, &b.UpdatedAt,
        &facilityOwner,
    )
    if err == sql.ErrNoRows {
        return nil, 0, ErrNotFound
    }
    if err != nil {
        return nil, 0, err
    }
    if notes.Valid {
        n := notes.String
        b.Notes = &n
    }
    return &b, facilityOwner, nil
}

// GetForUpdateTx is GetByID inside the caller's transaction with the
// booking row locked, used by the reschedule path.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, uint64, error) {
    const q = `SELECT b.id, b.facility_id, b.booker_id, b.start_date, b.end_date,
                      b.notes, b.is_approved, b.is_paid, b.created_at, b.updated_at,
                      f.owner_id
               FROM facility_bookings b
               JOIN facilities f ON f.id = b.facility_id
               WHERE b.id = ? FOR UPDATE`
    var b model.Booking
    var notes sql.NullString
    var facilityOwner uint64
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &b.ID, &b.FacilityID, &b.BookerID, &b.StartDate, &b.EndDate,
        &notes, &b.IsApproved, &b.IsPaid, &b.CreatedAt, &b.UpdatedAt,
        &facilityOwner,
    )
    if err == sql.ErrNoRows {
        return nil, 0, ErrNotFound
    }
    if err != nil {
        return nil, 0, err
    }
    if notes.Valid {
        n := notes.String
        b.Notes = &n
    }
    return &b, facilityOwner, nil
}

// SetApproved flips the owner-approval flag.
func (r *BookingRepo) SetApproved(ctx context.Context, id uint64, approved bool) error {
    const q = `UPDATE facility_bookings SET is_approved = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, approved, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        // MySQL reports 0 for a no-change update too; verify existence.
        var exists bool
        if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM facility_bookings WHERE id = ?)`, id).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return ErrNotFound
        }
    }
    return nil
}

// DeleteCascadeTx removes a booking together with its review and
// payment rows inside the caller's transaction.  The caller recomputes
// the facility rating afterwards, since the cascade may have removed a
// review.  Returns ErrNotFound when the booking row does not exist.
func (r *BookingRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE booking_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM facility_reviews WHERE booking_id = ?`, id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM facility_bookings WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// BookingDetail decorates a booking with facility attributes and the
// booker's review rating for display in list views.  Duration is the
// derived inclusive day count; it is never stored.
type BookingDetail struct {
    ID           uint64  `json:"id"`
    FacilityID   uint64  `json:"facility_id"`
    BookerID     uint64  `json:"booker_id"`
    StartDate    string  `json:"start_date"`
    EndDate      string  `json:"end_date"`
    Duration     int     `json:"duration"`
    Notes        *string `json:"notes,omitempty"`
    IsApproved   bool    `json:"is_approved"`
    IsPaid       bool    `json:"is_paid"`
    UserRating   *int    `json:"user_rating,omitempty"`
    FacilityName string  `json:"facility_name"`
    City         string  `json:"city"`
    PricePerDay  int64   `json:"price_per_day"`
    Image        *string `json:"image,omitempty"`
}

const bookingDetailQuery = `SELECT b.id, b.facility_id, b.booker_id, b.start_date, b.end_date,
           b.notes, b.is_approved, b.is_paid,
           rv.rating, f.name, f.city, f.price_per_day, fi.url
    FROM facility_bookings b
    JOIN facilities f ON f.id = b.facility_id
    LEFT JOIN facility_reviews rv ON rv.booking_id = b.id
    LEFT JOIN facility_images fi ON fi.facility_id = f.id AND fi.is_primary = 1`

// ListByBooker returns the decorated bookings placed by one user,
// newest first.  An empty slice is returned when there are none.
func (r *BookingRepo) ListByBooker(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    q := bookingDetailQuery + ` WHERE b.booker_id = ? ORDER BY b.created_at DESC`
    return r.listDetails(ctx, q, userID)
}

// ListByFacility returns the decorated bookings for one facility,
// ordered by start date.  Callers enforce that only the facility
// owner reaches this listing.
func (r *BookingRepo) ListByFacility(ctx context.Context, facilityID uint64) ([]BookingDetail, error) {
    q := bookingDetailQuery + ` WHERE b.facility_id = ? ORDER BY b.start_date`
    return r.listDetails(ctx, q, facilityID)
}

func (r *BookingRepo) listDetails(ctx context.Context, query string, arg uint64) ([]BookingDetail, error) {
    rows, err := r.db.QueryContext(ctx, query, arg)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]BookingDetail, 0)
    for rows.Next() {
        var d BookingDetail
        var start, end time.Time
        var notes, image sql.NullString
        var rating sql.NullInt64
        if err := rows.Scan(
            &d.ID, &d.FacilityID, &d.BookerID, &start, &end,
            &notes, &d.IsApproved, &d.IsPaid,
            &rating, &d.FacilityName, &d.City, &d.PricePerDay, &image,
        ); err != nil {
            return nil, err
        }
        d.StartDate = start.Format(model.DateLayout)
        d.EndDate = end.Format(model.DateLayout)
        d.Duration = model.DurationDays(start, end)
        if notes.Valid {
            n := notes.String
            d.Notes = &n
        }
        if rating.Valid {
            v := int(rating.Int64)
            d.UserRating = &v
        }
        if image.Valid {
            u := image.String
            d.Image = &u
        }
        details = append(details, d)
    }
    return details, rows.Err()
}
