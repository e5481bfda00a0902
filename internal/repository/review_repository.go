package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/usaha/rental-api/internal/model"
)

// ReviewRepo provides persistence for facility reviews and owns the
// rating aggregation rule: every review write is followed, in the same
// transaction, by RecalcFacilityRatingTx so the facility's stored
// rating is always the mean of the rows that actually exist.
type ReviewRepo struct {
    db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ReviewRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a review inside the caller's transaction and
// populates the generated ID and timestamps.  The booking_id column is
// unique; a duplicate insert surfaces as ErrConflict so each booking
// is reviewed at most once even under concurrent submissions.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rev *model.Review) error {
    const q = `INSERT INTO facility_reviews (booking_id, facility_id, user_id, rating, content) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, rev.BookingID, rev.FacilityID, rev.UserID, rev.Rating, rev.Content)
    if err != nil {
        // 1062 is MySQL's duplicate-key error.
        if strings.Contains(err.Error(), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rev.ID = uint64(id)
    const sel = `SELECT created_at, updated_at FROM facility_reviews WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, rev.ID).Scan(&rev.CreatedAt, &rev.UpdatedAt)
}

// UpdateTx rewrites the rating and content of an existing review
// inside the caller's transaction.
func (r *ReviewRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, rating int, content *string) error {
    const q = `UPDATE facility_reviews SET rating = ?, content = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, rating, content, id)
    return err
}

// DeleteTx removes a review inside the caller's transaction.
func (r *ReviewRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM facility_reviews WHERE id = ?`, id)
    return err
}

// RecalcFacilityRatingTx re-derives the facility's rating from the
// full current review set: the arithmetic mean rounded to one decimal
// place, or 0 when no reviews remain.  A single UPDATE keeps the read
// and write in one statement; when the facility was deleted
// concurrently the statement matches no row and the recomputation is
// a no-op, which is the intended behavior.
func (r *ReviewRepo) RecalcFacilityRatingTx(ctx context.Context, tx *sql.Tx, facilityID uint64) error {
    const q = `UPDATE facilities
               SET rating = (SELECT COALESCE(ROUND(AVG(rating), 1), 0)
                             FROM facility_reviews WHERE facility_id = ?)
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, facilityID, facilityID)
    return err
}

// GetByID loads a single review.  Returns ErrNotFound when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
    const q = `SELECT id, booking_id, facility_id, user_id, rating, content, created_at, updated_at
               FROM facility_reviews WHERE id = ?`
    var rev model.Review
    var content sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &rev.ID, &rev.BookingID, &rev.FacilityID, &rev.UserID,
        &rev.Rating, &content, &rev.CreatedAt, &rev.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if content.Valid {
        c := content.String
        rev.Content = &c
    }
    return &rev, nil
}

// ReviewDetail decorates a review with the author's display name and
// picture for the public facility review listing.
type ReviewDetail struct {
    ID         uint64  `json:"id"`
    BookingID  uint64  `json:"booking_id"`
    FacilityID uint64  `json:"facility_id"`
    UserID     uint64  `json:"user_id"`
    UserName   *string `json:"user_name,omitempty"`
    UserPic    *string `json:"user_pfp,omitempty"`
    Rating     int     `json:"rating"`
    Content    *string `json:"content,omitempty"`
    CreatedAt  string  `json:"created_at"`
}

// ListByFacility returns the decorated reviews for one facility,
// newest first.
func (r *ReviewRepo) ListByFacility(ctx context.Context, facilityID uint64) ([]ReviewDetail, error) {
    const q = `SELECT rv.id, rv.booking_id, rv.facility_id, rv.user_id,
                      CONCAT(p.first_name, ' ', p.last_name), p.profile_pic,
                      rv.rating, rv.content, rv.created_at
               FROM facility_reviews rv
               LEFT JOIN profiles p ON p.user_id = rv.user_id
               WHERE rv.facility_id = ?
               ORDER BY rv.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, facilityID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReviewDetail, 0)
    for rows.Next() {
        var d ReviewDetail
        var name, pic, content sql.NullString
        var createdAt sql.NullTime
        if err := rows.Scan(&d.ID, &d.BookingID, &d.FacilityID, &d.UserID,
            &name, &pic, &d.Rating, &content, &createdAt); err != nil {
            return nil, err
        }
        if name.Valid {
            n := name.String
            d.UserName = &n
        }
        if pic.Valid {
            p := pic.String
            d.UserPic = &p
        }
        if content.Valid {
            c := content.String
            d.Content = &c
        }
        if createdAt.Valid {
            d.CreatedAt = createdAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
        }
        details = append(details, d)
    }
    return details, rows.Err()
}
