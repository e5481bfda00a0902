package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/usaha/rental-api/internal/model"
)

func TestReviewCreateTxDuplicateBooking(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewReviewRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO facility_reviews (booking_id, facility_id, user_id, rating, content) VALUES (?, ?, ?, ?, ?)`)).
        WithArgs(uint64(1), uint64(2), uint64(3), 4, nil).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1' for key 'facility_reviews.booking_id'"))

    tx, _ := db.Begin()
    rev := model.Review{BookingID: 1, FacilityID: 2, UserID: 3, Rating: 4}
    if err := repo.CreateTx(context.Background(), tx, &rev); err != ErrConflict {
        t.Errorf("err = %v, want ErrConflict", err)
    }
}

func TestReviewCreateTx(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewReviewRepo(db)

    now := time.Now().UTC()
    content := "great space"
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO facility_reviews (booking_id, facility_id, user_id, rating, content) VALUES (?, ?, ?, ?, ?)`)).
        WithArgs(uint64(1), uint64(2), uint64(3), 5, content).
        WillReturnResult(sqlmock.NewResult(10, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at, updated_at FROM facility_reviews WHERE id = ?`)).
        WithArgs(uint64(10)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

    tx, _ := db.Begin()
    rev := model.Review{BookingID: 1, FacilityID: 2, UserID: 3, Rating: 5, Content: &content}
    if err := repo.CreateTx(context.Background(), tx, &rev); err != nil {
        t.Fatalf("CreateTx: %v", err)
    }
    if rev.ID != 10 {
        t.Errorf("ID = %d, want 10", rev.ID)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestRecalcFacilityRatingTx(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewReviewRepo(db)

    // One statement re-derives the mean from the full review set, so a
    // concurrently deleted facility just matches no row.
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE facilities
               SET rating = (SELECT COALESCE(ROUND(AVG(rating), 1), 0)
                             FROM facility_reviews WHERE facility_id = ?)
               WHERE id = ?`)).
        WithArgs(uint64(2), uint64(2)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, _ := db.Begin()
    if err := repo.RecalcFacilityRatingTx(context.Background(), tx, 2); err != nil {
        t.Fatalf("RecalcFacilityRatingTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestRecalcFacilityRatingTxFacilityGone(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewReviewRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE facilities`)).
        WithArgs(uint64(2), uint64(2)).
        WillReturnResult(sqlmock.NewResult(0, 0)) // no row matched

    tx, _ := db.Begin()
    if err := repo.RecalcFacilityRatingTx(context.Background(), tx, 2); err != nil {
        t.Errorf("recompute against a deleted facility must be a no-op, got %v", err)
    }
}

func TestReviewGetByIDNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewReviewRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, booking_id, facility_id, user_id, rating, content, created_at, updated_at`)).
        WithArgs(uint64(77)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "facility_id", "user_id", "rating", "content", "created_at", "updated_at"}))

    if _, err := repo.GetByID(context.Background(), 77); err != ErrNotFound {
        t.Errorf("err = %v, want ErrNotFound", err)
    }
}
