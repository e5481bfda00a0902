package repository

import (
    "context"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/usaha/rental-api/internal/model"
)

func TestBookingChargeTx(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT b.booker_id, b.start_date, b.end_date, b.is_paid, f.price_per_day`)).
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"booker_id", "start_date", "end_date", "is_paid", "price_per_day"}).
            AddRow(3, day("2024-07-01"), day("2024-07-03"), false, int64(5000)))

    tx, _ := db.Begin()
    charge, err := repo.BookingChargeTx(context.Background(), tx, 4)
    if err != nil {
        t.Fatalf("BookingChargeTx: %v", err)
    }
    if charge.BookerID != 3 {
        t.Errorf("BookerID = %d, want 3", charge.BookerID)
    }
    if charge.Duration != 3 {
        t.Errorf("Duration = %d, want 3 (inclusive day count)", charge.Duration)
    }
    if charge.PricePerDay != 5000 {
        t.Errorf("PricePerDay = %d, want 5000", charge.PricePerDay)
    }
    if got := model.PaymentTotal(charge.Duration, charge.PricePerDay); got != 15000 {
        t.Errorf("derived total = %d, want 15000", got)
    }
}

func TestBookingChargeTxNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT b.booker_id, b.start_date, b.end_date, b.is_paid, f.price_per_day`)).
        WithArgs(uint64(404)).
        WillReturnRows(sqlmock.NewRows([]string{"booker_id", "start_date", "end_date", "is_paid", "price_per_day"}))

    tx, _ := db.Begin()
    if _, err := repo.BookingChargeTx(context.Background(), tx, 404); err != ErrNotFound {
        t.Errorf("err = %v, want ErrNotFound", err)
    }
}

func TestExistsForBookingTx(t *testing.T) {
    for _, exists := range []bool{true, false} {
        db, mock, err := sqlmock.New()
        if err != nil {
            t.Fatal(err)
        }
        repo := NewPaymentRepo(db)

        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = ?)`)).
            WithArgs(uint64(4)).
            WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))

        tx, _ := db.Begin()
        got, err := repo.ExistsForBookingTx(context.Background(), tx, 4)
        if err != nil {
            t.Fatalf("ExistsForBookingTx: %v", err)
        }
        if got != exists {
            t.Errorf("ExistsForBookingTx = %v, want %v", got, exists)
        }
        db.Close()
    }
}

func TestPaymentCreateTxAndMarkPaid(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    now := time.Now().UTC()
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments (booking_id, user_id, total_amount, method) VALUES (?, ?, ?, ?)`)).
        WithArgs(uint64(4), uint64(3), int64(15000), model.MethodCredit).
        WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at FROM payments WHERE id = ?`)).
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE facility_bookings SET is_paid = 1 WHERE id = ?`)).
        WithArgs(uint64(4)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, _ := db.Begin()
    p := model.Payment{BookingID: 4, UserID: 3, TotalAmount: 15000, Method: model.MethodCredit}
    if err := repo.CreateTx(context.Background(), tx, &p); err != nil {
        t.Fatalf("CreateTx: %v", err)
    }
    if p.ID != 8 {
        t.Errorf("ID = %d, want 8", p.ID)
    }
    if err := repo.MarkBookingPaidTx(context.Background(), tx, 4); err != nil {
        t.Fatalf("MarkBookingPaidTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestGetByIDForUserScoped(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewPaymentRepo(db)

    // A payment that exists but belongs to someone else reads as not
    // found, not forbidden.
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, booking_id, user_id, total_amount, method, created_at`)).
        WithArgs(uint64(8), uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "user_id", "total_amount", "method", "created_at"}))

    if _, err := repo.GetByIDForUser(context.Background(), 8, 99); err != ErrNotFound {
        t.Errorf("err = %v, want ErrNotFound", err)
    }
}
