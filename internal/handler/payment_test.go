package handler

import (
    "net/http"
    "net/http/httptest"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/repository"
)

func newPaymentContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/payments", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", float64(3))
    return c, rec
}

func expectCharge(mock sqlmock.Sqlmock, bookerID uint64, isPaid bool) {
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT b.booker_id, b.start_date, b.end_date, b.is_paid, f.price_per_day`)).
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"booker_id", "start_date", "end_date", "is_paid", "price_per_day"}).
            AddRow(bookerID, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), isPaid, int64(5000)))
}

func TestPaymentCreateOK(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := repository.NewPaymentRepo(db)
    h := NewPaymentHandler(repo, repository.NewBookingRepo(db))

    now := time.Now().UTC()
    mock.ExpectBegin()
    expectCharge(mock, 3, false)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = ?)`)).
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
    // 3 days at 5000: the server derives 15000 regardless of the body.
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments (booking_id, user_id, total_amount, method) VALUES (?, ?, ?, ?)`)).
        WithArgs(uint64(4), uint64(3), int64(15000), "credit").
        WillReturnResult(sqlmock.NewResult(8, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at FROM payments WHERE id = ?`)).
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE facility_bookings SET is_paid = 1 WHERE id = ?`)).
        WithArgs(uint64(4)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    c, rec := newPaymentContext(t, `{"booking_id":4,"method":"credit","total_amount":1}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
    }
    if !strings.Contains(rec.Body.String(), `"total_amount":15000`) {
        t.Errorf("client-supplied amount not overridden: %s", rec.Body.String())
    }
}

func TestPaymentCreateDuplicate(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewPaymentHandler(repository.NewPaymentRepo(db), repository.NewBookingRepo(db))

    mock.ExpectBegin()
    expectCharge(mock, 3, true)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = ?)`)).
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
    mock.ExpectRollback()

    c, rec := newPaymentContext(t, `{"booking_id":4,"method":"debit"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusConflict {
        t.Errorf("status = %d, want 409: %s", rec.Code, rec.Body.String())
    }
}

func TestPaymentCreateNotBooker(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewPaymentHandler(repository.NewPaymentRepo(db), repository.NewBookingRepo(db))

    mock.ExpectBegin()
    expectCharge(mock, 99, false) // someone else's booking
    mock.ExpectRollback()

    c, rec := newPaymentContext(t, `{"booking_id":4,"method":"credit"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusForbidden {
        t.Errorf("status = %d, want 403", rec.Code)
    }
}

func TestPaymentCreateBadMethod(t *testing.T) {
    db, _, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewPaymentHandler(repository.NewPaymentRepo(db), repository.NewBookingRepo(db))

    c, rec := newPaymentContext(t, `{"booking_id":4,"method":"cash"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusBadRequest {
        t.Errorf("status = %d, want 400", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "method") {
        t.Errorf("response missing field error: %s", rec.Body.String())
    }
}
