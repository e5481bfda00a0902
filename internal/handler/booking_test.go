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

func newBookingContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", float64(3)) // as the JWT middleware stores it
    return c, rec
}

func TestBookingCreateConflict(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewReviewRepo(db))

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id, price_per_day FROM facilities WHERE id = ? FOR UPDATE`)).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"owner_id", "price_per_day"}).AddRow(1, 5000))
    mock.ExpectQuery(`SELECT EXISTS`).
        WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
    mock.ExpectRollback()

    c, rec := newBookingContext(t, `{"facility_id":7,"start_date":"2024-07-01","end_date":"2024-07-03"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusConflict {
        t.Errorf("status = %d, want 409", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "start_date") {
        t.Errorf("conflict response missing field error: %s", rec.Body.String())
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestBookingCreateOK(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewReviewRepo(db))

    now := time.Now().UTC()
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id, price_per_day FROM facilities WHERE id = ? FOR UPDATE`)).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"owner_id", "price_per_day"}).AddRow(1, 5000))
    mock.ExpectQuery(`SELECT EXISTS`).
        WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
    mock.ExpectExec(`INSERT INTO facility_bookings`).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT is_approved, is_paid, created_at, updated_at FROM facility_bookings WHERE id = ?`)).
        WithArgs(uint64(42)).
        WillReturnRows(sqlmock.NewRows([]string{"is_approved", "is_paid", "created_at", "updated_at"}).
            AddRow(false, false, now, now))
    mock.ExpectCommit()

    c, rec := newBookingContext(t, `{"facility_id":7,"start_date":"2024-07-01","end_date":"2024-07-03"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusCreated {
        t.Errorf("status = %d, want 201: %s", rec.Code, rec.Body.String())
    }
    // Duration is the derived inclusive day count.
    if !strings.Contains(rec.Body.String(), `"duration":3`) {
        t.Errorf("response missing duration: %s", rec.Body.String())
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestBookingCreateBadRange(t *testing.T) {
    db, _, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewReviewRepo(db))

    c, rec := newBookingContext(t, `{"facility_id":7,"start_date":"2024-07-03","end_date":"2024-07-01"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusBadRequest {
        t.Errorf("status = %d, want 400", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "end_date") {
        t.Errorf("response missing field error: %s", rec.Body.String())
    }
}

func TestBookingCreateMissingFacility(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    h := NewBookingHandler(repository.NewBookingRepo(db), repository.NewReviewRepo(db))

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id, price_per_day FROM facilities WHERE id = ? FOR UPDATE`)).
        WithArgs(uint64(999)).
        WillReturnRows(sqlmock.NewRows([]string{"owner_id", "price_per_day"}))
    mock.ExpectRollback()

    c, rec := newBookingContext(t, `{"facility_id":999,"start_date":"2024-07-01","end_date":"2024-07-03"}`)
    if err := h.Create(c); err != nil {
        t.Fatalf("Create: %v", err)
    }
    if rec.Code != http.StatusNotFound {
        t.Errorf("status = %d, want 404", rec.Code)
    }
}
