package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestAddAmenityTxDuplicate(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO amenities (facility_id, name) VALUES (?, ?)`)).
        WithArgs(uint64(7), "wifi").
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-wifi' for key 'amenities.facility_name'"))

    tx, _ := db.Begin()
    if _, err := repo.AddAmenityTx(context.Background(), tx, 7, "wifi"); err != ErrConflict {
        t.Errorf("err = %v, want ErrConflict", err)
    }
}

func TestFacilityDeleteTxClearsDependents(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`DELETE p FROM payments p`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_reviews WHERE facility_id = ?`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_bookings WHERE facility_id = ?`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_images WHERE facility_id = ?`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM amenities WHERE facility_id = ?`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facilities WHERE id = ?`)).
        WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))

    tx, _ := db.Begin()
    if err := repo.DeleteTx(context.Background(), tx, 7); err != nil {
        t.Fatalf("DeleteTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestFacilityDeleteTxNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`DELETE p FROM payments p`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_reviews WHERE facility_id = ?`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_bookings WHERE facility_id = ?`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facility_images WHERE facility_id = ?`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM amenities WHERE facility_id = ?`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM facilities WHERE id = ?`)).
        WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

    tx, _ := db.Begin()
    if err := repo.DeleteTx(context.Background(), tx, 9); err != ErrNotFound {
        t.Errorf("err = %v, want ErrNotFound", err)
    }
}

func TestAddImagesTxFirstIsPrimary(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO facility_images (facility_id, url, is_primary) VALUES (?, ?, ?),(?, ?, ?)`)).
        WithArgs(uint64(7), "a.jpg", true, uint64(7), "b.jpg", false).
        WillReturnResult(sqlmock.NewResult(0, 2))

    tx, _ := db.Begin()
    if err := repo.AddImagesTx(context.Background(), tx, 7, []string{"a.jpg", "b.jpg"}); err != nil {
        t.Fatalf("AddImagesTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestAddImagesTxEmptyIsNoop(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectBegin()
    tx, _ := db.Begin()
    if err := repo.AddImagesTx(context.Background(), tx, 7, nil); err != nil {
        t.Fatalf("AddImagesTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}

func TestGetOwnerIDNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewFacilityRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta(`SELECT owner_id FROM facilities WHERE id = ?`)).
        WithArgs(uint64(123)).
        WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

    if _, err := repo.GetOwnerID(context.Background(), 123); err != ErrNotFound {
        t.Errorf("err = %v, want ErrNotFound", err)
    }
}
