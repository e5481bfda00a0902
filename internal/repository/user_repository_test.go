package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestUserCreateTxDuplicateMapping(t *testing.T) {
    cases := []struct {
        name    string
        driver  string
        wantErr error
    }{
        {"duplicate email", "Error 1062 (23000): Duplicate entry 'a@b.c' for key 'users.email'", ErrEmailExists},
        {"duplicate username", "Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'", ErrUsernameExists},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            db, mock, err := sqlmock.New()
            if err != nil {
                t.Fatal(err)
            }
            defer db.Close()
            repo := NewUserRepo(db)

            mock.ExpectBegin()
            mock.ExpectExec("INSERT INTO users").
                WillReturnError(errors.New(tc.driver))

            tx, _ := db.Begin()
            _, err = repo.CreateTx(context.Background(), tx, "alice", "a@b.c", "pw", 4)
            if err != tc.wantErr {
                t.Errorf("err = %v, want %v", err, tc.wantErr)
            }
        })
    }
}

func TestUserCreateTxNormalizesInput(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    repo := NewUserRepo(db)

    mock.ExpectBegin()
    // Username is trimmed and email lower-cased before the insert; the
    // hash argument varies per run so only the fixed columns match.
    mock.ExpectExec("INSERT INTO users").
        WithArgs("alice", "a@b.c", sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(5, 1))

    tx, _ := db.Begin()
    id, err := repo.CreateTx(context.Background(), tx, "  alice ", "A@B.C", "pw", 4)
    if err != nil {
        t.Fatalf("CreateTx: %v", err)
    }
    if id != 5 {
        t.Errorf("id = %d, want 5", id)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Error(err)
    }
}
