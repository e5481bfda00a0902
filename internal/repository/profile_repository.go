package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/usaha/rental-api/internal/model"
)

// ProfileRepo persists the one-to-one display/contact record attached
// to each user.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// CreateTx inserts a profile inside the caller's transaction.  Called
// from registration right after the user insert so both commit or
// neither does.  A duplicate contact number surfaces as ErrConflict.
func (r *ProfileRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Profile) error {
	const q = `INSERT INTO profiles (user_id, first_name, last_name, bio, contact_number, profile_pic) VALUES (?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q, p.UserID, p.FirstName, p.LastName, p.Bio, p.ContactNumber, p.ProfilePic)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByUserID fetches the profile for a user.  Returns ErrNotFound
// when the user has no profile row.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	const q = `SELECT id, user_id, first_name, last_name, bio, contact_number, profile_pic FROM profiles WHERE user_id = ?`
	var p model.Profile
	var bio, pic sql.NullString
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &bio, &p.ContactNumber, &pic)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if bio.Valid {
		b := bio.String
		p.Bio = &b
	}
	if pic.Valid {
		u := pic.String
		p.ProfilePic = &u
	}
	return &p, nil
}

// Update rewrites the mutable profile columns for a user.  Nil
// pointers keep the current value.
func (r *ProfileRepo) Update(ctx context.Context, userID uint64, firstName, lastName, bio, contactNumber, profilePic *string) error {
	const q = `UPDATE profiles SET
	             first_name = COALESCE(?, first_name),
	             last_name = COALESCE(?, last_name),
	             bio = COALESCE(?, bio),
	             contact_number = COALESCE(?, contact_number),
	             profile_pic = COALESCE(?, profile_pic)
	           WHERE user_id = ?`
	_, err := r.DB.ExecContext(ctx, q, firstName, lastName, bio, contactNumber, profilePic, userID)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return ErrConflict
	}
	return err
}

// List returns profiles, optionally restricted to one user id (the
// ?user= filter on the public listing).
func (r *ProfileRepo) List(ctx context.Context, userID uint64) ([]model.Profile, error) {
	q := `SELECT id, user_id, first_name, last_name, bio, contact_number, profile_pic FROM profiles`
	args := []interface{}{}
	if userID != 0 {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	profiles := make([]model.Profile, 0)
	for rows.Next() {
		var p model.Profile
		var bio, pic sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &bio, &p.ContactNumber, &pic); err != nil {
			return nil, err
		}
		if bio.Valid {
			b := bio.String
			p.Bio = &b
		}
		if pic.Valid {
			u := pic.String
			p.ProfilePic = &u
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
