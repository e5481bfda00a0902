package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/usaha/rental-api/internal/model"
)

// FacilityRepo provides CRUD operations for facilities and their
// dependent images and amenities.  All timestamp fields are stored in
// UTC.  The derived rating column is only ever written by the review
// repository's aggregation step.
type FacilityRepo struct {
    db *sql.DB
}

// NewFacilityRepo returns a new FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *FacilityRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a facility within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  Rating starts at 0 via the column default.
func (r *FacilityRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Facility) error {
    const q = `INSERT INTO facilities (owner_id, name, category, description, city, location_link, price_per_day)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, f.OwnerID, f.Name, f.Category, f.Description, f.City, f.LocationLink, f.PricePerDay)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    const sel = `SELECT rating, created_at, updated_at FROM facilities WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, f.ID).Scan(&f.Rating, &f.CreatedAt, &f.UpdatedAt)
}

// AddAmenityTx attaches one named amenity inside the caller's
// transaction.  Amenity names are unique per facility; duplicates
// surface as ErrConflict.
func (r *FacilityRepo) AddAmenityTx(ctx context.Context, tx *sql.Tx, facilityID uint64, name string) (uint64, error) {
    res, err := tx.ExecContext(ctx, `INSERT INTO amenities (facility_id, name) VALUES (?, ?)`, facilityID, name)
    if err != nil {
        if strings.Contains(err.Error(), "1062") {
            return 0, ErrConflict
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// AddImagesTx stores image URLs for a facility in a single statement.
// The first URL becomes the primary image.  An empty slice is a no-op.
func (r *FacilityRepo) AddImagesTx(ctx context.Context, tx *sql.Tx, facilityID uint64, urls []string) error {
    if len(urls) == 0 {
        return nil
    }
    query := `INSERT INTO facility_images (facility_id, url, is_primary) VALUES `
    args := make([]interface{}, 0, len(urls)*3)
    for i, u := range urls {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, facilityID, u, i == 0)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// Update rewrites the client-writable columns of a facility.  Rating
// and owner are deliberately absent from the statement.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
    const q = `UPDATE facilities SET name = ?, category = ?, description = ?, city = ?, location_link = ?, price_per_day = ?
               WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, f.Name, f.Category, f.Description, f.City, f.LocationLink, f.PricePerDay, f.ID)
    return err
}

// DeleteTx removes a facility together with every dependent row:
// payments on its bookings, reviews, bookings, images and amenities,
// deepest first.  Returns ErrNotFound when the facility row does not
// exist.
func (r *FacilityRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const delPayments = `DELETE p FROM payments p
                         JOIN facility_bookings b ON b.id = p.booking_id
                         WHERE b.facility_id = ?`
    if _, err := tx.ExecContext(ctx, delPayments, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM facility_reviews WHERE facility_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM facility_bookings WHERE facility_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM facility_images WHERE facility_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM amenities WHERE facility_id = ?`, id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// GetOwnerID returns the owning user of a facility for policy checks.
// Returns ErrNotFound when the facility does not exist.
func (r *FacilityRepo) GetOwnerID(ctx context.Context, id uint64) (uint64, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM facilities WHERE id = ?`, id).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return ownerID, err
}

// AmenityOwner returns the amenity's id together with the owner of its
// facility.  Returns ErrNotFound when the amenity does not exist.
func (r *FacilityRepo) AmenityOwner(ctx context.Context, amenityID uint64) (uint64, error) {
    const q = `SELECT f.owner_id FROM amenities a JOIN facilities f ON f.id = a.facility_id WHERE a.id = ?`
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, q, amenityID).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return ownerID, err
}

// DeleteAmenity removes one amenity.
func (r *FacilityRepo) DeleteAmenity(ctx context.Context, amenityID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM amenities WHERE id = ?`, amenityID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// FacilityDetail is the public representation of a facility: the row
// itself plus owner display attributes and the dependent sets.
type FacilityDetail struct {
    ID           uint64                `json:"id"`
    OwnerID      uint64                `json:"owner_id"`
    OwnerName    *string               `json:"owner_name,omitempty"`
    OwnerPic     *string               `json:"owner_pfp,omitempty"`
    OwnerSince   *string               `json:"owner_start,omitempty"`
    Name         string                `json:"name"`
    Category     string                `json:"category"`
    Description  string                `json:"description"`
    City         string                `json:"city"`
    LocationLink string                `json:"location_link"`
    PricePerDay  int64                 `json:"price_per_day"`
    Rating       float64               `json:"rating"`
    CreatedAt    string                `json:"created_at"`
    UpdatedAt    string                `json:"updated_at"`
    Amenities    []string              `json:"amenities"`
    Images       []FacilityImageDetail `json:"images"`
}

// FacilityImageDetail is one image entry in a facility response.
type FacilityImageDetail struct {
    ID        uint64 `json:"id"`
    URL       string `json:"url"`
    IsPrimary bool   `json:"is_primary"`
}

// FacilityFilter narrows List results.  Zero values mean "no
// constraint".  Name matching is substring, city and category are
// exact; there is no relevance ranking.
type FacilityFilter struct {
    NameQuery string
    City      string
    Category  string
}

// GetByID loads one facility with owner attributes, amenities and
// images.  Returns ErrNotFound when absent.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*FacilityDetail, error) {
    details, err := r.list(ctx, `WHERE f.id = ?`, id)
    if err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return nil, ErrNotFound
    }
    return &details[0], nil
}

// List returns facilities matching the filter, newest first.
func (r *FacilityRepo) List(ctx context.Context, filter FacilityFilter) ([]FacilityDetail, error) {
    where := make([]string, 0, 3)
    args := make([]interface{}, 0, 3)
    if filter.NameQuery != "" {
        where = append(where, "f.name LIKE ?")
        args = append(args, "%"+filter.NameQuery+"%")
    }
    if filter.City != "" {
        where = append(where, "f.city = ?")
        args = append(args, filter.City)
    }
    if filter.Category != "" {
        where = append(where, "f.category = ?")
        args = append(args, filter.Category)
    }
    clause := ""
    if len(where) > 0 {
        clause = "WHERE " + strings.Join(where, " AND ")
    }
    return r.list(ctx, clause+" ORDER BY f.created_at DESC", args...)
}

func (r *FacilityRepo) list(ctx context.Context, clause string, args ...interface{}) ([]FacilityDetail, error) {
    q := `SELECT f.id, f.owner_id, CONCAT(p.first_name, ' ', p.last_name), p.profile_pic, u.created_at,
                 f.name, f.category, f.description, f.city, f.location_link, f.price_per_day, f.rating,
                 f.created_at, f.updated_at
          FROM facilities f
          JOIN users u ON u.id = f.owner_id
          LEFT JOIN profiles p ON p.user_id = f.owner_id ` + clause
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]FacilityDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var d FacilityDetail
        var ownerName, ownerPic sql.NullString
        var ownerSince, createdAt, updatedAt time.Time
        if err := rows.Scan(
            &d.ID, &d.OwnerID, &ownerName, &ownerPic, &ownerSince,
            &d.Name, &d.Category, &d.Description, &d.City, &d.LocationLink, &d.PricePerDay, &d.Rating,
            &createdAt, &updatedAt,
        ); err != nil {
            return nil, err
        }
        if ownerName.Valid && strings.TrimSpace(ownerName.String) != "" {
            n := ownerName.String
            d.OwnerName = &n
        }
        if ownerPic.Valid {
            p := ownerPic.String
            d.OwnerPic = &p
        }
        since := ownerSince.UTC().Format(time.RFC3339)
        d.OwnerSince = &since
        d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        d.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
        d.Amenities = []string{}
        d.Images = []FacilityImageDetail{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    // Populate amenities and images for all facilities in two queries.
    ids := make([]interface{}, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    in := "(" + strings.Join(placeholders, ",") + ")"

    arows, err := r.db.QueryContext(ctx,
        `SELECT facility_id, name FROM amenities WHERE facility_id IN `+in+` ORDER BY facility_id, name`, ids...)
    if err != nil {
        return nil, err
    }
    defer arows.Close()
    for arows.Next() {
        var fid uint64
        var name string
        if err := arows.Scan(&fid, &name); err != nil {
            return nil, err
        }
        if idx, ok := index[fid]; ok {
            details[idx].Amenities = append(details[idx].Amenities, name)
        }
    }
    if err := arows.Err(); err != nil {
        return nil, err
    }

    irows, err := r.db.QueryContext(ctx,
        `SELECT facility_id, id, url, is_primary FROM facility_images WHERE facility_id IN `+in+` ORDER BY facility_id, is_primary DESC, id`, ids...)
    if err != nil {
        return nil, err
    }
    defer irows.Close()
    for irows.Next() {
        var fid uint64
        var img FacilityImageDetail
        if err := irows.Scan(&fid, &img.ID, &img.URL, &img.IsPrimary); err != nil {
            return nil, err
        }
        if idx, ok := index[fid]; ok {
            details[idx].Images = append(details[idx].Images, img)
        }
    }
    return details, irows.Err()
}
