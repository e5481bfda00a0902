package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/usaha/rental-api/internal/model"
)

// ToolRepo provides CRUD operations for marketplace tools, their
// category tags and image sets.
type ToolRepo struct {
    db *sql.DB
}

// NewToolRepo returns a new ToolRepo bound to the given database.
func NewToolRepo(db *sql.DB) *ToolRepo { return &ToolRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ToolRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a tool within the caller's transaction and
// populates the generated ID and timestamps.
func (r *ToolRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Tool) error {
    const q = `INSERT INTO tools (owner_id, name, description, price_per_unit, location_link, stock) VALUES (?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, t.OwnerID, t.Name, t.Description, t.PricePerUnit, t.LocationLink, t.Stock)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM tools WHERE id = ?`, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// TagCategoriesTx links the tool to the named categories.  Unknown
// category names are skipped, matching the original lenient behavior
// of the marketplace importer.
func (r *ToolRepo) TagCategoriesTx(ctx context.Context, tx *sql.Tx, toolID uint64, names []string) error {
    for _, name := range names {
        var catID uint64
        err := tx.QueryRowContext(ctx, `SELECT id FROM tool_categories WHERE name = ?`, name).Scan(&catID)
        if err == sql.ErrNoRows {
            continue
        }
        if err != nil {
            return err
        }
        if _, err := tx.ExecContext(ctx,
            `INSERT IGNORE INTO tool_category_links (tool_id, category_id) VALUES (?, ?)`, toolID, catID); err != nil {
            return err
        }
    }
    return nil
}

// AddImagesTx stores image URLs for a tool; the first becomes primary.
func (r *ToolRepo) AddImagesTx(ctx context.Context, tx *sql.Tx, toolID uint64, urls []string) error {
    if len(urls) == 0 {
        return nil
    }
    query := `INSERT INTO tool_images (tool_id, url, is_primary) VALUES `
    args := make([]interface{}, 0, len(urls)*3)
    for i, u := range urls {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, toolID, u, i == 0)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// Update rewrites the client-writable columns of a tool.
func (r *ToolRepo) Update(ctx context.Context, t *model.Tool) error {
    const q = `UPDATE tools SET name = ?, description = ?, price_per_unit = ?, location_link = ?, stock = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, t.Name, t.Description, t.PricePerUnit, t.LocationLink, t.Stock, t.ID)
    return err
}

// DeleteTx removes a tool together with its receipts, images and
// category links.  Returns ErrNotFound when the tool does not exist.
func (r *ToolRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM tool_receipts WHERE tool_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM tool_images WHERE tool_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM tool_category_links WHERE tool_id = ?`, id); err != nil {
        return err
    }
    res, err := tx.ExecContext(ctx, `DELETE FROM tools WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// GetOwnerID returns the owning user of a tool for policy checks.
func (r *ToolRepo) GetOwnerID(ctx context.Context, id uint64) (uint64, error) {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM tools WHERE id = ?`, id).Scan(&ownerID)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return ownerID, err
}

// ListCategories returns all category tags ordered by name.
func (r *ToolRepo) ListCategories(ctx context.Context) ([]model.ToolCategory, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tool_categories ORDER BY name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    cats := make([]model.ToolCategory, 0)
    for rows.Next() {
        var c model.ToolCategory
        if err := rows.Scan(&c.ID, &c.Name); err != nil {
            return nil, err
        }
        cats = append(cats, c)
    }
    return cats, rows.Err()
}

// ToolDetail is the public representation of a tool with its category
// names and images.
type ToolDetail struct {
    ID           uint64            `json:"id"`
    OwnerID      uint64            `json:"owner_id"`
    Name         string            `json:"name"`
    Description  string            `json:"description"`
    PricePerUnit int64             `json:"price_per_unit"`
    LocationLink string            `json:"location_link"`
    Stock        int               `json:"stock"`
    CreatedAt    string            `json:"created_at"`
    Categories   []string          `json:"categories"`
    Images       []ToolImageDetail `json:"images"`
}

// ToolImageDetail is one image entry in a tool response.
type ToolImageDetail struct {
    ID        uint64 `json:"id"`
    URL       string `json:"url"`
    IsPrimary bool   `json:"is_primary"`
}

// ToolFilter narrows List results.  Query matches name or description
// by substring; Category is an exact tag name.  OrderBy accepts
// "name" or "price" and defaults to newest first.
type ToolFilter struct {
    Query    string
    Category string
    OrderBy  string
}

// GetByID loads one tool with categories and images.
func (r *ToolRepo) GetByID(ctx context.Context, id uint64) (*ToolDetail, error) {
    details, err := r.list(ctx, `WHERE t.id = ?`, id)
    if err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return nil, ErrNotFound
    }
    return &details[0], nil
}

// List returns tools matching the filter.
func (r *ToolRepo) List(ctx context.Context, filter ToolFilter) ([]ToolDetail, error) {
    where := make([]string, 0, 2)
    args := make([]interface{}, 0, 3)
    if filter.Query != "" {
        where = append(where, "(t.name LIKE ? OR t.description LIKE ?)")
        pat := "%" + filter.Query + "%"
        args = append(args, pat, pat)
    }
    if filter.Category != "" {
        where = append(where, `t.id IN (SELECT l.tool_id FROM tool_category_links l
                                        JOIN tool_categories c ON c.id = l.category_id
                                        WHERE c.name = ?)`)
        args = append(args, filter.Category)
    }
    clause := ""
    if len(where) > 0 {
        clause = "WHERE " + strings.Join(where, " AND ")
    }
    switch filter.OrderBy {
    case "name":
        clause += " ORDER BY t.name"
    case "price":
        clause += " ORDER BY t.price_per_unit"
    default:
        clause += " ORDER BY t.created_at DESC"
    }
    return r.list(ctx, clause, args...)
}

func (r *ToolRepo) list(ctx context.Context, clause string, args ...interface{}) ([]ToolDetail, error) {
    q := `SELECT t.id, t.owner_id, t.name, t.description, t.price_per_unit, t.location_link, t.stock, t.created_at
          FROM tools t ` + clause
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ToolDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var d ToolDetail
        var createdAt time.Time
        if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Description, &d.PricePerUnit, &d.LocationLink, &d.Stock, &createdAt); err != nil {
            return nil, err
        }
        d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        d.Categories = []string{}
        d.Images = []ToolImageDetail{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    ids := make([]interface{}, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    in := "(" + strings.Join(placeholders, ",") + ")"

    crows, err := r.db.QueryContext(ctx,
        `SELECT l.tool_id, c.name FROM tool_category_links l
         JOIN tool_categories c ON c.id = l.category_id
         WHERE l.tool_id IN `+in+` ORDER BY l.tool_id, c.name`, ids...)
    if err != nil {
        return nil, err
    }
    defer crows.Close()
    for crows.Next() {
        var tid uint64
        var name string
        if err := crows.Scan(&tid, &name); err != nil {
            return nil, err
        }
        if idx, ok := index[tid]; ok {
            details[idx].Categories = append(details[idx].Categories, name)
        }
    }
    if err := crows.Err(); err != nil {
        return nil, err
    }

    irows, err := r.db.QueryContext(ctx,
        `SELECT tool_id, id, url, is_primary FROM tool_images WHERE tool_id IN `+in+` ORDER BY tool_id, is_primary DESC, id`, ids...)
    if err != nil {
        return nil, err
    }
    defer irows.Close()
    for irows.Next() {
        var tid uint64
        var img ToolImageDetail
        if err := irows.Scan(&tid, &img.ID, &img.URL, &img.IsPrimary); err != nil {
            return nil, err
        }
        if idx, ok := index[tid]; ok {
            details[idx].Images = append(details[idx].Images, img)
        }
    }
    return details, irows.Err()
}
