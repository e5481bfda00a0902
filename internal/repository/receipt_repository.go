package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/usaha/rental-api/internal/model"
)

// ReceiptRepo persists tool purchase receipts.  Receipts are only ever
// visible to the user who made the purchase.
type ReceiptRepo struct {
    db *sql.DB
}

// NewReceiptRepo returns a new ReceiptRepo bound to the given database.
func NewReceiptRepo(db *sql.DB) *ReceiptRepo { return &ReceiptRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ReceiptRepo) DB() *sql.DB { return r.db }

// ToolPriceTx locks the tool row and returns its unit price, so the
// purchase amount is derived from the price at buy time.
func (r *ReceiptRepo) ToolPriceTx(ctx context.Context, tx *sql.Tx, toolID uint64) (int64, error) {
    var price int64
    err := tx.QueryRowContext(ctx, `SELECT price_per_unit FROM tools WHERE id = ? FOR UPDATE`, toolID).Scan(&price)
    if err == sql.ErrNoRows {
        return 0, ErrNotFound
    }
    return price, err
}

// CreateTx inserts a receipt within the caller's transaction and
// populates the generated ID and order timestamp.
func (r *ReceiptRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.ToolReceipt) error {
    const q = `INSERT INTO tool_receipts (tool_id, user_id, amount, receipt_code, is_paid) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, rec.ToolID, rec.UserID, rec.Amount, rec.ReceiptCode, rec.IsPaid)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT order_date FROM tool_receipts WHERE id = ?`, rec.ID).Scan(&rec.OrderDate)
}

// GetByIDForUser loads a receipt scoped to the requesting user.
// Someone else's receipt is reported as ErrNotFound.
func (r *ReceiptRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.ToolReceipt, error) {
    const q = `SELECT id, tool_id, user_id, amount, receipt_code, is_paid, order_date
               FROM tool_receipts WHERE id = ? AND user_id = ?`
    var rec model.ToolReceipt
    err := r.db.QueryRowContext(ctx, q, id, userID).Scan(
        &rec.ID, &rec.ToolID, &rec.UserID, &rec.Amount, &rec.ReceiptCode, &rec.IsPaid, &rec.OrderDate)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &rec, nil
}

// ReceiptFilter narrows ListByUser.  ToolID of zero and a nil IsPaid
// mean "no constraint".
type ReceiptFilter struct {
    ToolID uint64
    IsPaid *bool
}

// ListByUser returns the requesting user's receipts, newest first.
func (r *ReceiptRepo) ListByUser(ctx context.Context, userID uint64, filter ReceiptFilter) ([]model.ToolReceipt, error) {
    where := []string{"user_id = ?"}
    args := []interface{}{userID}
    if filter.ToolID != 0 {
        where = append(where, "tool_id = ?")
        args = append(args, filter.ToolID)
    }
    if filter.IsPaid != nil {
        where = append(where, "is_paid = ?")
        args = append(args, *filter.IsPaid)
    }
    q := `SELECT id, tool_id, user_id, amount, receipt_code, is_paid, order_date
          FROM tool_receipts WHERE ` + strings.Join(where, " AND ") + ` ORDER BY order_date DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    receipts := make([]model.ToolReceipt, 0)
    for rows.Next() {
        var rec model.ToolReceipt
        if err := rows.Scan(&rec.ID, &rec.ToolID, &rec.UserID, &rec.Amount, &rec.ReceiptCode, &rec.IsPaid, &rec.OrderDate); err != nil {
            return nil, err
        }
        receipts = append(receipts, rec)
    }
    return receipts, rows.Err()
}

// SetPaid updates the paid flag on the user's own receipt.
func (r *ReceiptRepo) SetPaid(ctx context.Context, id, userID uint64, paid bool) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE tool_receipts SET is_paid = ? WHERE id = ? AND user_id = ?`, paid, id, userID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        var exists bool
        if err := r.db.QueryRowContext(ctx,
            `SELECT EXISTS(SELECT 1 FROM tool_receipts WHERE id = ? AND user_id = ?)`, id, userID).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return ErrNotFound
        }
    }
    return nil
}

// Delete removes the user's own receipt.
func (r *ReceiptRepo) Delete(ctx context.Context, id, userID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM tool_receipts WHERE id = ? AND user_id = ?`, id, userID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
