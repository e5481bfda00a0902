package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/model"
    "github.com/usaha/rental-api/internal/repository"
    "github.com/usaha/rental-api/internal/utils"
)

// ReceiptHandler serves tool purchases and the caller's receipt
// history.  The purchase amount comes from the tool's unit price at
// buy time, never from the client.
type ReceiptHandler struct {
    Receipts *repository.ReceiptRepo
}

func NewReceiptHandler(r *repository.ReceiptRepo) *ReceiptHandler {
    return &ReceiptHandler{Receipts: r}
}

type purchaseReq struct {
    ToolID   uint64 `json:"tool_id"`
    Quantity int    `json:"quantity"`
}

type receiptResp struct {
    ID          uint64 `json:"id"`
    ToolID      uint64 `json:"tool_id"`
    UserID      uint64 `json:"user_id"`
    Amount      int64  `json:"amount"`
    ReceiptCode string `json:"receipt_code"`
    IsPaid      bool   `json:"is_paid"`
    OrderDate   string `json:"order_date"`
}

func toReceiptResp(r *model.ToolReceipt) receiptResp {
    return receiptResp{
        ID:          r.ID,
        ToolID:      r.ToolID,
        UserID:      r.UserID,
        Amount:      r.Amount,
        ReceiptCode: r.ReceiptCode,
        IsPaid:      r.IsPaid,
        OrderDate:   r.OrderDate.UTC().Format(time.RFC3339),
    }
}

// Purchase buys a tool.  The tool row is locked so the unit price read
// and the receipt insert see a consistent listing.
func (h *ReceiptHandler) Purchase(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req purchaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Quantity == 0 {
        req.Quantity = 1
    }
    ve := model.ValidationErrors{}
    if req.ToolID == 0 {
        ve["tool_id"] = "tool is required"
    }
    if req.Quantity < 1 {
        ve["quantity"] = "quantity must be at least 1"
    }
    if len(ve) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    code, err := utils.NewReceiptCode()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate receipt code failed"})
    }

    tx, err := h.Receipts.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    price, err := h.Receipts.ToolPriceTx(ctx, tx, req.ToolID)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    rec := model.ToolReceipt{
        ToolID:      req.ToolID,
        UserID:      uid,
        Amount:      price * int64(req.Quantity),
        ReceiptCode: code,
    }
    if err := h.Receipts.CreateTx(ctx, tx, &rec); err != nil {
        return repoError(c, err, "create receipt failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, toReceiptResp(&rec))
}

// Get returns one of the caller's receipts.
func (h *ReceiptHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, err := h.Receipts.GetByIDForUser(ctx, id, uid)
    if err != nil {
        return repoError(c, err, "load receipt failed")
    }
    return c.JSON(http.StatusOK, toReceiptResp(rec))
}

// ListMine returns the caller's receipts, filterable by tool and paid
// state via query parameters.
func (h *ReceiptHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var filter repository.ReceiptFilter
    if s := c.QueryParam("tool"); s != "" {
        if n, err := strconv.ParseUint(s, 10, 64); err == nil {
            filter.ToolID = n
        }
    }
    if s := c.QueryParam("paid"); s != "" {
        if b, err := strconv.ParseBool(s); err == nil {
            filter.IsPaid = &b
        }
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    receipts, err := h.Receipts.ListByUser(ctx, uid, filter)
    if err != nil {
        return repoError(c, err, "list receipts failed")
    }
    resp := make([]receiptResp, 0, len(receipts))
    for i := range receipts {
        resp = append(resp, toReceiptResp(&receipts[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"receipts": resp})
}

type paidReq struct {
    Paid *bool `json:"paid"`
}

// SetPaid flips the paid flag on one of the caller's receipts.
func (h *ReceiptHandler) SetPaid(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req paidReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    paid := true
    if req.Paid != nil {
        paid = *req.Paid
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Receipts.SetPaid(ctx, id, uid, paid); err != nil {
        return repoError(c, err, "update receipt failed")
    }
    rec, err := h.Receipts.GetByIDForUser(ctx, id, uid)
    if err != nil {
        return repoError(c, err, "load receipt failed")
    }
    return c.JSON(http.StatusOK, toReceiptResp(rec))
}

// Delete removes one of the caller's receipts.
func (h *ReceiptHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Receipts.Delete(ctx, id, uid); err != nil {
        return repoError(c, err, "delete receipt failed")
    }
    return c.NoContent(http.StatusNoContent)
}
