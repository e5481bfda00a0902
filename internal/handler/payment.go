package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/model"
    "github.com/usaha/rental-api/internal/queue"
    "github.com/usaha/rental-api/internal/repository"
    queue_publisher "github.com/usaha/rental-api/internal/service"
)

// PaymentHandler serves payment creation and the caller's payment
// history.  The total is always derived on the server from the locked
// booking's duration and the facility's daily price; a client-supplied
// amount is never read.
type PaymentHandler struct {
    Payments *repository.PaymentRepo
    Bookings *repository.BookingRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, b *repository.BookingRepo) *PaymentHandler {
    return &PaymentHandler{Payments: p, Bookings: b}
}

type paymentReq struct {
    BookingID uint64 `json:"booking_id"`
    Method    string `json:"method"`
}

type paymentResp struct {
    ID          uint64 `json:"id"`
    BookingID   uint64 `json:"booking_id"`
    UserID      uint64 `json:"user_id"`
    TotalAmount int64  `json:"total_amount"`
    Method      string `json:"method"`
    CreatedAt   string `json:"created_at"`
}

func toPaymentResp(p *model.Payment) paymentResp {
    return paymentResp{
        ID:          p.ID,
        BookingID:   p.BookingID,
        UserID:      p.UserID,
        TotalAmount: p.TotalAmount,
        Method:      p.Method,
        CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Create records the payment for one of the caller's bookings.  The
// booking row lock taken by BookingChargeTx keeps a concurrent payment
// for the same booking waiting; the loser of the race sees the
// existing payment and is rejected with a conflict.
func (h *PaymentHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req paymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ve := model.ValidationErrors{}
    if req.BookingID == 0 {
        ve["booking_id"] = "booking is required"
    }
    if !model.ValidMethod(req.Method) {
        ve["method"] = "method must be credit or debit"
    }
    if len(ve) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Payments.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    charge, err := h.Payments.BookingChargeTx(ctx, tx, req.BookingID)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if charge.BookerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    exists, err := h.Payments.ExistsForBookingTx(ctx, tx, req.BookingID)
    if err != nil {
        return repoError(c, err, "payment check failed")
    }
    if exists {
        return c.JSON(http.StatusConflict, echo.Map{"errors": model.ValidationErrors{"booking_id": "booking is already paid"}})
    }

    p := model.Payment{
        BookingID:   req.BookingID,
        UserID:      uid,
        TotalAmount: model.PaymentTotal(charge.Duration, charge.PricePerDay),
        Method:      req.Method,
    }
    if err := h.Payments.CreateTx(ctx, tx, &p); err != nil {
        return repoError(c, err, "create payment failed")
    }
    if err := h.Payments.MarkBookingPaidTx(ctx, tx, req.BookingID); err != nil {
        return repoError(c, err, "update booking failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    // Publish after commit; a broker outage must not undo the payment.
    go h.publishCompleted(p, charge)

    return c.JSON(http.StatusCreated, toPaymentResp(&p))
}

func (h *PaymentHandler) publishCompleted(p model.Payment, charge *repository.BookingCharge) {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    ev := queue.PaymentCompletedEvent{
        PaymentID:   p.ID,
        BookingID:   p.BookingID,
        UserID:      p.UserID,
        Duration:    charge.Duration,
        TotalAmount: p.TotalAmount,
        Method:      p.Method,
        PaidAt:      p.CreatedAt.UTC().Format(time.RFC3339),
    }
    if b, _, err := h.Bookings.GetByID(ctx, p.BookingID); err == nil {
        ev.FacilityID = b.FacilityID
        ev.StartDate = b.StartDate.Format(model.DateLayout)
        ev.EndDate = b.EndDate.Format(model.DateLayout)
        if name, err := h.Bookings.FacilityName(ctx, b.FacilityID); err == nil {
            ev.FacilityName = name
        }
    }
    _ = queue_publisher.PublishPaymentCompleted(ctx, ev)
}

// Get returns one of the caller's payments.  Payments are private to
// the payer; someone else's payment reads as not found.
func (h *PaymentHandler) Get(c echo.Context) error {
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

    p, err := h.Payments.GetByIDForUser(ctx, id, uid)
    if err != nil {
        return repoError(c, err, "load payment failed")
    }
    return c.JSON(http.StatusOK, toPaymentResp(p))
}

// ListMine returns the caller's payments, newest first.
func (h *PaymentHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    payments, err := h.Payments.ListByUser(ctx, uid)
    if err != nil {
        return repoError(c, err, "list payments failed")
    }
    resp := make([]paymentResp, 0, len(payments))
    for i := range payments {
        resp = append(resp, toPaymentResp(&payments[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"payments": resp})
}
