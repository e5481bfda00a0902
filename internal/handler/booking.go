package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/model"
    "github.com/usaha/rental-api/internal/policy"
    "github.com/usaha/rental-api/internal/repository"
)

// BookingHandler serves booking creation, rescheduling, listing,
// approval and cancellation.  Every write path locks the facility row
// first and runs the overlap scan inside the same transaction, so two
// concurrent requests for one facility serialize: the second waits on
// the lock and then sees the first booking's dates.
type BookingHandler struct {
    Bookings *repository.BookingRepo
    Reviews  *repository.ReviewRepo
}

func NewBookingHandler(b *repository.BookingRepo, rv *repository.ReviewRepo) *BookingHandler {
    return &BookingHandler{Bookings: b, Reviews: rv}
}

type bookingReq struct {
    FacilityID uint64  `json:"facility_id"`
    StartDate  string  `json:"start_date"`
    EndDate    string  `json:"end_date"`
    Notes      *string `json:"notes"`
}

type bookingResp struct {
    ID         uint64  `json:"id"`
    FacilityID uint64  `json:"facility_id"`
    BookerID   uint64  `json:"booker_id"`
    StartDate  string  `json:"start_date"`
    EndDate    string  `json:"end_date"`
    Duration   int     `json:"duration"`
    Notes      *string `json:"notes,omitempty"`
    IsApproved bool    `json:"is_approved"`
    IsPaid     bool    `json:"is_paid"`
    CreatedAt  string  `json:"created_at"`
    UpdatedAt  string  `json:"updated_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
    return bookingResp{
        ID:         b.ID,
        FacilityID: b.FacilityID,
        BookerID:   b.BookerID,
        StartDate:  b.StartDate.Format(model.DateLayout),
        EndDate:    b.EndDate.Format(model.DateLayout),
        Duration:   b.Duration(),
        Notes:      b.Notes,
        IsApproved: b.IsApproved,
        IsPaid:     b.IsPaid,
        CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
        UpdatedAt:  b.UpdatedAt.UTC().Format(time.RFC3339),
    }
}

// parseRange turns the wire dates into UTC midnights and runs the
// local range rules.  Unparseable dates surface as field errors too.
func parseRange(startStr, endStr string) (start, end time.Time, ve model.ValidationErrors) {
    ve = model.ValidationErrors{}
    if startStr != "" {
        t, err := model.ParseDate(startStr)
        if err != nil {
            ve["start_date"] = "start date must be formatted YYYY-MM-DD"
        } else {
            start = t
        }
    }
    if endStr != "" {
        t, err := model.ParseDate(endStr)
        if err != nil {
            ve["end_date"] = "end date must be formatted YYYY-MM-DD"
        } else {
            end = t
        }
    }
    if len(ve) > 0 {
        return start, end, ve
    }
    return start, end, model.ValidateRange(start, end)
}

// Create places a booking on a facility.  The facility row lock taken
// before the overlap scan is what guarantees no two overlapping
// bookings can both commit.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.FacilityID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": model.ValidationErrors{"facility_id": "facility is required"}})
    }
    start, end, ve := parseRange(req.StartDate, req.EndDate)
    if len(ve) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, _, err := h.Bookings.LockFacilityTx(ctx, tx, req.FacilityID); err != nil {
        return repoError(c, err, "load facility failed")
    }
    overlap, err := h.Bookings.HasOverlapTx(ctx, tx, req.FacilityID, start, end, 0)
    if err != nil {
        return repoError(c, err, "overlap check failed")
    }
    if overlap {
        return repoError(c, repository.ErrDateConflict, "")
    }

    b := model.Booking{
        FacilityID: req.FacilityID,
        BookerID:   uid,
        StartDate:  start,
        EndDate:    end,
        Notes:      req.Notes,
    }
    if err := h.Bookings.CreateTx(ctx, tx, &b); err != nil {
        return repoError(c, err, "create booking failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, toBookingResp(&b))
}

// Update reschedules the caller's own booking.  The same lock-then-scan
// sequence runs, this time excluding the booking's own row so keeping
// the dates unchanged is not a conflict.
func (h *BookingHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    start, end, ve := parseRange(req.StartDate, req.EndDate)
    if len(ve) > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, _, err := h.Bookings.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if !policy.Can(uid, policy.Update, policy.Resource{Kind: policy.KindBooking, OwnerID: b.BookerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    if _, _, err := h.Bookings.LockFacilityTx(ctx, tx, b.FacilityID); err != nil {
        return repoError(c, err, "load facility failed")
    }
    overlap, err := h.Bookings.HasOverlapTx(ctx, tx, b.FacilityID, start, end, id)
    if err != nil {
        return repoError(c, err, "overlap check failed")
    }
    if overlap {
        return repoError(c, repository.ErrDateConflict, "")
    }

    notes := b.Notes
    if req.Notes != nil {
        notes = req.Notes
    }
    if err := h.Bookings.UpdateDatesTx(ctx, tx, id, start, end, notes); err != nil {
        return repoError(c, err, "update booking failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    b.StartDate = start
    b.EndDate = end
    b.Notes = notes
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// Get returns one booking.  Only the booker and the facility owner may
// see it.
func (h *BookingHandler) Get(c echo.Context) error {
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

    b, facilityOwner, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if !policy.Can(uid, policy.Read, policy.Resource{Kind: policy.KindBooking, OwnerID: b.BookerID, CounterpartyID: facilityOwner}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// ListMine returns the caller's bookings, decorated for display.
func (h *BookingHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Bookings.ListByBooker(ctx, uid)
    if err != nil {
        return repoError(c, err, "list bookings failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// ListForFacility returns the bookings on one facility for its owner.
func (h *BookingHandler) ListForFacility(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    facilityID, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Bookings.FacilityOwner(ctx, facilityID)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    if ownerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    details, err := h.Bookings.ListByFacility(ctx, facilityID)
    if err != nil {
        return repoError(c, err, "list bookings failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

type approveReq struct {
    Approved *bool `json:"approved"`
}

// Approve lets the facility owner accept (or retract acceptance of) a
// booking on their facility.  The booker cannot approve their own
// booking.
func (h *BookingHandler) Approve(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req approveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    approved := true
    if req.Approved != nil {
        approved = *req.Approved
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, facilityOwner, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if !policy.Can(uid, policy.Approve, policy.Resource{Kind: policy.KindBooking, OwnerID: b.BookerID, CounterpartyID: facilityOwner}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Bookings.SetApproved(ctx, id, approved); err != nil {
        return repoError(c, err, "update booking failed")
    }
    b.IsApproved = approved
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// Delete cancels the caller's own booking.  The booking's review and
// payment rows go with it, and the facility rating is re-derived in the
// same transaction since a review may just have disappeared.
func (h *BookingHandler) Delete(c echo.Context) error {
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

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, _, err := h.Bookings.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if !policy.Can(uid, policy.Delete, policy.Resource{Kind: policy.KindBooking, OwnerID: b.BookerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Bookings.DeleteCascadeTx(ctx, tx, id); err != nil {
        return repoError(c, err, "delete booking failed")
    }
    if err := h.Reviews.RecalcFacilityRatingTx(ctx, tx, b.FacilityID); err != nil {
        return repoError(c, err, "recalculate rating failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.NoContent(http.StatusNoContent)
}
