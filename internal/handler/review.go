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

// ReviewHandler serves review submission, editing and removal.  Every
// write commits the review change and the facility rating recompute in
// the same transaction, so readers never observe a rating that
// disagrees with the review set.
type ReviewHandler struct {
    Reviews  *repository.ReviewRepo
    Bookings *repository.BookingRepo
}

func NewReviewHandler(r *repository.ReviewRepo, b *repository.BookingRepo) *ReviewHandler {
    return &ReviewHandler{Reviews: r, Bookings: b}
}

type reviewReq struct {
    BookingID uint64  `json:"booking_id"`
    Rating    int     `json:"rating"`
    Content   *string `json:"content"`
}

type reviewResp struct {
    ID         uint64  `json:"id"`
    BookingID  uint64  `json:"booking_id"`
    FacilityID uint64  `json:"facility_id"`
    UserID     uint64  `json:"user_id"`
    Rating     int     `json:"rating"`
    Content    *string `json:"content,omitempty"`
    CreatedAt  string  `json:"created_at"`
    UpdatedAt  string  `json:"updated_at"`
}

func toReviewResp(r *model.Review) reviewResp {
    return reviewResp{
        ID:         r.ID,
        BookingID:  r.BookingID,
        FacilityID: r.FacilityID,
        UserID:     r.UserID,
        Rating:     r.Rating,
        Content:    r.Content,
        CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
        UpdatedAt:  r.UpdatedAt.UTC().Format(time.RFC3339),
    }
}

// Create submits a review for one of the caller's own bookings.  The
// facility reference is taken from the booking, never from the client.
func (h *ReviewHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.BookingID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": model.ValidationErrors{"booking_id": "booking is required"}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, _, err := h.Bookings.GetByID(ctx, req.BookingID)
    if err != nil {
        return repoError(c, err, "load booking failed")
    }
    if b.BookerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    rev := model.Review{
        BookingID:  req.BookingID,
        FacilityID: b.FacilityID,
        UserID:     uid,
        Rating:     req.Rating,
        Content:    req.Content,
    }
    if ve := rev.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    tx, err := h.Reviews.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Reviews.CreateTx(ctx, tx, &rev); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"errors": model.ValidationErrors{"booking_id": "booking already has a review"}})
        }
        return repoError(c, err, "create review failed")
    }
    if err := h.Reviews.RecalcFacilityRatingTx(ctx, tx, rev.FacilityID); err != nil {
        return repoError(c, err, "rating update failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, toReviewResp(&rev))
}

// Update rewrites the caller's own review and recomputes the facility
// rating in the same transaction.
func (h *ReviewHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rev, err := h.Reviews.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load review failed")
    }
    if !policy.Can(uid, policy.Update, policy.Resource{Kind: policy.KindReview, OwnerID: rev.UserID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    rev.Rating = req.Rating
    if req.Content != nil {
        rev.Content = req.Content
    }
    if ve := rev.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    tx, err := h.Reviews.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Reviews.UpdateTx(ctx, tx, id, rev.Rating, rev.Content); err != nil {
        return repoError(c, err, "update review failed")
    }
    if err := h.Reviews.RecalcFacilityRatingTx(ctx, tx, rev.FacilityID); err != nil {
        return repoError(c, err, "rating update failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusOK, toReviewResp(rev))
}

// Delete removes the caller's own review.  The facility rating is
// recomputed from the remaining reviews, falling back to 0 when none
// are left.
func (h *ReviewHandler) Delete(c echo.Context) error {
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

    rev, err := h.Reviews.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load review failed")
    }
    if !policy.Can(uid, policy.Delete, policy.Resource{Kind: policy.KindReview, OwnerID: rev.UserID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    tx, err := h.Reviews.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Reviews.DeleteTx(ctx, tx, id); err != nil {
        return repoError(c, err, "delete review failed")
    }
    if err := h.Reviews.RecalcFacilityRatingTx(ctx, tx, rev.FacilityID); err != nil {
        return repoError(c, err, "rating update failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.NoContent(http.StatusNoContent)
}
