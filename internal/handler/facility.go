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

// FacilityHandler serves facility CRUD plus the amenity and image
// sub-resources.  Creation bundles amenities and images into one
// transaction so a listing never appears half-built.
type FacilityHandler struct {
    Facilities *repository.FacilityRepo
}

func NewFacilityHandler(f *repository.FacilityRepo) *FacilityHandler {
    return &FacilityHandler{Facilities: f}
}

type facilityReq struct {
    Name         string   `json:"name"`
    Category     string   `json:"category"`
    Description  string   `json:"description"`
    City         string   `json:"city"`
    LocationLink string   `json:"location_link"`
    PricePerDay  int64    `json:"price_per_day"`
    Amenities    []string `json:"amenities"`
    Images       []string `json:"images"`
}

// Create registers a new facility owned by the caller.  Amenities and
// image URLs supplied inline are persisted in the same transaction.
func (h *FacilityHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req facilityReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    f := model.Facility{
        OwnerID:      uid,
        Name:         req.Name,
        Category:     req.Category,
        Description:  req.Description,
        City:         req.City,
        LocationLink: req.LocationLink,
        PricePerDay:  req.PricePerDay,
    }
    if ve := f.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Facilities.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Facilities.CreateTx(ctx, tx, &f); err != nil {
        return repoError(c, err, "create facility failed")
    }
    for _, name := range req.Amenities {
        if name == "" {
            continue
        }
        if _, err := h.Facilities.AddAmenityTx(ctx, tx, f.ID, name); err != nil && err != repository.ErrConflict {
            return repoError(c, err, "create amenities failed")
        }
    }
    if err := h.Facilities.AddImagesTx(ctx, tx, f.ID, req.Images); err != nil {
        return repoError(c, err, "create images failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    detail, err := h.Facilities.GetByID(ctx, f.ID)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    return c.JSON(http.StatusCreated, detail)
}

// Update rewrites a facility's writable columns.  Only the owner may
// update; the derived rating and the owner are never touched.
func (h *FacilityHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req facilityReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Facilities.GetOwnerID(ctx, id)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    if !policy.Can(uid, policy.Update, policy.Resource{Kind: policy.KindFacility, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    f := model.Facility{
        ID:           id,
        OwnerID:      ownerID,
        Name:         req.Name,
        Category:     req.Category,
        Description:  req.Description,
        City:         req.City,
        LocationLink: req.LocationLink,
        PricePerDay:  req.PricePerDay,
    }
    if ve := f.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }
    if err := h.Facilities.Update(ctx, &f); err != nil {
        return repoError(c, err, "update facility failed")
    }
    detail, err := h.Facilities.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    return c.JSON(http.StatusOK, detail)
}

// Delete removes a facility and everything hanging off it.
func (h *FacilityHandler) Delete(c echo.Context) error {
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

    ownerID, err := h.Facilities.GetOwnerID(ctx, id)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    if !policy.Can(uid, policy.Delete, policy.Resource{Kind: policy.KindFacility, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    tx, err := h.Facilities.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Facilities.DeleteTx(ctx, tx, id); err != nil {
        return repoError(c, err, "delete facility failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.NoContent(http.StatusNoContent)
}

type amenityReq struct {
    Name string `json:"name"`
}

// AddAmenity attaches one amenity to the caller's facility.
func (h *FacilityHandler) AddAmenity(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    facilityID, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req amenityReq
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": model.ValidationErrors{"name": "name is required"}})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Facilities.GetOwnerID(ctx, facilityID)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    // Amenity rows belong to whoever owns the facility.
    if !policy.Can(uid, policy.Update, policy.Resource{Kind: policy.KindAmenity, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    tx, err := h.Facilities.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    amenityID, err := h.Facilities.AddAmenityTx(ctx, tx, facilityID, req.Name)
    if err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"errors": model.ValidationErrors{"name": "amenity already exists for this facility"}})
        }
        return repoError(c, err, "create amenity failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, model.Amenity{ID: amenityID, FacilityID: facilityID, Name: req.Name})
}

// DeleteAmenity removes one amenity from the caller's facility.
func (h *FacilityHandler) DeleteAmenity(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    amenityID, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Facilities.AmenityOwner(ctx, amenityID)
    if err != nil {
        return repoError(c, err, "load amenity failed")
    }
    if !policy.Can(uid, policy.Delete, policy.Resource{Kind: policy.KindAmenity, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Facilities.DeleteAmenity(ctx, amenityID); err != nil {
        return repoError(c, err, "delete amenity failed")
    }
    return c.NoContent(http.StatusNoContent)
}
