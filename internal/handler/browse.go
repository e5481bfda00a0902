package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/model"
    "github.com/usaha/rental-api/internal/repository"
)

// BrowseHandler serves the public, unauthenticated catalog: facility
// and tool listings with filters, per-facility reviews, the tool
// category index and the profile directory.  These routes sit behind
// the Redis response cache.
type BrowseHandler struct {
    Facilities *repository.FacilityRepo
    Reviews    *repository.ReviewRepo
    Tools      *repository.ToolRepo
    Profiles   *repository.ProfileRepo
}

func NewBrowseHandler(f *repository.FacilityRepo, r *repository.ReviewRepo, t *repository.ToolRepo, p *repository.ProfileRepo) *BrowseHandler {
    return &BrowseHandler{Facilities: f, Reviews: r, Tools: t, Profiles: p}
}

// ListFacilities returns facilities matching the name/city/category
// query parameters.
func (h *BrowseHandler) ListFacilities(c echo.Context) error {
    filter := repository.FacilityFilter{
        NameQuery: c.QueryParam("search"),
        City:      c.QueryParam("city"),
        Category:  c.QueryParam("category"),
    }
    if filter.Category != "" && !model.ValidCategory(filter.Category) {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": model.ValidationErrors{"category": "category must be one of kitchen, workshop, art studio, others"}})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Facilities.List(ctx, filter)
    if err != nil {
        return repoError(c, err, "list facilities failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"facilities": details})
}

// GetFacility returns one facility with its owner attributes,
// amenities and images.
func (h *BrowseHandler) GetFacility(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    detail, err := h.Facilities.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load facility failed")
    }
    return c.JSON(http.StatusOK, detail)
}

// ListFacilityReviews returns the reviews for one facility, newest
// first, decorated with author display attributes.
func (h *BrowseHandler) ListFacilityReviews(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Facilities.GetOwnerID(ctx, id); err != nil {
        return repoError(c, err, "load facility failed")
    }
    details, err := h.Reviews.ListByFacility(ctx, id)
    if err != nil {
        return repoError(c, err, "list reviews failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"reviews": details})
}

// ListTools returns marketplace tools matching the search/category
// query parameters, with optional name or price ordering.
func (h *BrowseHandler) ListTools(c echo.Context) error {
    filter := repository.ToolFilter{
        Query:    c.QueryParam("search"),
        Category: c.QueryParam("category"),
        OrderBy:  c.QueryParam("order_by"),
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Tools.List(ctx, filter)
    if err != nil {
        return repoError(c, err, "list tools failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"tools": details})
}

// GetTool returns one tool with its categories and images.
func (h *BrowseHandler) GetTool(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    detail, err := h.Tools.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    return c.JSON(http.StatusOK, detail)
}

// ListToolCategories returns all tool category tags.
func (h *BrowseHandler) ListToolCategories(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    cats, err := h.Tools.ListCategories(ctx)
    if err != nil {
        return repoError(c, err, "list categories failed")
    }
    resp := make([]echo.Map, 0, len(cats))
    for _, cat := range cats {
        resp = append(resp, echo.Map{"id": cat.ID, "name": cat.Name})
    }
    return c.JSON(http.StatusOK, echo.Map{"categories": resp})
}

type profileResp struct {
    ID            uint64  `json:"id"`
    UserID        uint64  `json:"user_id"`
    FirstName     string  `json:"first_name"`
    LastName      string  `json:"last_name"`
    Bio           *string `json:"bio,omitempty"`
    ContactNumber string  `json:"contact_number"`
    ProfilePic    *string `json:"profile_pic,omitempty"`
}

// ListProfiles returns the public profile directory, optionally
// filtered to one user via ?user=.
func (h *BrowseHandler) ListProfiles(c echo.Context) error {
    var userID uint64
    if s := c.QueryParam("user"); s != "" {
        n, err := strconv.ParseUint(s, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user filter"})
        }
        userID = n
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    profiles, err := h.Profiles.List(ctx, userID)
    if err != nil {
        return repoError(c, err, "list profiles failed")
    }
    resp := make([]profileResp, 0, len(profiles))
    for _, p := range profiles {
        resp = append(resp, profileResp{
            ID: p.ID, UserID: p.UserID,
            FirstName: p.FirstName, LastName: p.LastName,
            Bio: p.Bio, ContactNumber: p.ContactNumber, ProfilePic: p.ProfilePic,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"profiles": resp})
}

// GetProfile returns one user's public profile by user id.
func (h *BrowseHandler) GetProfile(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Profiles.GetByUserID(ctx, id)
    if err != nil {
        return repoError(c, err, "load profile failed")
    }
    return c.JSON(http.StatusOK, profileResp{
        ID: p.ID, UserID: p.UserID,
        FirstName: p.FirstName, LastName: p.LastName,
        Bio: p.Bio, ContactNumber: p.ContactNumber, ProfilePic: p.ProfilePic,
    })
}
