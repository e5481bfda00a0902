package model

import (
    "math"
    "time"
)

// Review is a post-stay rating and comment tied one-to-one to a
// booking.  Each booking may be reviewed at most once; the facility
// and author references are denormalized for cheap list queries.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – reviewed booking (unique).
//  FacilityID – facility the booking was for.
//  UserID     – review author (the booker).
//  Rating     – integer score between 0 and 5.
//  Content    – optional free-text body.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Review struct {
    ID         uint64    // facility_reviews.id
    BookingID  uint64    // facility_reviews.booking_id
    FacilityID uint64    // facility_reviews.facility_id
    UserID     uint64    // facility_reviews.user_id
    Rating     int       // facility_reviews.rating
    Content    *string   // facility_reviews.content (nullable)
    CreatedAt  time.Time // facility_reviews.created_at
    UpdatedAt  time.Time // facility_reviews.updated_at
}

// Validate checks the writable review fields.
func (r *Review) Validate() ValidationErrors {
    ve := ValidationErrors{}
    if r.BookingID == 0 {
        ve["booking_id"] = "booking is required"
    }
    if r.FacilityID == 0 {
        ve["facility_id"] = "facility is required"
    }
    if r.Rating < 0 || r.Rating > 5 {
        ve["rating"] = "rating must be between 0 and 5"
    }
    if len(ve) == 0 {
        return nil
    }
    return ve
}

// AverageRating returns the arithmetic mean of the given ratings
// rounded to one decimal place, or 0 when there are none.  The
// aggregator always re-derives from the full review set instead of
// keeping a running total, so concurrent edits cannot drift the
// stored value.
func AverageRating(ratings []int) float64 {
    if len(ratings) == 0 {
        return 0
    }
    sum := 0
    for _, r := range ratings {
        sum += r
    }
    avg := float64(sum) / float64(len(ratings))
    return math.Round(avg*10) / 10
}
