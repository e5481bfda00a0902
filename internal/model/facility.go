package model

import "time"

// Facility categories accepted by the API.  Anything else is rejected
// at validation time; an empty category defaults to CategoryOthers.
const (
    CategoryKitchen   = "kitchen"
    CategoryWorkshop  = "workshop"
    CategoryArtStudio = "art studio"
    CategoryOthers    = "others"
)

// ValidCategory reports whether s is one of the facility category
// enumeration values.
func ValidCategory(s string) bool {
    switch s {
    case CategoryKitchen, CategoryWorkshop, CategoryArtStudio, CategoryOthers:
        return true
    }
    return false
}

// Facility represents a rentable space listed by an owner.  A facility
// belongs to exactly one user and carries sets of images, amenities and
// bookings.  This struct corresponds to a row in the `facilities`
// table.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user ID of the listing owner.
//  Name         – display name of the facility.
//  Category     – one of the Category* enumeration values.
//  Description  – free-text description.
//  City         – city the facility is located in.
//  LocationLink – map link or address text.
//  PricePerDay  – rental price for one day, in the smallest currency unit.
//  Rating       – arithmetic mean of review ratings, one decimal place.
//                 Derived by the review aggregator; never writable by clients.
//  CreatedAt    – timestamp when the facility was created.
//  UpdatedAt    – timestamp of last update.
type Facility struct {
    ID           uint64    // facilities.id
    OwnerID      uint64    // facilities.owner_id
    Name         string    // facilities.name
    Category     string    // facilities.category
    Description  string    // facilities.description
    City         string    // facilities.city
    LocationLink string    // facilities.location_link
    PricePerDay  int64     // facilities.price_per_day
    Rating       float64   // facilities.rating (derived)
    CreatedAt    time.Time // facilities.created_at
    UpdatedAt    time.Time // facilities.updated_at
}

// Validate checks the client-writable fields of a facility and returns
// a field-to-message map for everything that is malformed.  A nil
// return means the facility may be persisted.
func (f *Facility) Validate() ValidationErrors {
    ve := ValidationErrors{}
    if f.Name == "" {
        ve["name"] = "name is required"
    }
    if f.Category == "" {
        f.Category = CategoryOthers
    } else if !ValidCategory(f.Category) {
        ve["category"] = "category must be one of kitchen, workshop, art studio, others"
    }
    if f.City == "" {
        ve["city"] = "city is required"
    }
    if f.PricePerDay < 0 {
        ve["price_per_day"] = "the price cannot be negative"
    }
    if len(ve) == 0 {
        return nil
    }
    return ve
}

// FacilityImage stores the URL of one picture attached to a facility.
// The first uploaded image is flagged as primary and used as the
// thumbnail in list views.
type FacilityImage struct {
    ID         uint64 // facility_images.id
    FacilityID uint64 // facility_images.facility_id
    URL        string // facility_images.url
    IsPrimary  bool   // facility_images.is_primary
}

// Amenity is a named feature attached to a facility.  Amenity names
// are unique per facility.
type Amenity struct {
    ID         uint64 // amenities.id
    FacilityID uint64 // amenities.facility_id
    Name       string // amenities.name
}
