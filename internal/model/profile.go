package model

// Profile holds the display and contact attributes attached one-to-one
// to a user.  A profile is created together with its user during
// registration and may only be mutated by that user afterwards.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning user (unique).
//  FirstName     – given name shown on listings.
//  LastName      – family name shown on listings.
//  Bio           – optional free-text introduction.
//  ContactNumber – unique phone number.
//  ProfilePic    – optional URL of the profile picture.
type Profile struct {
    ID            uint64  // profiles.id
    UserID        uint64  // profiles.user_id
    FirstName     string  // profiles.first_name
    LastName      string  // profiles.last_name
    Bio           *string // profiles.bio (nullable)
    ContactNumber string  // profiles.contact_number
    ProfilePic    *string // profiles.profile_pic (nullable)
}
