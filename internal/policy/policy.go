// Package policy holds the access rule table for every entity type in
// one place.  Handlers load the entity, describe who is attached to it
// and ask Can before mutating; the scattered per-endpoint checks this
// replaces all route through here.
package policy

// Action enumerates what an actor wants to do with a resource.
// Creation is not listed: creating anything only requires an
// authenticated actor, and the actor always becomes the owning
// identity, so there is nothing for a rule table to decide.
type Action int

const (
    Read Action = iota
    Update
    Delete
    Approve
)

// Kind enumerates the entity types the rule table knows about.
type Kind int

const (
    KindFacility Kind = iota
    KindAmenity
    KindImage
    KindTool
    KindBooking
    KindReview
    KindPayment
    KindReceipt
    KindProfile
)

// Resource describes the parties attached to one entity instance.
// OwnerID is the user who created or owns the entity.  CounterpartyID
// is the transitive owner on two-sided entities (the facility owner
// for a booking); it is zero for everything else.
type Resource struct {
    Kind           Kind
    OwnerID        uint64
    CounterpartyID uint64
}

// relation names which party a rule grants an action to.
type relation int

const (
    nobody       relation = iota
    anyone                // public, no authentication required
    owner                 // the entity's own user
    counterparty          // the transitive owner only
    eitherParty           // owner or counterparty
)

// rules is the whole access model.  Missing (kind, action) pairs deny.
var rules = map[Kind]map[Action]relation{
    KindFacility: {Read: anyone, Update: owner, Delete: owner},
    KindAmenity:  {Read: anyone, Update: owner, Delete: owner},
    KindImage:    {Read: anyone, Update: owner, Delete: owner},
    KindTool:     {Read: anyone, Update: owner, Delete: owner},
    KindBooking:  {Read: eitherParty, Update: owner, Delete: owner, Approve: counterparty},
    KindReview:   {Read: anyone, Update: owner, Delete: owner},
    KindPayment:  {Read: owner},
    KindReceipt:  {Read: owner, Update: owner, Delete: owner},
    KindProfile:  {Read: anyone, Update: owner},
}

// Can reports whether the actor may perform action on the resource.
// actor is zero for unauthenticated callers.
func Can(actor uint64, action Action, r Resource) bool {
    rel, ok := rules[r.Kind][action]
    if !ok {
        return false
    }
    switch rel {
    case anyone:
        return true
    case owner:
        return actor != 0 && actor == r.OwnerID
    case counterparty:
        return actor != 0 && actor == r.CounterpartyID
    case eitherParty:
        return actor != 0 && (actor == r.OwnerID || actor == r.CounterpartyID)
    }
    return false
}
