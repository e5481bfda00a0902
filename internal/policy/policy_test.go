package policy

import "testing"

func TestCan(t *testing.T) {
    const (
        alice uint64 = 1 // entity owner
        bob   uint64 = 2 // counterparty (e.g. facility owner on a booking)
        carol uint64 = 3 // unrelated user
        guest uint64 = 0 // unauthenticated
    )
    cases := []struct {
        name   string
        actor  uint64
        action Action
        res    Resource
        want   bool
    }{
        {"anyone reads a facility", guest, Read, Resource{Kind: KindFacility, OwnerID: alice}, true},
        {"owner updates facility", alice, Update, Resource{Kind: KindFacility, OwnerID: alice}, true},
        {"stranger cannot update facility", carol, Update, Resource{Kind: KindFacility, OwnerID: alice}, false},
        {"guest cannot update facility", guest, Update, Resource{Kind: KindFacility, OwnerID: alice}, false},
        {"owner deletes facility", alice, Delete, Resource{Kind: KindFacility, OwnerID: alice}, true},

        {"booker reads own booking", alice, Read, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, true},
        {"facility owner reads booking", bob, Read, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, true},
        {"stranger cannot read booking", carol, Read, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, false},
        {"booker reschedules own booking", alice, Update, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, true},
        {"facility owner cannot reschedule", bob, Update, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, false},
        {"facility owner approves booking", bob, Approve, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, true},
        {"booker cannot approve own booking", alice, Approve, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, false},
        {"booker cancels own booking", alice, Delete, Resource{Kind: KindBooking, OwnerID: alice, CounterpartyID: bob}, true},

        {"anyone reads reviews", guest, Read, Resource{Kind: KindReview, OwnerID: alice}, true},
        {"author edits review", alice, Update, Resource{Kind: KindReview, OwnerID: alice}, true},
        {"stranger cannot edit review", carol, Update, Resource{Kind: KindReview, OwnerID: alice}, false},

        {"payer reads own payment", alice, Read, Resource{Kind: KindPayment, OwnerID: alice}, true},
        {"stranger cannot read payment", carol, Read, Resource{Kind: KindPayment, OwnerID: alice}, false},
        {"nobody updates a payment", alice, Update, Resource{Kind: KindPayment, OwnerID: alice}, false},
        {"nobody deletes a payment", alice, Delete, Resource{Kind: KindPayment, OwnerID: alice}, false},

        {"anyone reads a profile", guest, Read, Resource{Kind: KindProfile, OwnerID: alice}, true},
        {"owner updates own profile", alice, Update, Resource{Kind: KindProfile, OwnerID: alice}, true},
        {"stranger cannot update profile", carol, Update, Resource{Kind: KindProfile, OwnerID: alice}, false},

        {"approve undefined for facility", bob, Approve, Resource{Kind: KindFacility, OwnerID: alice}, false},
        {"receipt private to buyer", carol, Read, Resource{Kind: KindReceipt, OwnerID: alice}, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := Can(tc.actor, tc.action, tc.res); got != tc.want {
                t.Errorf("Can(%d, %v, %+v) = %v, want %v", tc.actor, tc.action, tc.res, got, tc.want)
            }
        })
    }
}

func TestCanZeroActorNeverOwns(t *testing.T) {
    // An unauthenticated caller must not match an entity whose owner id
    // is zero by accident.
    if Can(0, Update, Resource{Kind: KindFacility, OwnerID: 0}) {
        t.Error("guest passed an owner check against a zero owner id")
    }
}
