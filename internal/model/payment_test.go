package model

import "testing"

func TestPaymentTotal(t *testing.T) {
    cases := []struct {
        name        string
        duration    int
        pricePerDay int64
        want        int64
    }{
        {"one day", 1, 5000, 5000},
        {"three days", 3, 5000, 15000},
        {"free facility", 4, 0, 0},
        {"week", 7, 12345, 86415},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := PaymentTotal(tc.duration, tc.pricePerDay); got != tc.want {
                t.Errorf("PaymentTotal(%d, %d) = %d, want %d", tc.duration, tc.pricePerDay, got, tc.want)
            }
        })
    }
}

func TestPaymentTotalMatchesDuration(t *testing.T) {
    // The charge for a stay equals the inclusive day count times the
    // daily price.
    start, end := date("2024-07-01"), date("2024-07-03")
    if got := PaymentTotal(DurationDays(start, end), 100); got != 300 {
        t.Errorf("total for 3-day stay at 100/day = %d, want 300", got)
    }
}

func TestValidMethod(t *testing.T) {
    for _, s := range []string{MethodCredit, MethodDebit} {
        if !ValidMethod(s) {
            t.Errorf("ValidMethod(%q) = false, want true", s)
        }
    }
    for _, s := range []string{"", "cash", "CREDIT", "paypal"} {
        if ValidMethod(s) {
            t.Errorf("ValidMethod(%q) = true, want false", s)
        }
    }
}
