package model

import (
    "testing"
    "time"
)

func date(s string) time.Time {
    t, err := ParseDate(s)
    if err != nil {
        panic(err)
    }
    return t
}

func TestDurationDays(t *testing.T) {
    cases := []struct {
        name  string
        start string
        end   string
        want  int
    }{
        {"single day", "2024-07-01", "2024-07-01", 1},
        {"three days inclusive", "2024-07-01", "2024-07-03", 3},
        {"across month boundary", "2024-01-30", "2024-02-02", 4},
        {"across year boundary", "2024-12-30", "2025-01-02", 4},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := DurationDays(date(tc.start), date(tc.end)); got != tc.want {
                t.Errorf("DurationDays(%s, %s) = %d, want %d", tc.start, tc.end, got, tc.want)
            }
        })
    }
}

func TestOverlaps(t *testing.T) {
    cases := []struct {
        name                           string
        aStart, aEnd, bStart, bEnd     string
        want                           bool
    }{
        {"identical ranges", "2024-07-01", "2024-07-03", "2024-07-01", "2024-07-03", true},
        {"b inside a", "2024-07-01", "2024-07-10", "2024-07-03", "2024-07-05", true},
        {"a inside b", "2024-07-03", "2024-07-05", "2024-07-01", "2024-07-10", true},
        {"shared end boundary", "2024-07-01", "2024-07-03", "2024-07-03", "2024-07-05", true},
        {"shared start boundary", "2024-07-03", "2024-07-05", "2024-07-01", "2024-07-03", true},
        {"adjacent, no overlap", "2024-07-01", "2024-07-03", "2024-07-04", "2024-07-06", false},
        {"disjoint", "2024-07-01", "2024-07-02", "2024-07-10", "2024-07-12", false},
        {"single-day collision", "2024-07-02", "2024-07-02", "2024-07-02", "2024-07-02", true},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            got := Overlaps(date(tc.aStart), date(tc.aEnd), date(tc.bStart), date(tc.bEnd))
            if got != tc.want {
                t.Errorf("Overlaps(%s..%s, %s..%s) = %v, want %v",
                    tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
            }
            // Overlap is symmetric.
            if rev := Overlaps(date(tc.bStart), date(tc.bEnd), date(tc.aStart), date(tc.aEnd)); rev != got {
                t.Errorf("Overlaps not symmetric for %s..%s vs %s..%s", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
            }
        })
    }
}

func TestValidateRange(t *testing.T) {
    cases := []struct {
        name      string
        start     string
        end       string
        wantField string
    }{
        {"valid range", "2024-07-01", "2024-07-03", ""},
        {"single day", "2024-07-01", "2024-07-01", ""},
        {"end before start", "2024-07-03", "2024-07-01", "end_date"},
        {"missing start", "", "2024-07-03", "start_date"},
        {"missing end", "2024-07-01", "", "end_date"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            var start, end time.Time
            if tc.start != "" {
                start = date(tc.start)
            }
            if tc.end != "" {
                end = date(tc.end)
            }
            ve := ValidateRange(start, end)
            if tc.wantField == "" {
                if ve != nil {
                    t.Errorf("ValidateRange(%q, %q) = %v, want nil", tc.start, tc.end, ve)
                }
                return
            }
            if ve == nil {
                t.Fatalf("ValidateRange(%q, %q) = nil, want error on %s", tc.start, tc.end, tc.wantField)
            }
            if _, ok := ve[tc.wantField]; !ok {
                t.Errorf("ValidateRange(%q, %q) = %v, want error on %s", tc.start, tc.end, ve, tc.wantField)
            }
        })
    }
}

func TestParseDateNormalizesToUTC(t *testing.T) {
    got := date("2024-07-01")
    if got.Location() != time.UTC {
        t.Errorf("ParseDate location = %v, want UTC", got.Location())
    }
    if got.Hour() != 0 || got.Minute() != 0 {
        t.Errorf("ParseDate time of day = %v, want midnight", got)
    }
}

func TestParseDateRejectsGarbage(t *testing.T) {
    for _, s := range []string{"01-07-2024", "2024/07/01", "yesterday", ""} {
        if _, err := ParseDate(s); err == nil {
            t.Errorf("ParseDate(%q) succeeded, want error", s)
        }
    }
}

func TestBookingDuration(t *testing.T) {
    b := Booking{StartDate: date("2024-07-01"), EndDate: date("2024-07-03")}
    if got := b.Duration(); got != 3 {
        t.Errorf("Duration() = %d, want 3", got)
    }
}
