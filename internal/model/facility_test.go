package model

import "testing"

func TestFacilityValidate(t *testing.T) {
    cases := []struct {
        name      string
        f         Facility
        wantField string
    }{
        {"valid", Facility{Name: "Atelier", Category: CategoryArtStudio, City: "Bandung", PricePerDay: 100}, ""},
        {"missing name", Facility{Category: CategoryKitchen, City: "Bandung"}, "name"},
        {"missing city", Facility{Name: "Atelier", Category: CategoryKitchen}, "city"},
        {"unknown category", Facility{Name: "Atelier", Category: "garage", City: "Bandung"}, "category"},
        {"negative price", Facility{Name: "Atelier", Category: CategoryKitchen, City: "Bandung", PricePerDay: -1}, "price_per_day"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            ve := tc.f.Validate()
            if tc.wantField == "" {
                if ve != nil {
                    t.Errorf("Validate() = %v, want nil", ve)
                }
                return
            }
            if _, ok := ve[tc.wantField]; !ok {
                t.Errorf("Validate() = %v, want error on %s", ve, tc.wantField)
            }
        })
    }
}

func TestFacilityValidateDefaultsCategory(t *testing.T) {
    f := Facility{Name: "Atelier", City: "Bandung"}
    if ve := f.Validate(); ve != nil {
        t.Fatalf("Validate() = %v, want nil", ve)
    }
    if f.Category != CategoryOthers {
        t.Errorf("empty category defaulted to %q, want %q", f.Category, CategoryOthers)
    }
}

func TestValidCategory(t *testing.T) {
    for _, s := range []string{CategoryKitchen, CategoryWorkshop, CategoryArtStudio, CategoryOthers} {
        if !ValidCategory(s) {
            t.Errorf("ValidCategory(%q) = false, want true", s)
        }
    }
    if ValidCategory("Kitchen") {
        t.Error("ValidCategory is case sensitive; \"Kitchen\" should be invalid")
    }
}

func TestToolValidate(t *testing.T) {
    ok := Tool{Name: "Drill", PricePerUnit: 100, Stock: 3}
    if ve := ok.Validate(); ve != nil {
        t.Errorf("Validate() = %v, want nil", ve)
    }
    bad := Tool{PricePerUnit: -5, Stock: -1}
    ve := bad.Validate()
    for _, field := range []string{"name", "price_per_unit", "stock"} {
        if _, found := ve[field]; !found {
            t.Errorf("Validate() missing error on %s: %v", field, ve)
        }
    }
}
