package model

import (
    "sort"
    "strings"
)

// ValidationErrors maps a field name to a human readable message
// describing why the submitted value was rejected.  Handlers return
// the map verbatim in the response body so clients can attach
// messages to form fields.
type ValidationErrors map[string]string

// Error joins the field messages in a stable order so the map can be
// passed around as an ordinary error value.
func (ve ValidationErrors) Error() string {
    fields := make([]string, 0, len(ve))
    for f := range ve {
        fields = append(fields, f)
    }
    sort.Strings(fields)
    parts := make([]string, 0, len(fields))
    for _, f := range fields {
        parts = append(parts, f+": "+ve[f])
    }
    return strings.Join(parts, "; ")
}
