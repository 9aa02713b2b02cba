package model

import (
    "sort"
    "strings"
)

// Sort orders accepted by list queries.
const (
    SortAscend  = "ascend"
    SortDescend = "descend"
)

// VideoQuery is the in-memory search/filter/sort applied to a video list
// after the store query. Zero values disable each clause.
type VideoQuery struct {
    Search    string        // case-insensitive substring of Channel
    Status    VideoStatus   // exact match
    Payment   PaymentStatus // exact match
    DateOrder string        // SortAscend | SortDescend | ""
}

// Apply returns the records in vs matching q, sorted by date when requested.
// vs is not modified.
func (q VideoQuery) Apply(vs []VideoRecord) []VideoRecord {
    needle := strings.ToLower(strings.TrimSpace(q.Search))
    out := make([]VideoRecord, 0, len(vs))
    for _, v := range vs {
        if needle != "" && !strings.Contains(strings.ToLower(v.Channel), needle) {
            continue
        }
        if q.Status != "" && v.Status != q.Status {
            continue
        }
        if q.Payment != "" && v.Payment != q.Payment {
            continue
        }
        out = append(out, v)
    }
    switch q.DateOrder {
    case SortAscend:
        // YYYY-MM-DD sorts lexically in calendar order.
        sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
    case SortDescend:
        sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
    }
    return out
}

// TeamMember is a roster row: the profile plus its derived video count.
type TeamMember struct {
    UserProfile
    VideoCount int `json:"video_count"`
}

// TeamQuery filters the team roster.
type TeamQuery struct {
    Search    string // case-insensitive substring of email or name
    Role      Role
    Suspended *bool
}

// Apply returns the members matching q in their original order.
func (q TeamQuery) Apply(ms []TeamMember) []TeamMember {
    needle := strings.ToLower(strings.TrimSpace(q.Search))
    out := make([]TeamMember, 0, len(ms))
    for _, m := range ms {
        if needle != "" &&
            !strings.Contains(strings.ToLower(m.Email), needle) &&
            !strings.Contains(strings.ToLower(m.Name), needle) {
            continue
        }
        if q.Role != "" && m.Role != q.Role {
            continue
        }
        if q.Suspended != nil && m.Suspended != *q.Suspended {
            continue
        }
        out = append(out, m)
    }
    return out
}
