package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func videos() []VideoRecord {
    mk := func(id, channel, date string, st VideoStatus, pay PaymentStatus) VideoRecord {
        return VideoRecord{
            ID:          id,
            VideoFields: VideoFields{Channel: channel, Date: date, Status: st},
            Payment:     pay,
        }
    }
    return []VideoRecord{
        mk("a", "TechReviews", "2024-03-01", VideoLive, PaymentDone),
        mk("b", "CookingWithAna", "2024-01-15", VideoPending, PaymentPending),
        mk("c", "techtalks", "2024-02-10", VideoCancel, PaymentRejected),
    }
}

func ids(vs []VideoRecord) []string {
    out := make([]string, 0, len(vs))
    for _, v := range vs {
        out = append(out, v.ID)
    }
    return out
}

func TestVideoQueryApply(t *testing.T) {
    tests := []struct {
        name string
        q    VideoQuery
        want []string
    }{
        {"empty query keeps order", VideoQuery{}, []string{"a", "b", "c"}},
        {"search is case-insensitive", VideoQuery{Search: "TECH"}, []string{"a", "c"}},
        {"status filter", VideoQuery{Status: VideoPending}, []string{"b"}},
        {"payment filter", VideoQuery{Payment: PaymentDone}, []string{"a"}},
        {"date ascend", VideoQuery{DateOrder: SortAscend}, []string{"b", "c", "a"}},
        {"date descend with search", VideoQuery{Search: "tech", DateOrder: SortDescend}, []string{"a", "c"}},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            in := videos()
            got := tt.q.Apply(in)
            assert.Equal(t, tt.want, ids(got))
            assert.Equal(t, []string{"a", "b", "c"}, ids(in), "input must not be reordered")
        })
    }
}

func TestTeamQueryApply(t *testing.T) {
    yes := true
    ms := []TeamMember{
        {UserProfile: UserProfile{UID: "1", Email: "ana@example.com", Name: "Ana", Role: RoleWorker}},
        {UserProfile: UserProfile{UID: "2", Email: "bo@example.com", Name: "Bo", Role: RoleNew, Suspended: true}},
        {UserProfile: UserProfile{UID: "3", Email: "root@example.com", Name: "Ana Admin", Role: RoleAdmin}},
    }

    got := TeamQuery{Search: "ana"}.Apply(ms)
    assert.Len(t, got, 2)

    got = TeamQuery{Role: RoleNew}.Apply(ms)
    assert.Equal(t, "2", got[0].UID)

    got = TeamQuery{Suspended: &yes}.Apply(ms)
    assert.Len(t, got, 1)
}

func TestVideoFilterMatches(t *testing.T) {
    v := VideoRecord{OwnerUID: "u1", Payment: PaymentPending}
    assert.True(t, VideoFilter{}.Matches(v))
    assert.True(t, VideoFilter{OwnerUID: "u1", Payment: PaymentPending}.Matches(v))
    assert.False(t, VideoFilter{OwnerUID: "u2"}.Matches(v))
    assert.False(t, VideoFilter{Payment: PaymentDone}.Matches(v))
}
