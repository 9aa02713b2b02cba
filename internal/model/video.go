package model

import "time"

// Collection names. They double as feed channel suffixes.
const (
    CollectionUsers            = "users"
    CollectionVideos           = "videos"
    CollectionDeletionRequests = "deletionRequests"
)

// VideoStatus is the content status of a deal, independent of payment.
type VideoStatus string

const (
    VideoPending VideoStatus = "pending"
    VideoLive    VideoStatus = "live"
    VideoCancel  VideoStatus = "cancel"
)

// Platform is where the video is published.
type Platform string

const (
    PlatformYouTube   Platform = "youtube"
    PlatformInstagram Platform = "instagram"
    PlatformOther     Platform = "other"
)

// PaymentStatus is the admin-controlled settlement state of a record.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "pending"
    PaymentDone     PaymentStatus = "done"
    PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
    switch p {
    case PaymentPending, PaymentDone, PaymentRejected:
        return true
    }
    return false
}

// DateLayout is the calendar-date format stored in VideoFields.Date.
const DateLayout = "2006-01-02"

// VideoFields holds the editable content of a video deal. It is embedded in
// VideoRecord and copied verbatim into a DeletionRequest snapshot.
type VideoFields struct {
    Channel     string      `json:"channel"`
    VideoLink   string      `json:"video_link"`
    Status      VideoStatus `json:"status"`
    Price       float64     `json:"price"`
    Remarks     string      `json:"remarks,omitempty"`
    Brand       string      `json:"brand"`
    Platform    Platform    `json:"platform"`
    ContactInfo string      `json:"contact_info"`
    Date        string      `json:"date"`
}

// VideoRecord mirrors a document in the `videos` collection.
//
// OwnerUID never changes after creation. OwnerEmail is a snapshot taken at
// creation so the record stays attributable after the owner is removed.
// Payment starts at PaymentPending and only admins move it. While
// DeletionPending is true the owner can no longer edit the record.
type VideoRecord struct {
    ID string `json:"id"`
    VideoFields
    OwnerUID        string        `json:"owner_uid"`
    OwnerEmail      string        `json:"owner_email"`
    Payment         PaymentStatus `json:"payment"`
    DeletionPending bool          `json:"deletion_pending"`
    CreatedAt       time.Time     `json:"created_at"`
    UpdatedAt       time.Time     `json:"updated_at"`
}

// VideoFilter is an equality-predicate query against the videos
// collection. Empty fields match everything.
type VideoFilter struct {
    OwnerUID string
    Payment  PaymentStatus
}

// Matches reports whether v satisfies every set predicate.
func (f VideoFilter) Matches(v VideoRecord) bool {
    if f.OwnerUID != "" && v.OwnerUID != f.OwnerUID {
        return false
    }
    if f.Payment != "" && v.Payment != f.Payment {
        return false
    }
    return true
}

// DeletionRequest mirrors a document in the `deletionRequests` collection:
// a snapshot of the video at request time plus the reference back to it.
type DeletionRequest struct {
    ID      string `json:"id"`
    VideoID string `json:"video_id"`
    VideoFields
    OwnerUID    string    `json:"owner_uid"`
    OwnerEmail  string    `json:"owner_email"`
    RequestedAt time.Time `json:"requested_at"`
}

// SnapshotOf builds the request document for v. ID and RequestedAt are left
// for the caller.
func SnapshotOf(v VideoRecord) DeletionRequest {
    return DeletionRequest{
        VideoID:     v.ID,
        VideoFields: v.VideoFields,
        OwnerUID:    v.OwnerUID,
        OwnerEmail:  v.OwnerEmail,
    }
}
