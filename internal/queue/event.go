// Package queue defines the workflow events exchanged over the message
// broker, the publisher used by the workflows and the consumer that turns
// them into notification lines.
package queue

import "time"

// EventType names what happened.
type EventType string

const (
    VideoCreated      EventType = "video.created"
    VideoEdited       EventType = "video.edited"
    VideoDeleted      EventType = "video.deleted"
    PaymentSet        EventType = "video.payment_set"
    DeletionRequested EventType = "deletion.requested"
    DeletionApproved  EventType = "deletion.approved"
    DeletionRejected  EventType = "deletion.rejected"
    MemberJoined      EventType = "member.joined"
    MemberApproved    EventType = "member.approved"
    MemberSuspended   EventType = "member.suspended"
    MemberReactivated EventType = "member.reactivated"
    MemberRemoved     EventType = "member.removed"
)

// Event is published after a workflow write commits. It carries enough to
// notify people without querying the store again.
type Event struct {
    Type       EventType `json:"type"`
    ActorUID   string    `json:"actor_uid"`
    ActorEmail string    `json:"actor_email"`
    SubjectID  string    `json:"subject_id"`            // video, request or user id
    OwnerEmail string    `json:"owner_email,omitempty"` // owner of the affected video
    Channel    string    `json:"channel,omitempty"`
    Detail     string    `json:"detail,omitempty"` // e.g. the new payment status
    OccurredAt time.Time `json:"occurred_at"`
}
