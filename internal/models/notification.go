package models

import "time"

// NotificationKind identifies the template an outbox job renders.
type NotificationKind string

const (
	NotificationHostAssigned   NotificationKind = "HOST_ASSIGNED"
	NotificationHostRemoved    NotificationKind = "HOST_REMOVED"
	NotificationEventCancelled NotificationKind = "EVENT_CANCELLED"
	NotificationTimeChanged    NotificationKind = "EVENT_TIME_CHANGED"
)

// NotificationStatus is the delivery lifecycle of an outbox job.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// NotificationJob is a durable outbox row. The ICS payload is rendered at
// enqueue time so dispatch never needs to re-project the calendar.
type NotificationJob struct {
	ID             string             `db:"id" json:"id"`
	Kind           NotificationKind   `db:"kind" json:"kind"`
	RecipientID    string             `db:"recipient_id" json:"recipient_id"`
	RecipientEmail string             `db:"recipient_email" json:"recipient_email"`
	Subject        string             `db:"subject" json:"subject"`
	BodyText       string             `db:"body_text" json:"body_text"`
	ICSPayload     string             `db:"ics_payload" json:"-"`
	Status         NotificationStatus `db:"status" json:"status"`
	ErrorMessage   *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	SentAt         *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
}
