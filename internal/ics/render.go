// Package ics renders iCalendar payloads for calendar instances. Payloads
// are produced at enqueue time so the notification dispatcher never needs
// to re-project the schedule.
package ics

import (
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Invite is the flattened instance snapshot an ICS payload is built from.
type Invite struct {
	InstanceID    string
	Summary       string
	Description   string
	Link          string
	Start         time.Time
	End           time.Time
	Sequence      int
	Cancelled     bool
	OrganizerName string
	AttendeeEmail string
	AttendeeName  string
}

// Renderer builds RFC 5545 calendar objects with a fixed product identity.
type Renderer struct {
	productID string
	domain    string
}

// NewRenderer constructs a renderer. The domain scopes event UIDs so ids
// stay globally unique across deployments.
func NewRenderer(productID, domain string) *Renderer {
	if productID == "" {
		productID = "-//Office Hours Scheduler//EN"
	}
	if domain == "" {
		domain = "officehours.local"
	}
	return &Renderer{productID: productID, domain: domain}
}

// Render serializes the invite. Cancellations use METHOD:CANCEL with a
// CANCELLED status so consuming clients retract the original event; all
// other payloads are METHOD:REQUEST updates keyed by UID and SEQUENCE.
func (r *Renderer) Render(inv Invite) string {
	cal := ical.NewCalendar()
	cal.SetProductId(r.productID)
	if inv.Cancelled {
		cal.SetMethod(ical.MethodCancel)
	} else {
		cal.SetMethod(ical.MethodRequest)
	}

	event := cal.AddEvent(inv.InstanceID + "@" + r.domain)
	event.SetDtStampTime(time.Now().UTC())
	event.SetStartAt(inv.Start.UTC())
	event.SetEndAt(inv.End.UTC())
	event.SetSummary(inv.Summary)
	if inv.Description != "" {
		event.SetDescription(inv.Description)
	}
	if inv.Link != "" {
		event.SetProperty(ical.ComponentPropertyUrl, inv.Link)
		event.SetLocation(inv.Link)
	}
	if inv.OrganizerName != "" {
		event.SetOrganizer("mailto:noreply@"+r.domain, ical.WithCN(inv.OrganizerName))
	}
	if inv.AttendeeEmail != "" {
		params := []ical.PropertyParameter{ical.WithRSVP(false)}
		if inv.AttendeeName != "" {
			params = append(params, ical.WithCN(inv.AttendeeName))
		}
		event.AddAttendee(inv.AttendeeEmail, params...)
	}
	event.SetProperty(ical.ComponentPropertySequence, strconv.Itoa(inv.Sequence))
	if inv.Cancelled {
		event.SetStatus(ical.ObjectStatusCancelled)
	} else {
		event.SetStatus(ical.ObjectStatusConfirmed)
	}

	return cal.Serialize()
}
