package dto

// InstanceRef addresses a single calendar instance. Series occurrences are
// addressed by (series_id, occurrence_start_utc); one-off events by their
// instance id alone.
type InstanceRef struct {
	SeriesID           string `json:"series_id,omitempty"`
	OccurrenceStartUTC int64  `json:"occurrence_start_utc,omitempty"`
	InstanceID         string `json:"instance_id,omitempty"`
}

// IsSeries reports whether the reference targets a series occurrence.
func (r InstanceRef) IsSeries() bool {
	return r.SeriesID != ""
}

// AssignHostRequest assigns a candidate host to an instance.
type AssignHostRequest struct {
	InstanceRef
	CandidateID string `json:"candidate_id" validate:"required"`
}

// UnassignHostRequest removes the current host from an instance.
type UnassignHostRequest struct {
	InstanceRef
}

// CancelOccurrenceRequest tombstones a single occurrence without touching
// the series template.
type CancelOccurrenceRequest struct {
	InstanceRef
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// RescheduleOccurrenceRequest moves a single occurrence in time.
type RescheduleOccurrenceRequest struct {
	InstanceRef
	StartUTC int64   `json:"start_utc" validate:"required,gt=0"`
	EndUTC   int64   `json:"end_utc" validate:"required,gtfield=StartUTC"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
