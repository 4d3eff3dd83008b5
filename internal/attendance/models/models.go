// Package models defines the verification and ledger domain types.
package models

import (
	"time"

	"attendly/internal/geofence"
	id "attendly/pkg/domain"
)

// Outcome is the gate's admit/deny classification for one request.
type Outcome string

const (
	OutcomeAdmitted              Outcome = "admitted"
	OutcomeDeniedGeofence        Outcome = "denied_geofence"
	OutcomeDeniedNetwork         Outcome = "denied_network"
	OutcomeDeniedBiometric       Outcome = "denied_biometric"
	OutcomeDeniedSessionClosed   Outcome = "denied_session_closed"
	OutcomeDeniedSessionNotFound Outcome = "denied_session_not_found"
)

// VerificationRequest is one inbound presence event. Ephemeral; never
// persisted.
type VerificationRequest struct {
	SessionID       id.SessionID
	UserID          id.UserID
	Coordinate      geofence.Coordinate
	ClientAddress   string
	BiometricSample string
}

// Verdict is the gate's structured decision. Similarity is present
// only when the biometric stage ran; DistanceMeters only when a
// geofence was configured. NetworkUntrusted carries the probe's
// answer once the network stage has run; an admitted verdict always
// has it false, since positive evidence denies.
type Verdict struct {
	Outcome          Outcome
	NetworkUntrusted bool
	Similarity       *float64
	DistanceMeters   *float64
}

// Admitted reports whether the verdict admits the event.
func (v *Verdict) Admitted() bool { return v.Outcome == OutcomeAdmitted }

// Observation carries the evidence snapshot stored on the record.
type Observation struct {
	Coordinate       geofence.Coordinate
	NetworkUntrusted bool
	Similarity       *float64
}

// AttendanceRecord is the durable per-(session,user) state. At most
// one record per key ever exists; CheckOutTime, when set, is >=
// CheckInTime. Never deleted.
type AttendanceRecord struct {
	ID               id.RecordID
	SessionID        id.SessionID
	UserID           id.UserID
	CheckInTime      time.Time
	CheckOutTime     *time.Time
	Lat              float64
	Lon              float64
	NetworkUntrusted bool
	Similarity       *float64
}

// LedgerResult is the outcome of applying an admitted event.
type LedgerResult string

const (
	// ResultCheckedIn: first admitted event created the record.
	ResultCheckedIn LedgerResult = "checked_in"
	// ResultCheckedOut: second admitted event completed the record.
	ResultCheckedOut LedgerResult = "checked_out"
	// ResultRejected: the two-event lifecycle is exhausted; the event
	// is a duplicate or out-of-window resubmission.
	ResultRejected LedgerResult = "rejected"
)

// SubmissionResult is the discriminated result returned upstream for
// one verification request.
type SubmissionResult struct {
	Outcome        Outcome
	Ledger         LedgerResult // empty unless Outcome is admitted
	Similarity     *float64
	DistanceMeters *float64
}
