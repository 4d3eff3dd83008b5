package handler

import (
	"time"

	"attendly/internal/attendance/models"
	id "attendly/pkg/domain"
)

// MarkResponse reports what happened to one submission.
type MarkResponse struct {
	Outcome        string   `json:"outcome"`
	Status         string   `json:"status,omitempty"`
	Similarity     *float64 `json:"similarity,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

func fromResult(result *models.SubmissionResult) MarkResponse {
	return MarkResponse{
		Outcome:        string(result.Outcome),
		Status:         string(result.Ledger),
		Similarity:     result.Similarity,
		DistanceMeters: result.DistanceMeters,
	}
}

// RecordResponse is the caller's own attendance record for a session.
type RecordResponse struct {
	SessionID    id.SessionID `json:"session_id"`
	CheckInTime  time.Time    `json:"check_in_time"`
	CheckOutTime *time.Time   `json:"check_out_time,omitempty"`
}

func fromRecord(record *models.AttendanceRecord) RecordResponse {
	return RecordResponse{
		SessionID:    record.SessionID,
		CheckInTime:  record.CheckInTime,
		CheckOutTime: record.CheckOutTime,
	}
}
