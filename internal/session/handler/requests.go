package handler

import (
	"strings"
	"time"

	dErrors "attendly/pkg/domain-errors"
)

// CreateSessionRequest is the HTTP request body for POST /sessions.
type CreateSessionRequest struct {
	Title        string    `json:"title"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Lat          *float64  `json:"gps_lat,omitempty"`
	Lon          *float64  `json:"gps_lon,omitempty"`
	RadiusMeters *int      `json:"allowed_radius,omitempty"`
}

func (r *CreateSessionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "start_time and end_time are required")
	}
	return nil
}
