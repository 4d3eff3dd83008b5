package handler

import (
	"strings"

	id "attendly/pkg/domain"
	dErrors "attendly/pkg/domain-errors"
)

// MarkRequest is the HTTP request body for POST /attendance/mark.
type MarkRequest struct {
	SessionID     string  `json:"session_id"`
	Lat           float64 `json:"gps_lat"`
	Lon           float64 `json:"gps_lon"`
	FaceEmbedding string  `json:"face_embedding"`

	// Parsed values (populated by Validate)
	parsedSessionID id.SessionID
}

// Validate validates and parses the request.
func (r *MarkRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.SessionID == "" {
		return dErrors.New(dErrors.CodeValidation, "session_id is required")
	}
	sessionID, err := id.ParseSessionID(r.SessionID)
	if err != nil {
		return err
	}
	r.parsedSessionID = sessionID

	if strings.TrimSpace(r.FaceEmbedding) == "" {
		return dErrors.New(dErrors.CodeValidation, "face_embedding is required")
	}
	return nil
}

// ParsedSessionID returns the validated session ID.
func (r *MarkRequest) ParsedSessionID() id.SessionID {
	return r.parsedSessionID
}
