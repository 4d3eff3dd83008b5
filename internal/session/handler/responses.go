package handler

import (
	"time"

	"attendly/internal/session/models"
)

// SessionResponse is the public view of a session.
type SessionResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Lat          *float64  `json:"gps_lat,omitempty"`
	Lon          *float64  `json:"gps_lon,omitempty"`
	RadiusMeters *int      `json:"allowed_radius,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func fromSession(session *models.Session) SessionResponse {
	resp := SessionResponse{
		ID:        session.ID.String(),
		Title:     session.Title,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		CreatedAt: session.CreatedAt,
	}
	if session.Geofence != nil {
		lat, lon, radius := session.Geofence.Lat, session.Geofence.Lon, session.Geofence.RadiusMeters
		resp.Lat = &lat
		resp.Lon = &lon
		resp.RadiusMeters = &radius
	}
	return resp
}
