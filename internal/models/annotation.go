package models

import "time"

// Creator identifies the user who wrote an annotation
type Creator struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email"`
}

// Annotation is a note anchored to a calendar date on the chart timeline
type Annotation struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	DateMarker    time.Time `json:"date_marker"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     *Creator  `json:"created_by"`
	DashboardItem string    `json:"dashboard_item,omitempty"`
}

// Viewer is the identity of whoever is looking at the chart
type Viewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
