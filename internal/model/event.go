package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryBooking   = "booking"
	EventCategoryWorkflow  = "workflow"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
	EventCategoryIntegration = "integration"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	AdminID   sql.NullInt64
	Metadata  string // JSON string
	CreatedAt time.Time
}
