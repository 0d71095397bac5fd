package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit records are append-only and immutable once written. Nothing in the
// write path reads them back.

type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	ErrorType    string     `gorm:"size:100;index" json:"error_type"`
	Endpoint     string     `gorm:"size:255;index" json:"endpoint"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	StatusCode   int        `json:"status_code"`
	RequestData  string     `gorm:"type:text" json:"-"`
	UserID       *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
}

func (ErrorLog) TableName() string { return "error_logs" }

type FetchLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	Endpoint       string     `gorm:"size:255;index" json:"endpoint"`
	Method         string     `gorm:"size:10" json:"method"`
	StatusCode     int        `json:"status_code"`
	ResponseTimeMS float64    `json:"response_time_ms"`
	SourceIP       string     `gorm:"size:45" json:"source_ip"`
	UserAgent      string     `gorm:"size:255" json:"user_agent"`
	UserID         *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	IsError        bool       `gorm:"not null;default:false" json:"is_error"`
}

func (FetchLog) TableName() string { return "fetch_logs" }

type ChangeLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	EntityType      string         `gorm:"size:100;index" json:"entity_type"`
	EntityID        string         `gorm:"size:64;index" json:"entity_id"`
	Action          string         `gorm:"size:20;index" json:"action"` // create, update, delete
	OldValues       datatypes.JSON `json:"-"`
	NewValues       datatypes.JSON `json:"-"`
	ChangedByUserID *uuid.UUID     `gorm:"type:uuid" json:"changed_by_user_id,omitempty"`
}

func (ChangeLog) TableName() string { return "change_logs" }
