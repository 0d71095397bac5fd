package types

import "time"

// GateStatus is the process-wide write gate. At most one row exists; it is
// created lazily on first read. Global pause blocks all profile-data writes;
// the matchmakers pair blocks only the matchmakers surface. Last write wins.
type GateStatus struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Status string `gorm:"size:50;not null;default:idle" json:"status"` // idle, paused

	IsPaused    bool   `gorm:"not null;default:false" json:"is_paused"`
	PauseReason string `gorm:"size:255" json:"pause_reason"`

	MatchmakersPaused      bool   `gorm:"not null;default:false" json:"matchmakers_paused"`
	MatchmakersPauseReason string `gorm:"size:255" json:"matchmakers_pause_reason"`

	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

func (GateStatus) TableName() string { return "gate_status" }
