package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProfileQuiz stores one user's PII-training quiz responses as an ordered JSON
// array of {question, response, type} objects. One row per user.
type ProfileQuiz struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ProfileData datatypes.JSON `gorm:"not null" json:"profile_data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProfileQuiz) TableName() string { return "profile_quizzes" }
