package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Profile data is partitioned into named sections. The set is closed; anything
// else is rejected before it reaches storage.
const (
	SectionBasic       = "basic"       // name, age, general identity fields
	SectionContact     = "contact"     // email, phone
	SectionPreferences = "preferences" // matchmaking preferences
	SectionSecurity    = "security"    // verification-related fields
	SectionProfile     = "profile"     // profile setup, quiz payloads, bio
)

var profileSections = map[string]struct{}{
	SectionBasic:       {},
	SectionContact:     {},
	SectionPreferences: {},
	SectionSecurity:    {},
	SectionProfile:     {},
}

// ValidSection reports whether name is a member of the fixed section set.
func ValidSection(name string) bool {
	_, ok := profileSections[name]
	return ok
}

// SectionNames returns the fixed section set, for error messages.
func SectionNames() []string {
	return []string{SectionBasic, SectionContact, SectionPreferences, SectionSecurity, SectionProfile}
}

// ProfileSection holds one section of a user's profile data as an opaque JSON
// document. At most one row exists per (user_id, section); the payload
// structure is a contract between frontend callers, not enforced here.
type ProfileSection struct {
	ID      uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_profile_sections_user_section" json:"user_id"`
	User    *User              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Section string             `gorm:"size:32;not null;uniqueIndex:idx_profile_sections_user_section" json:"section"`
	Data    datatypes.JSONMap  `gorm:"not null" json:"data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProfileSection) TableName() string { return "profile_sections" }
