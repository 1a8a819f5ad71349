package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	RoleStaff   = "staff"
	RoleStudent = "student"
)

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username         string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	SecondaryEmail   *string   `gorm:"size:100" json:"secondary_email,omitempty"`
	Batch            string    `gorm:"size:10" json:"batch"`
	IsCurrentStudent bool      `gorm:"default:true" json:"is_current_student"`
	FullName         string    `gorm:"size:100" json:"full_name"`
	PasswordHash     string    `gorm:"size:255;not null" json:"-"`
	RoleID           *uint     `json:"role_id"`
	Role             Role      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"role"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	Profile          *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsStaff() bool {
	return u.Role.Name == RoleStaff
}

// Experience is one entry of a profile's work/study history.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Link is a labeled external URL on a profile.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type ExperienceList []Experience

func (l ExperienceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ExperienceList) Scan(value interface{}) error {
	return scanJSONList(value, l)
}

type LinkList []Link

func (l LinkList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LinkList) Scan(value interface{}) error {
	return scanJSONList(value, l)
}

func scanJSONList(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T for json list", value)
	}
}

// Profile is the one-to-one extension of a User. It is created in the same
// transaction as its owner and cascade-deleted with it. Avatar bytes live
// inline on the row; "has avatar" means AvatarData is non-empty.
type Profile struct {
	UserID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Headline          *string        `gorm:"size:150" json:"headline,omitempty"`
	About             *string        `gorm:"type:text" json:"about,omitempty"`
	Location          *string        `gorm:"size:100" json:"location,omitempty"`
	Experiences       ExperienceList `gorm:"type:jsonb;default:'[]'" json:"experiences"`
	Links             LinkList       `gorm:"type:jsonb;default:'[]'" json:"links"`
	AvatarData        []byte         `gorm:"type:bytea" json:"-"`
	AvatarContentType string         `gorm:"size:50" json:"-"`
	AvatarFileName    string         `gorm:"size:255" json:"-"`
	AvatarSize        int64          `json:"-"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) HasAvatar() bool {
	return len(p.AvatarData) > 0
}
