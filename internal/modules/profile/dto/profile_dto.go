package dto

import (
	"time"

	"anoa.com/p2pcomm/internal/entity"
)

// UpdateProfileInput is the partial-update payload for the caller's own
// profile. Nil fields are left untouched. Username, secondary email, batch
// and student status live on the User row; the rest on the Profile row.
type UpdateProfileInput struct {
	Username         *string                `json:"username" form:"username"`
	SecondaryEmail   *string                `json:"secondary_email" form:"secondary_email" binding:"omitempty,email"`
	Batch            *string                `json:"batch" form:"batch" binding:"omitempty,max=10"`
	IsCurrentStudent *bool                  `json:"is_current_student" form:"is_current_student"`
	FullName         *string                `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	Headline         *string                `json:"headline" form:"headline" binding:"omitempty,max=150"`
	About            *string                `json:"about" form:"about"`
	Location         *string                `json:"location" form:"location" binding:"omitempty,max=100"`
	Experiences      *entity.ExperienceList `json:"experiences"`
	Links            *entity.LinkList       `json:"links"`
	AvatarBase64     *string                `json:"avatar_base64" form:"avatar_base64"`
}

// AvatarUpload carries decoded avatar bytes on their way into validation.
// ContentType is the declared type and may be empty, in which case it is
// sniffed from the bytes.
type AvatarUpload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Avatar is the stored image as served by the raw-bytes endpoint.
type Avatar struct {
	Data        []byte
	ContentType string
}

type ProfileResponse struct {
	Username         string                `json:"username"`
	Email            string                `json:"email"`
	SecondaryEmail   *string               `json:"secondary_email,omitempty"`
	FullName         string                `json:"full_name"`
	Batch            string                `json:"batch"`
	IsCurrentStudent bool                  `json:"is_current_student"`
	Headline         *string               `json:"headline"`
	About            *string               `json:"about"`
	Location         *string               `json:"location"`
	Experiences      entity.ExperienceList `json:"experiences"`
	Links            entity.LinkList       `json:"links"`
	AvatarURL        *string               `json:"avatar_url"`
	UpdatedAt        time.Time             `json:"updated_at"`
}
