package user

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	ProfilePicture       *string    `json:"profile_picture,omitempty"`
	PhoneNumber          *string    `json:"phone_number,omitempty"`
	IsVerified           bool       `json:"is_verified"`
	VerificationToken    *string    `json:"-"`
	ResetPasswordToken   *string    `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	AgreeTerms           bool       `json:"agree_terms"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
