package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the credentials submitted at login. Identifier is a
// NIM for students and a NIP for staff.
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required,max=50"`
	Password   string `json:"password" binding:"required,max=72"`
}

// LoginResult contains the issued access token
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public view of a login credential
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Identifier  string     `json:"identifier"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	StudentID   *uuid.UUID `json:"mahasiswa_id,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// StudentSummary is the part of the student record shown next to the session
type StudentSummary struct {
	ID         uuid.UUID `json:"id"`
	NIM        string    `json:"nim"`
	Name       string    `json:"nama_mhs"`
	Prodi      string    `json:"prodi"`
	TotalPoin  int       `json:"total_poin"`
	TargetPoin int       `json:"target_poin"`
	FotoFileID string    `json:"foto_file_id,omitempty"`
}

// MeResult is returned by the current-session endpoint
type MeResult struct {
	User    UserInfo        `json:"user"`
	Student *StudentSummary `json:"mahasiswa,omitempty"`
}

// ChangePasswordInput contains the old and new password
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// SeedAdminInput describes the bootstrap administrator
type SeedAdminInput struct {
	NIP      string
	Name     string
	Password string
}
