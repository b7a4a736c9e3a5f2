package domain

import (
	"encoding/json"

	migdomain "github.com/resumeforge/resume-builder-backend/internal/migration/domain"
)

// RegisterRequest creates an account on the resume API. When
// MigrateGuestDraft is set the caller's guest draft is imported afterwards.
type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	FullName          string `json:"full_name,omitempty"`
	MigrateGuestDraft bool   `json:"migrate_guest_draft,omitempty"`
}

type LoginRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	MigrateGuestDraft bool   `json:"migrate_guest_draft,omitempty"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Session is what the frontend keeps after a successful login or register.
type Session struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresIn    int64           `json:"expires_in,omitempty"`
	TokenType    string          `json:"token_type,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`

	// Migration is the import run started for the guest draft, if any.
	Migration *migdomain.MigrationRun `json:"migration,omitempty"`
	// MigrationError explains why a requested import did not start. The
	// account itself is unaffected.
	MigrationError string `json:"migration_error,omitempty"`
}
