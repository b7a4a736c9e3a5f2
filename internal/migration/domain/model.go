package domain

import "time"

// Origin says which auth flow triggered the migration.
type Origin string

const (
	OriginSignup Origin = "signup"
	OriginLogin  Origin = "login"
)

func (o Origin) Valid() bool {
	return o == OriginSignup || o == OriginLogin
}

// Status constants for migration runs
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// MigrationRun is the live, pollable state of one migration.
type MigrationRun struct {
	ID             string          `json:"id"`
	GuestID        string          `json:"guest_id"`
	Origin         Origin          `json:"origin"`
	Status         string          `json:"status"`
	Percent        int             `json:"percent"`
	Label          string          `json:"label,omitempty"`
	ResumeID       string          `json:"resume_id,omitempty"`
	Error          string          `json:"error,omitempty"`
	SessionExpired bool            `json:"session_expired,omitempty"`
	Sections       []SectionReport `json:"sections,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Terminal reports whether the run has finished either way.
func (r *MigrationRun) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// SectionReport summarizes one replayed section.
type SectionReport struct {
	Section string `json:"section"`
	Created int    `json:"created"`
	Dropped int    `json:"dropped,omitempty"`
}

// AuditRecord is the durable row kept per migration run.
type AuditRecord struct {
	ID            string
	RunID         string
	GuestID       string
	Origin        Origin
	Status        string
	ResumeID      string
	Error         string
	RollbackError string
	Sections      []SectionReport
	StartedAt     time.Time
	FinishedAt    *time.Time
}
