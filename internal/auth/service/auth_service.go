package service

import (
	"context"
	"errors"
	"strings"

	"github.com/resumeforge/resume-builder-backend/internal/auth/domain"
	"github.com/resumeforge/resume-builder-backend/internal/logger"
	migdomain "github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
	"golang.org/x/oauth2"
)

// AccountAPI is the auth subtree of the resume API.
type AccountAPI interface {
	Register(ctx context.Context, req resumeapi.RegisterRequest) (*resumeapi.AuthResponse, error)
	Login(ctx context.Context, req resumeapi.LoginRequest) (*resumeapi.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// ClientFactory returns an AccountAPI acting with tok, which may be nil.
type ClientFactory func(tok *oauth2.Token) AccountAPI

// Migrations starts guest draft imports.
type Migrations interface {
	Start(ctx context.Context, guestID string, origin migdomain.Origin, tok *oauth2.Token) (*migdomain.MigrationRun, error)
}

type AuthService struct {
	newClient  ClientFactory
	migrations Migrations
}

func NewAuthService(newClient ClientFactory, migrations Migrations) *AuthService {
	return &AuthService{
		newClient:  newClient,
		migrations: migrations,
	}
}

// Register creates the account and, when asked, starts importing the
// guest draft with origin signup.
func (s *AuthService) Register(ctx context.Context, guestID string, req *domain.RegisterRequest) (*domain.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	resp, err := s.newClient(nil).Register(ctx, resumeapi.RegisterRequest{
		Email:    email,
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
	})
	if err != nil {
		return nil, err
	}

	sess := newSession(resp)
	if req.MigrateGuestDraft {
		s.startMigration(ctx, guestID, migdomain.OriginSignup, resp, sess)
	}
	return sess, nil
}

// Login authenticates and, when asked, starts importing the guest draft
// with origin login.
func (s *AuthService) Login(ctx context.Context, guestID string, req *domain.LoginRequest) (*domain.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	resp, err := s.newClient(nil).Login(ctx, resumeapi.LoginRequest{Email: email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	sess := newSession(resp)
	if req.MigrateGuestDraft {
		s.startMigration(ctx, guestID, migdomain.OriginLogin, resp, sess)
	}
	return sess, nil
}

// Logout revokes the refresh token. tok carries the caller's access token.
func (s *AuthService) Logout(ctx context.Context, tok *oauth2.Token, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" && tok != nil {
		refreshToken = tok.RefreshToken
	}
	if refreshToken == "" {
		return domain.ErrMissingRefresh
	}
	return s.newClient(tok).Logout(ctx, refreshToken)
}

// startMigration never fails the login: a draft that cannot be imported is
// reported on the session and stays in the guest store.
func (s *AuthService) startMigration(ctx context.Context, guestID string, origin migdomain.Origin, resp *resumeapi.AuthResponse, sess *domain.Session) {
	if s.migrations == nil || guestID == "" {
		return
	}

	run, err := s.migrations.Start(ctx, guestID, origin, resp.OAuth2Token())
	switch {
	case err == nil:
		sess.Migration = run
	case errors.Is(err, migdomain.ErrNothingToMigrate):
		// empty draft; nothing to report
	default:
		logger.For(ctx).LogWarnf("auth.start_migration", "guest %s: %v", guestID, err)
		sess.MigrationError = err.Error()
	}
}

func newSession(resp *resumeapi.AuthResponse) *domain.Session {
	tok := resp.OAuth2Token()
	return &domain.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    tok.TokenType,
		User:         resp.User,
	}
}
