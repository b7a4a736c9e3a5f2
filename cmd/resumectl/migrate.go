package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"github.com/resumeforge/resume-builder-backend/internal/gateway"
	"github.com/resumeforge/resume-builder-backend/internal/guest/repository"
	guestservice "github.com/resumeforge/resume-builder-backend/internal/guest/service"
	migdomain "github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	migservice "github.com/resumeforge/resume-builder-backend/internal/migration/service"
	"github.com/resumeforge/resume-builder-backend/internal/resumeapi"
)

func runMigrate(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "draft file (.yaml, .yml or .json)")
	apiURL := fs.String("api-url", os.Getenv("RESUME_API_BASE_URL"), "resume API base URL")
	access := fs.String("access-token", os.Getenv("RESUME_API_ACCESS_TOKEN"), "bearer access token")
	refresh := fs.String("refresh-token", os.Getenv("RESUME_API_REFRESH_TOKEN"), "refresh token used once on 401")
	origin := fs.String("origin", string(migdomain.OriginLogin), "signup or login")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall migration timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *file == "":
		return errors.New("--file is required")
	case *apiURL == "":
		return errors.New("--api-url is required")
	case *access == "":
		return errors.New("--access-token is required")
	}

	doc, err := loadDraft(*file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// The draft goes through the same store the server uses, so the run
	// clears it exactly as it would for a guest.
	drafts := guestservice.NewDraftService(repository.NewMemoryDraftRepository())
	guestID := uuid.New().String()
	if _, err := drafts.Save(ctx, guestID, asPartial(doc)); err != nil {
		return err
	}

	gw := gateway.New(*apiURL, gateway.NewMemoryTokenStore(&oauth2.Token{
		AccessToken:  *access,
		RefreshToken: *refresh,
		TokenType:    "Bearer",
	}), gateway.OnSessionExpired(func() {
		fmt.Fprintln(out, "session expired: log in again and pass fresh tokens")
	}))

	res, err := migservice.NewMigrator(drafts).Run(ctx, guestID, migdomain.Origin(*origin), resumeapi.New(gw),
		func(percent int, label string) {
			fmt.Fprintf(out, "[%3d%%] %s\n", percent, label)
		})
	if err != nil {
		var merr *migservice.Error
		if errors.As(err, &merr) {
			fmt.Fprintln(out, merr.UserMessage())
		}
		return err
	}

	fmt.Fprintf(out, "imported into resume %s (%d entries)\n", res.ResumeID, res.CreationCalls)
	for _, s := range res.Sections {
		if s.Dropped > 0 {
			fmt.Fprintf(out, "  %s: %d skipped for missing required fields\n", s.Section, s.Dropped)
		}
	}
	return nil
}
