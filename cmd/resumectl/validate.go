package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	guestdomain "github.com/resumeforge/resume-builder-backend/internal/guest/domain"
	migservice "github.com/resumeforge/resume-builder-backend/internal/migration/service"
)

func runValidate(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	file := fs.StringP("file", "f", "", "draft file (.yaml, .yml or .json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("--file is required")
	}

	doc, err := loadDraft(*file)
	if err != nil {
		return err
	}

	plan := migservice.BuildPlan(doc)
	fmt.Fprintf(out, "has content:  %t\n", guestdomain.HasContent(doc))
	fmt.Fprintf(out, "resume title: %v\n", plan.Resume["title"])
	for _, l := range plan.Lists {
		fmt.Fprintf(out, "%-15s kept %d, dropped %d\n", l.Section+":", len(l.Items), l.Dropped)
	}
	fmt.Fprintf(out, "creation calls: %d\n", plan.CreationCalls())
	return nil
}
