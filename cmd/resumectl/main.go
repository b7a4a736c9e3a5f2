// Command resumectl checks guest draft files and imports them into an
// account on the resume API.
//
//	resumectl validate -f draft.yaml
//	resumectl migrate -f draft.yaml --api-url URL --access-token T [--refresh-token R] [--origin signup|login]
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/resumeforge/resume-builder-backend/internal/logger"
)

func main() {
	logger.Init(logger.Config{Level: envOr("LOG_LEVEL", "warn"), Format: "console"})
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "validate":
		err = runValidate(args[1:], stdout)
	case "migrate":
		err = runMigrate(args[1:], stdout)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		usage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: resumectl <validate|migrate> -f <draft.yaml|draft.json> [flags]")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
