// Command goseal fingerprints files and manages credential hashes from the
// shell, using the same configuration as the HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/reporter"
	"github.com/spf13/cobra"
)

func main() {
	if _, err := reporter.Init(reporter.Config{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),
		Release:     version,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "error reporter disabled:", err)
	}

	code := run(newRootCommand())
	reporter.Flush(2 * time.Second)
	os.Exit(code)
}

func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ee.err)
		}
		return ee.code
	}

	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	return 1
}

// exitError carries the process exit code and an optional message.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }
