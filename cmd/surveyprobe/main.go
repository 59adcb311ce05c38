package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

const (
	exitFailed = 1
	exitSetup  = 2
)

var rootCmd = &cobra.Command{
	Use:   "surveyprobe",
	Short: "Browser-driven end-to-end checks for the survey management application",
	Long: `surveyprobe drives a real Chromium through the workflows of the survey
management application: signup and login, surveys, questions, roles,
departments, teams and users. Scenarios run in a fixed order and share the
entities they create.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var envFileFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Optional env file with configuration variables")
	rootCmd.PersistentFlags().String("fixtures", "", "YAML fixtures file merged over the built-in values (env FIXTURES)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	os.Exit(exitSetup)
}
