package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/casewright/internal/logger"
)

// Environment variables read by the CLI.
const (
	EnvLogFile   = "CASEWRIGHT_LOG_FILE"
	EnvValidator = "CASEWRIGHT_VALIDATOR"
)

// Execute runs the casewright CLI.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		// post-run hooks are skipped on failure
		logger.Error("command failed", logger.Err(err))
		logger.Close()
	}
	return err
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casewright",
		Short: "Generate Playwright API test suites from resolved request cases",
		Long: "casewright turns resolved HTTP request cases into Playwright (TypeScript) test suites " +
			"and validates the responses those suites record.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetFlagErrorFunc(flagUsageError)

	// no shorthand: validate body uses -c for its content
	cmd.PersistentFlags().String("config", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("log-file", "", "Write JSON logs to this file (default $"+EnvLogFile+")")

	for _, sub := range []*cobra.Command{newGenerateCmd(), newValidateCmd(), newInitCmd(), newSchemaCmd()} {
		sub.SetFlagErrorFunc(flagUsageError)
		for _, child := range sub.Commands() {
			child.SetFlagErrorFunc(flagUsageError)
		}
		cmd.AddCommand(sub)
	}

	return cmd
}

// flagUsageError turns cobra flag errors (like unknown flags) into friendly
// usage errors that also show the command's help text.
func flagUsageError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

func initLogging(cmd *cobra.Command, args []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}
	logFile = strings.TrimSpace(logFile)
	if logFile == "" {
		logFile = strings.TrimSpace(os.Getenv(EnvLogFile))
	}
	if !verbose && logFile == "" {
		return nil
	}
	if err := logger.Init(verbose, logFile); err != nil {
		return newUsageError(fmt.Sprintf("logging: %v", err))
	}
	logger.Debug("casewright starting", logger.String("command", cmd.CommandPath()), logger.String("log_file", logFile))
	return nil
}
