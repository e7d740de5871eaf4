package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

const defaultConfigFile = "casewright.yaml"

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample casewright configuration file",
		Long:  "Scaffold a commented casewright configuration file that documents the generate options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, stdout io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every generate option.
const sampleConfigYAML = `# casewright configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Request-case documents (YAML or JSON). One test file is written per document.
# input:
#   - ./cases/pets.yaml
#   - ./cases/store.yaml

# Output directory for the generated suites.
# out: ./api-tests

# Suite name; only valid with a single input. Defaults to the document name or file name.
# name: pets

# Server URI used by every test instead of the servers named by the cases.
# server: https://staging.example.com/api

# Validate response headers and bodies by running the validator command.
# validateResponses: false

# Responses document (OpenAPI) the generated tests validate against.
# Defaults to <suite>-responses.json next to the tests.
# responsesPath: ./openapi.yaml

# Command the generated tests run for validation. Defaults to $CASEWRIGHT_VALIDATOR or casewright.
# validatorCommand: npx casewright

# Accept any server certificate.
# trustServer: false

# Also write package.json, playwright.config.ts, tsconfig.json and .editorconfig.
# scaffold: false

# npm package name for the scaffold.
# packageName: pets-api-tests

# Preview planned outputs and diffs without writing files.
# dryRun: false

# Write into a non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`
