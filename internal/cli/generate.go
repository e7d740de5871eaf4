package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/casewright/internal/emitter/pwemitter"
	"github.com/mark3labs/casewright/internal/logger"
	"github.com/mark3labs/casewright/internal/requestcase"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Inputs            []string
	Out               string
	Name              string
	Server            string
	ValidateResponses bool
	TrustServer       bool
	ResponsesPath     string
	ValidatorCommand  string
	Scaffold          bool
	PackageName       string
	ConfigPath        string
	DryRun            bool
	Force             bool
	Verbose           bool
}

const defaultOutDir = "api-tests"

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Out:              defaultOutDir,
		ValidatorCommand: strings.TrimSpace(os.Getenv(EnvValidator)),
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Playwright test suites from request-case documents",
		Long: "Generate one Playwright test file per request-case document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  casewright generate --input cases.yaml --out ./tests
  casewright generate --input pets.yaml --input store.yaml --validate-responses --scaffold
  casewright --config casewright.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringArray("input", nil, "Request-case document (YAML or JSON, - for stdin); repeatable")
	flags.String("out", "", "Output directory (default "+defaultOutDir+")")
	flags.String("name", "", "Suite name when generating from a single input")
	flags.String("server", "", "Server URI used by every test, overriding the cases")
	flags.Bool("validate-responses", false, "Validate response headers and bodies against the responses document")
	flags.Bool("trust-server", false, "Accept any server certificate")
	flags.String("responses-path", "", "Responses document the generated tests validate against")
	flags.String("validator-command", "", "Command the generated tests run to validate responses (default $"+EnvValidator+" or casewright)")
	flags.Bool("scaffold", false, "Also write package.json, playwright.config.ts and tsconfig.json")
	flags.String("package-name", "", "npm package name for the scaffold")
	flags.Bool("dry-run", false, "Preview planned outputs and diffs without writing files")
	flags.Bool("force", false, "Write into a non-empty output directory")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetStringArray("input")
		if err != nil {
			return err
		}
		cfg.Inputs = value
	}
	strs := []struct {
		flag string
		dst  *string
	}{
		{"out", &cfg.Out},
		{"name", &cfg.Name},
		{"server", &cfg.Server},
		{"responses-path", &cfg.ResponsesPath},
		{"validator-command", &cfg.ValidatorCommand},
		{"package-name", &cfg.PackageName},
	}
	for _, s := range strs {
		if !flags.Changed(s.flag) {
			continue
		}
		value, err := flags.GetString(s.flag)
		if err != nil {
			return err
		}
		*s.dst = strings.TrimSpace(value)
	}
	bools := []struct {
		flag string
		dst  *bool
	}{
		{"validate-responses", &cfg.ValidateResponses},
		{"trust-server", &cfg.TrustServer},
		{"scaffold", &cfg.Scaffold},
		{"dry-run", &cfg.DryRun},
		{"force", &cfg.Force},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if !flags.Changed(b.flag) {
			continue
		}
		value, err := flags.GetBool(b.flag)
		if err != nil {
			return err
		}
		*b.dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Inputs = sanitizeList(c.Inputs)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = defaultOutDir
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Server = strings.TrimSpace(c.Server)
	c.ResponsesPath = strings.TrimSpace(c.ResponsesPath)
	c.ValidatorCommand = strings.TrimSpace(c.ValidatorCommand)
	c.PackageName = strings.TrimSpace(c.PackageName)
}

func (c *GenerateConfig) validate() error {
	if len(c.Inputs) == 0 {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Name != "" && len(c.Inputs) > 1 {
		return newUsageError("generate: --name applies to a single --input only")
	}
	if c.ResponsesPath != "" && !c.ValidateResponses {
		return newUsageError("generate: --responses-path requires --validate-responses")
	}
	if c.PackageName != "" && !c.Scaffold {
		return newUsageError("generate: --package-name requires --scaffold")
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig, out io.Writer) error {
	suites := make([]*requestcase.Suite, 0, len(cfg.Inputs))
	for _, input := range cfg.Inputs {
		suite, err := requestcase.Load(ctx, input)
		if err != nil {
			return describeLoadError(err)
		}
		logger.Debug("request cases loaded", logger.String("input", input), logger.Int("cases", len(suite.Cases)))
		suites = append(suites, suite)
	}
	if cfg.Name != "" {
		suites[0].Name = cfg.Name
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	opts := pwemitter.Options{
		OutDir:            cfg.Out,
		PackageName:       cfg.PackageName,
		Scaffold:          cfg.Scaffold,
		Force:             cfg.Force,
		DryRun:            cfg.DryRun,
		ServerURI:         cfg.Server,
		ValidateResponses: cfg.ValidateResponses,
		TrustServer:       cfg.TrustServer,
		ResponsesPath:     cfg.ResponsesPath,
		ValidatorCommand:  cfg.ValidatorCommand,
	}
	var diffs strings.Builder
	if cfg.DryRun {
		opts.Diff = &diffs
	}
	logger.Debug("emitting suites",
		logger.Int("suites", len(suites)),
		logger.Bool("validate_responses", cfg.ValidateResponses),
		logger.Bool("scaffold", cfg.Scaffold),
		logger.Bool("dry_run", cfg.DryRun))
	res, err := pwemitter.Emit(ctx, suites, opts)
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	logger.Info("suites generated", logger.String("out", absOut), logger.Int("files", len(res.Planned)))

	if cfg.DryRun {
		printPlan(out, absOut, res.Planned)
		if diffs.Len() > 0 {
			fmt.Fprintf(out, "\n%s", diffs.String())
		}
		return nil
	}
	for _, pf := range res.Planned {
		if pf.Action != pwemitter.Unchanged {
			fmt.Fprintf(out, "Wrote %s\n", filepath.Join(absOut, filepath.FromSlash(pf.RelPath)))
		}
	}
	return nil
}

func describeLoadError(err error) error {
	var le *requestcase.LoadError
	if !errors.As(err, &le) {
		return err
	}
	msg := fmt.Sprintf("request cases: %s", le.Message)
	if le.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, le.Location)
	}
	if le.Pointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, le.Pointer)
	}
	return newUsageError(msg)
}

func printPlan(out io.Writer, outDir string, planned []pwemitter.PlannedFile) {
	fmt.Fprintf(out, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(out, "- %s (%s, %d bytes)\n", p.RelPath, p.Action, p.Size)
	}
}

func wrapOutputError(err error, outDir string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	strs := map[string]*string{
		"out":              &cfg.Out,
		"name":             &cfg.Name,
		"server":           &cfg.Server,
		"responsespath":    &cfg.ResponsesPath,
		"validatorcommand": &cfg.ValidatorCommand,
		"packagename":      &cfg.PackageName,
	}
	bools := map[string]*bool{
		"validateresponses": &cfg.ValidateResponses,
		"trustserver":       &cfg.TrustServer,
		"scaffold":          &cfg.Scaffold,
		"dryrun":            &cfg.DryRun,
		"force":             &cfg.Force,
		"verbose":           &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		switch normalized {
		case "input", "inputs":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			cfg.Inputs = list
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
