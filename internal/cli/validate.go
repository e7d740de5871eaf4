package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/casewright/internal/spec"
	"github.com/mark3labs/casewright/internal/validate"
)

// ValidateConfig captures the options of the validate subcommands.
type ValidateConfig struct {
	Kind        validate.Kind
	Operation   string
	Path        string
	Status      int
	ContentType string
	Input       string // headers or body source, "-" for stdin
	Responses   string // responses document, "-" for stdin
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a recorded response against an OpenAPI responses document",
		Long: "Validate the headers or body of a response against the responses declared in an OpenAPI document. " +
			"Generated suites run these commands when response validation is enabled. " +
			"Exits silently when the response is valid.",
	}
	cmd.AddCommand(newValidateKindCmd(validate.Headers), newValidateKindCmd(validate.Body))
	return cmd
}

func newValidateKindCmd(kind validate.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:  string(kind) + " [responses-file]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveValidateConfig(cmd, kind, args)
			if err != nil {
				return err
			}
			return runValidate(cmd.Context(), cfg, cmd.InOrStdin())
		},
	}

	flags := cmd.Flags()
	flags.StringP("operation", "r", "", "Request method of the operation (required)")
	flags.StringP("path", "p", "", "Path template of the operation (required)")
	flags.IntP("status", "s", 200, "Response status code")
	switch kind {
	case validate.Headers:
		cmd.Short = "Validate response headers"
		cmd.Example = `  casewright validate headers -r GET -p '/pets/{id}' -s 200 -h headers.json openapi.yaml`
		// -h is the headers source here, so help is long-form only
		flags.Bool("help", false, "help for headers")
		flags.StringP("headers", "h", "", `Headers as a JSON array of {"name": "value"} objects, - for stdin`)
	case validate.Body:
		cmd.Short = "Validate a response body"
		cmd.Example = `  casewright validate body -r GET -p '/pets/{id}' -s 200 -f application/json -c body.json openapi.yaml`
		flags.StringP("content-type", "f", "", "Content type of the response")
		flags.StringP("content", "c", "", "Response body file, - for stdin (required)")
	}
	return cmd
}

func resolveValidateConfig(cmd *cobra.Command, kind validate.Kind, args []string) (*ValidateConfig, error) {
	flags := cmd.Flags()
	cfg := &ValidateConfig{Kind: kind, Responses: "-"}
	var err error
	if cfg.Operation, err = flags.GetString("operation"); err != nil {
		return nil, err
	}
	if cfg.Path, err = flags.GetString("path"); err != nil {
		return nil, err
	}
	if cfg.Status, err = flags.GetInt("status"); err != nil {
		return nil, err
	}
	switch kind {
	case validate.Headers:
		cfg.Input, err = flags.GetString("headers")
	case validate.Body:
		if cfg.ContentType, err = flags.GetString("content-type"); err != nil {
			return nil, err
		}
		cfg.Input, err = flags.GetString("content")
	}
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg.Responses = args[0]
	}

	cfg.Operation = strings.ToUpper(strings.TrimSpace(cfg.Operation))
	cfg.Path = strings.TrimSpace(cfg.Path)
	cfg.Input = strings.TrimSpace(cfg.Input)
	cfg.Responses = strings.TrimSpace(cfg.Responses)

	switch {
	case cfg.Operation == "":
		return nil, newUsageError(fmt.Sprintf("validate %s: missing option -r (operation)", kind))
	case cfg.Path == "":
		return nil, newUsageError(fmt.Sprintf("validate %s: missing option -p (path)", kind))
	case kind == validate.Body && cfg.Input == "":
		return nil, newUsageError("validate body: missing option -c (content)")
	case cfg.Status < 100 || cfg.Status > 599:
		return nil, newUsageError(fmt.Sprintf("validate %s: invalid status code %d", kind, cfg.Status))
	case cfg.Input == "-" && cfg.Responses == "-":
		return nil, newUsageError(fmt.Sprintf("validate %s: the responses document and the %s cannot both come from standard input", kind, kind))
	}
	return cfg, nil
}

func runValidate(ctx context.Context, cfg *ValidateConfig, stdin io.Reader) error {
	doc, err := spec.Load(ctx, cfg.Responses, spec.WithStdin(stdin))
	if err != nil {
		return describeSpecError(err)
	}

	var input []byte
	switch cfg.Input {
	case "":
	case "-":
		input, err = io.ReadAll(stdin)
	default:
		input, err = os.ReadFile(cfg.Input)
	}
	if err != nil {
		return newUsageError(fmt.Sprintf("validate %s: read %s: %v", cfg.Kind, cfg.Kind, err))
	}

	v := validate.New(doc)
	switch cfg.Kind {
	case validate.Headers:
		headers, err := validate.ParseHeaders(input)
		if err != nil {
			return newUsageError(fmt.Sprintf("validate headers: %v", err))
		}
		return v.ValidateHeaders(ctx, cfg.Operation, cfg.Path, cfg.Status, headers)
	default:
		return v.ValidateBody(ctx, cfg.Operation, cfg.Path, cfg.Status, cfg.ContentType, input)
	}
}

func describeSpecError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("responses: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}
