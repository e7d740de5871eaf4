package testwriter

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/mark3labs/casewright/internal/encoding"
	"github.com/mark3labs/casewright/internal/logger"
	"github.com/mark3labs/casewright/internal/requestcase"
)

// State is the phase of suite generation.
type State int

const (
	Scanning State = iota
	Declaring
	Emitting
	Done
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Declaring:
		return "declaring"
	case Emitting:
		return "emitting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config carries the per-file generation settings.
type Config struct {
	Name              string // suite base name; the test name is derived from it
	ServerURI         string // overrides every case's server when set
	ValidateResponses bool
	TrustServer       bool
	ResponsesPath     string // responses definition file passed to the validator
	ValidatorCommand  string

	Converters *encoding.Registry // DefaultRegistry when nil
	Assertions AssertionEmitter   // PlaywrightAssertions when nil
}

// Assembler generates one suite file. The scan pass runs every case through
// the real writers into a digest so the dependency flags are final before
// any declaration is written; the emit pass then writes the same cases for
// real. Each Assembler owns its Depends, so separate files may be generated
// concurrently.
type Assembler struct {
	cfg     Config
	cases   []requestcase.RequestCase
	deps    *Depends
	state   State
	writer  *caseWriter
	digests []uint64
}

// NewAssembler prepares an assembler for the cases of one file.
func NewAssembler(cases []requestcase.RequestCase, cfg Config) *Assembler {
	if cfg.Converters == nil {
		cfg.Converters = encoding.DefaultRegistry()
	}
	if cfg.Assertions == nil {
		cfg.Assertions = PlaywrightAssertions{ValidatorCommand: cfg.ValidatorCommand}
	}
	if cfg.ResponsesPath == "" {
		cfg.ResponsesPath = TestName(cfg.Name) + "-responses.json"
	}
	return &Assembler{
		cfg:   cfg,
		cases: cases,
		deps:  NewDepends(cfg.ValidateResponses, cfg.TrustServer),
		state: Scanning,
		writer: &caseWriter{
			serverURI:  cfg.ServerURI,
			converters: cfg.Converters,
			assertions: cfg.Assertions,
		},
	}
}

// Depends exposes the tracker, final once Generate returns.
func (a *Assembler) Depends() *Depends { return a.deps }

// State reports the current phase.
func (a *Assembler) State() State { return a.state }

// Generate runs both passes and returns the complete file. On error nothing
// is returned; the caller never sees a partial suite.
func (a *Assembler) Generate(ctx context.Context) ([]byte, error) {
	if a.state != Scanning {
		return nil, fmt.Errorf("suite %q already generated", a.cfg.Name)
	}
	testName := TestName(a.cfg.Name)

	logger.Debug("scan started", logger.String("suite", testName), logger.Int("cases", len(a.cases)))
	if err := a.scan(ctx); err != nil {
		return nil, err
	}
	logger.Debug("scan finished", logger.String("suite", testName), logger.Strings("flags", a.deps.Flags()))

	a.state = Declaring
	a.deps.Seal()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	writeDocstring(w, &a.cfg, testName, len(a.cases))
	writeImports(w, &a.cfg, a.deps)
	writeDeclarations(w, a.cfg.Assertions, a.deps)

	a.state = Emitting
	if err := a.emit(ctx, &buf); err != nil {
		return nil, err
	}
	if err := a.deps.Err(); err != nil {
		return nil, err
	}

	a.state = Done
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Assembler) scan(ctx context.Context) error {
	a.digests = make([]uint64, len(a.cases))
	for i := range a.cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := fnv.New64a()
		if err := a.renderCase(h, &a.cases[i], Scanning); err != nil {
			return err
		}
		a.digests[i] = h.Sum64()
	}
	return nil
}

func (a *Assembler) emit(ctx context.Context, out io.Writer) error {
	for i := range a.cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		var body bytes.Buffer
		h := fnv.New64a()
		if err := a.renderCase(io.MultiWriter(&body, h), &a.cases[i], Emitting); err != nil {
			return err
		}
		if h.Sum64() != a.digests[i] {
			return newCaseRenderError(&a.cases[i], Emitting, fmt.Errorf("case body differs between scan and emit passes"))
		}
		if _, err := body.WriteTo(out); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) renderCase(out io.Writer, c *requestcase.RequestCase, phase State) error {
	w := NewWriter(out)
	if err := a.writer.write(w, c, a.deps); err != nil {
		return newCaseRenderError(c, phase, err)
	}
	if err := w.Err(); err != nil {
		return newCaseRenderError(c, phase, err)
	}
	return nil
}

// Generate renders the suite for the given cases in one call.
func Generate(ctx context.Context, cases []requestcase.RequestCase, cfg Config) ([]byte, error) {
	return NewAssembler(cases, cfg).Generate(ctx)
}
