package pwemitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/casewright/internal/logger"
	"github.com/mark3labs/casewright/internal/requestcase"
	"github.com/mark3labs/casewright/internal/testwriter"
)

// Options controls how suites are rendered and published.
type Options struct {
	OutDir      string // required; target directory for the test files
	PackageName string // scaffold package name; derived from the first suite when empty
	Scaffold    bool   // also write package.json, playwright.config.ts, tsconfig.json
	Force       bool   // allow writing into a non-empty directory
	DryRun      bool   // plan only
	Diff        io.Writer

	ServerURI         string
	ValidateResponses bool
	TrustServer       bool
	ResponsesPath     string // shared responses document; per suite default when empty
	ValidatorCommand  string

	Fs afero.Fs // OS filesystem when nil
}

// Action says what publishing does to a planned file.
type Action string

const (
	Create    Action = "create"
	Update    Action = "update"
	Unchanged Action = "unchanged"
)

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
	Action  Action
}

// Result returns the planned files and the resolved package name.
type Result struct {
	PackageName string
	Planned     []PlannedFile
}

// SuiteFile is the output file name of a suite.
func SuiteFile(name string) string {
	return testwriter.TestName(name) + ".spec.ts"
}

// Emit renders every suite, then writes the whole set. If any suite fails
// nothing is written.
func Emit(ctx context.Context, suites []*requestcase.Suite, opts Options) (*Result, error) {
	if len(suites) == 0 {
		return nil, fmt.Errorf("pwemitter: no suites to emit")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("pwemitter: OutDir is required")
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	files, err := renderSuites(ctx, suites, opts)
	if err != nil {
		return nil, err
	}

	pkgName := sanitizePackageName(opts.PackageName)
	if pkgName == "" {
		pkgName = sanitizePackageName(suites[0].Name + "-api-tests")
	}
	if opts.Scaffold {
		for rel, content := range scaffoldFiles(pkgName) {
			if _, dup := files[rel]; dup {
				return nil, fmt.Errorf("pwemitter: suite file %s collides with the project scaffold", rel)
			}
			files[rel] = content
		}
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		existing, err := afero.ReadFile(fsys, filepath.Join(opts.OutDir, filepath.FromSlash(rel)))
		action := Create
		switch {
		case err == nil && bytes.Equal(existing, files[rel]):
			action = Unchanged
		case err == nil:
			action = Update
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644, Action: action})
		logger.Debug("planned file", logger.String("path", rel), logger.String("action", string(action)))

		if opts.DryRun && opts.Diff != nil && action != Unchanged {
			if err := writeDiff(opts.Diff, rel, existing, files[rel]); err != nil {
				return nil, err
			}
		}
	}

	if !opts.DryRun {
		if err := writeFiles(fsys, opts.OutDir, files, planned, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{PackageName: pkgName, Planned: planned}, nil
}

// renderSuites generates every suite concurrently. Each suite has its own
// assembler, so the only shared state is the result slice.
func renderSuites(ctx context.Context, suites []*requestcase.Suite, opts Options) (map[string][]byte, error) {
	names := make([]string, len(suites))
	seen := make(map[string]string, len(suites))
	for i, s := range suites {
		if testwriter.TestName(s.Name) == "" {
			return nil, fmt.Errorf("pwemitter: suite from %s has no usable name", s.Source)
		}
		names[i] = SuiteFile(s.Name)
		if prev, dup := seen[names[i]]; dup {
			return nil, fmt.Errorf("pwemitter: suites %q and %q both render to %s", prev, s.Name, names[i])
		}
		seen[names[i]] = s.Name
	}

	out := make([][]byte, len(suites))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range suites {
		i, s := i, s
		g.Go(func() error {
			src, err := testwriter.Generate(gctx, s.Cases, testwriter.Config{
				Name:              s.Name,
				ServerURI:         opts.ServerURI,
				ValidateResponses: opts.ValidateResponses,
				TrustServer:       opts.TrustServer,
				ResponsesPath:     opts.ResponsesPath,
				ValidatorCommand:  opts.ValidatorCommand,
			})
			if err != nil {
				return fmt.Errorf("suite %q: %w", s.Name, err)
			}
			out[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(suites))
	for i, name := range names {
		files[name] = out[i]
	}
	return files, nil
}

func writeDiff(w io.Writer, rel string, existing, content []byte) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(existing)),
		B:        difflib.SplitLines(string(content)),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", rel, err)
	}
	_, err = io.WriteString(w, text)
	return err
}

func writeFiles(fsys afero.Fs, outDir string, files map[string][]byte, planned []PlannedFile, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := fsys.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := afero.ReadDir(fsys, abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("pwemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for _, pf := range planned {
		if pf.Action == Unchanged {
			continue
		}
		p := filepath.Join(abs, filepath.FromSlash(pf.RelPath))
		if err := fsys.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := afero.WriteFile(fsys, tmp, files[pf.RelPath], pf.Mode); err != nil {
			return fmt.Errorf("write temp %s: %w", pf.RelPath, err)
		}
		if err := fsys.Rename(tmp, p); err != nil {
			_ = fsys.Remove(tmp)
			return fmt.Errorf("rename %s: %w", pf.RelPath, err)
		}
		logger.Debug("published file", logger.String("path", p))
	}
	return nil
}

func sanitizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-.")
}
