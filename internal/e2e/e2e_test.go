package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	cli "github.com/mark3labs/casewright/internal/cli"
)

// two small request-case documents, one suite each
const petsCases = "" +
	"name: pets\n" +
	"server: http://localhost:3000/api\n" +
	"cases:\n" +
	"  - name: \"Species.Is=cat&Limit.Is=10\"\n" +
	"    operation: get\n" +
	"    path: /pets\n" +
	"    params:\n" +
	"      - {name: species, in: query, value: {type: string, value: cat}}\n" +
	"      - {name: limit, in: query, value: {type: integer, value: 10}}\n" +
	"  - name: \"Pet.Name.Is=Tom\"\n" +
	"    operation: post\n" +
	"    path: /pets\n" +
	"    body:\n" +
	"      mediaType: application/json\n" +
	"      value:\n" +
	"        type: object\n" +
	"        properties:\n" +
	"          - {name: name, value: {type: string, value: Tom}}\n" +
	"    auth:\n" +
	"      - {type: apiKey, in: header, name: X-Api-Key}\n" +
	"  - name: \"Pet.Name.Is=\"\n" +
	"    operation: post\n" +
	"    path: /pets\n" +
	"    failure: true\n" +
	"    invalidInput: \"Pet.Name.Is=\"\n"

const storeCases = "" +
	"cases:\n" +
	"  - operation: delete\n" +
	"    path: /orders/{orderId}\n" +
	"    server: http://localhost:3000/store\n" +
	"    params:\n" +
	"      - {name: orderId, in: path, value: {type: integer, value: 42}}\n" +
	"    auth:\n" +
	"      - {type: httpBearer}\n" +
	"    authFailure: true\n"

func writeTempCases(t *testing.T) (pets, store string) {
	t.Helper()
	dir := t.TempDir()
	pets = filepath.Join(dir, "pets.yaml")
	store = filepath.Join(dir, "store.yaml")
	if err := os.WriteFile(pets, []byte(petsCases), 0o600); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	if err := os.WriteFile(store, []byte(storeCases), 0o600); err != nil {
		t.Fatalf("write cases: %v", err)
	}
	return pets, store
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		list = append(list, rel)
		_, _ = h.Write([]byte(rel))
		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		_, _ = h.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(list)
	return list, hex.EncodeToString(h.Sum(nil))
}

func TestE2E_Generate_Deterministic_And_Scaffold(t *testing.T) {
	t.Parallel()
	pets, store := writeTempCases(t)
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	args := []string{"generate", "--input", pets, "--input", store, "--scaffold", "--force"}
	runCLI(t, append(args, "--out", dir1)...)
	runCLI(t, append(args, "--out", dir2)...)

	files1, sum1 := digestDir(t, dir1)
	files2, sum2 := digestDir(t, dir2)
	if !slicesEqual(files1, files2) || sum1 != sum2 {
		t.Fatalf("generated outputs differ between runs\nfiles1=%v\nfiles2=%v\nsum1=%s\nsum2=%s", files1, files2, sum1, sum2)
	}
	want := []string{".editorconfig", "package.json", "pets.spec.ts", "playwright.config.ts", "store.spec.ts", "tsconfig.json"}
	if !slicesEqual(files1, want) {
		t.Fatalf("unexpected files: %v", files1)
	}

	pkg, err := os.ReadFile(filepath.Join(dir1, "package.json"))
	if err != nil {
		t.Fatalf("read package.json: %v", err)
	}
	var manifest struct {
		Name            string            `json:"name"`
		Scripts         map[string]string `json:"scripts"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(pkg, &manifest); err != nil {
		t.Fatalf("parse package.json: %v", err)
	}
	if manifest.Name != "pets-api-tests" || manifest.Scripts["test"] == "" {
		t.Fatalf("unexpected package.json: %s", pkg)
	}
	if _, ok := manifest.DevDependencies["@playwright/test"]; !ok {
		t.Fatalf("package.json missing @playwright/test: %s", pkg)
	}

	src, err := os.ReadFile(filepath.Join(dir1, "store.spec.ts"))
	if err != nil {
		t.Fatalf("read suite: %v", err)
	}
	if !strings.Contains(string(src), "toBeUnauthorized") {
		t.Fatalf("expected an authentication failure assertion:\n%s", src)
	}

	// Optional: list the generated tests when node and network are available
	if os.Getenv("CASEWRIGHT_E2E_ONLINE") == "1" && haveCmd("npm") {
		if err := runCmdWithTimeout(dir1, 3*time.Minute, "npm", "install"); err != nil {
			t.Skipf("npm install skipped (likely offline): %v", err)
		}
		if err := runCmdWithTimeout(dir1, time.Minute, "npx", "playwright", "test", "--list"); err != nil {
			t.Fatalf("playwright could not load the suites: %v", err)
		}
	}
}

func TestE2E_Generate_Rerun_IsUnchanged(t *testing.T) {
	t.Parallel()
	pets, _ := writeTempCases(t)
	out := t.TempDir()

	runCLI(t, "generate", "--input", pets, "--out", out, "--validate-responses", "--force")
	_, before := digestDir(t, out)

	var stdout bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", pets, "--out", out, "--validate-responses", "--dry-run"})
	if err := root.Execute(); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(stdout.String(), "pets.spec.ts (unchanged,") {
		t.Fatalf("expected the suite to be unchanged, got:\n%s", stdout.String())
	}
	if _, after := digestDir(t, out); after != before {
		t.Fatalf("dry run modified the output directory")
	}

	src, err := os.ReadFile(filepath.Join(out, "pets.spec.ts"))
	if err != nil {
		t.Fatalf("read suite: %v", err)
	}
	if !strings.Contains(string(src), "pets-responses.json") {
		t.Fatalf("expected the default responses document to be referenced:\n%s", src)
	}
}

func haveCmd(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmdWithTimeout(dir string, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return &execError{err: err, output: out.String()}
	}
	return nil
}

type execError struct {
	err    error
	output string
}

func (e *execError) Error() string { return e.err.Error() + ": " + e.output }

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
