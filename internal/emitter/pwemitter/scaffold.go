package pwemitter

import (
	"encoding/json"
	"strings"
)

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func scaffoldFiles(pkgName string) map[string][]byte {
	return map[string][]byte{
		".editorconfig":        []byte(renderEditorConfig()),
		"package.json":         renderPackageJSON(pkgName),
		"playwright.config.ts": []byte(renderPlaywrightConfig()),
		"tsconfig.json":        []byte(renderTSConfig()),
	}
}

func renderPackageJSON(pkgName string) []byte {
	pkg := packageJSON{
		Name:    pkgName,
		Version: "0.0.0",
		Private: true,
		Scripts: map[string]string{
			"test":   "playwright test",
			"report": "playwright show-report",
		},
		DevDependencies: map[string]string{
			"@playwright/test": "^1.44.0",
			"@types/node":      "^20.12.0",
			"typescript":       "^5.4.0",
		},
	}
	// map keys marshal sorted, so the output is stable
	data, _ := json.MarshalIndent(pkg, "", "  ")
	return append(data, '\n')
}

func renderPlaywrightConfig() string {
	return strings.Join([]string{
		"import { defineConfig } from '@playwright/test';",
		"",
		"export default defineConfig({",
		"  testDir: '.',",
		"  testMatch: '**/*.spec.ts',",
		"  fullyParallel: true,",
		"  reporter: process.env.CI ? 'dot' : 'list',",
		"});",
		"",
	}, "\n")
}

func renderTSConfig() string {
	return `{
  "compilerOptions": {
    "target": "ES2022",
    "module": "commonjs",
    "strict": true,
    "esModuleInterop": true,
    "skipLibCheck": true,
    "types": ["node"]
  }
}
`
}

func renderEditorConfig() string {
	return `root = true

[*]
charset = utf-8
end_of_line = lf
indent_style = space
indent_size = 2
insert_final_newline = true
trim_trailing_whitespace = true
`
}
