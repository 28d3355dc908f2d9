package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packforge/packforge/internal/manifest"
	"github.com/packforge/packforge/internal/toolchain"
)

// cssFrameworkPackage is the CSS framework whose presence in package
// metadata triggers theme stylesheet generation and the import map's fixed
// stylesheet entry.
const cssFrameworkPackage = "tailwindcss"

// themeInputCandidates are tried in order as the CSS framework's input file.
var themeInputCandidates = []string{
	"tailwind.css",
	"src/tailwind.css",
	"src/index.css",
}

// HasCSSFramework reports whether package metadata declares the CSS
// framework dependency.
func HasCSSFramework(meta manifest.PackageMetadata) bool {
	_, ok := meta.Dependencies[cssFrameworkPackage]
	return ok
}

// BuildThemeStylesheet compiles the pack-level theme.css with the CSS
// framework's own CLI when the framework is declared in metadata; otherwise
// it does nothing and returns an empty path. The CLI is a build-only tool
// resolved through the toolchain (one install attempt, one retry).
func (b *Bundler) BuildThemeStylesheet(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) (string, error) {
	if !HasCSSFramework(meta) {
		return "", nil
	}

	bin, err := toolchain.EnsureTool(ctx, projectDir, "tailwindcss", cssFrameworkPackage)
	if err != nil {
		return "", err
	}

	input := ""
	for _, c := range themeInputCandidates {
		if _, statErr := os.Stat(filepath.Join(projectDir, c)); statErr == nil {
			input = c
			break
		}
	}
	if input == "" {
		return "", fmt.Errorf("no theme input stylesheet found in %s (tried %v)", projectDir, themeInputCandidates)
	}

	out := filepath.Join(outDir, "theme.css")
	if err := toolchain.Run(ctx, projectDir, bin, "-i", input, "-o", out, "--minify"); err != nil {
		return "", err
	}
	return out, nil
}
