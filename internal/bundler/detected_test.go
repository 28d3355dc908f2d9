package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"

	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

// writePackage lays out a fake npm package under projectDir/node_modules so
// bundling runs against real resolution without a registry.
func writePackage(t *testing.T, projectDir, name string, files map[string]string) {
	t.Helper()
	root := filepath.Join(projectDir, "node_modules", name)
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestBundleDetectedDependencies(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	writePackage(t, projectDir, "carousel", map[string]string{
		"package.json": `{"name":"carousel","version":"2.1.0","main":"index.js"}`,
		"index.js":     "export function carousel(el) { return el; }\nexport default carousel;\n",
		"thumbs.js":    "export function thumbs(el) { return el; }\n",
		"styles.css":   ".carousel { display: flex; }\n",
	})

	b := New(framework.RuntimeFor(framework.React), nil)
	deps := []manifest.DetectedDependency{{
		Name:       "carousel",
		Version:    "^2.1.0",
		SubExports: []string{"thumbs"},
		CSSImports: []string{"carousel/styles.css"},
	}}

	bundled, err := b.BundleDetectedDependencies(context.Background(), deps, projectDir, outDir)
	require.NoError(t, err)
	require.Len(t, bundled, 1)

	dep := bundled[0]
	require.Equal(t, "carousel", dep.Name)
	require.Equal(t, "2.1.0", dep.Version, "version operator is stripped")

	// Artifact layout mirrors the storage paths the import map embeds.
	dir := filepath.Join(outDir, "carousel@2.1.0")
	for _, name := range []string{"index.js", "thumbs.js", "styles.js"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	require.Contains(t, dep.Main, "carousel")
	require.Contains(t, dep.SubExports["styles"], "display: flex")
}

func TestBundleSpecifierRetriesWithoutDefault(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	writePackage(t, projectDir, "namedonly", map[string]string{
		"package.json": `{"name":"namedonly","version":"1.0.0","main":"index.js"}`,
		"index.js":     "export const value = 42;\n",
	})

	b := New(framework.RuntimeFor(framework.React), nil)
	outfile := filepath.Join(outDir, "index.js")
	err := b.bundleSpecifier(projectDir, "namedonly", outfile, nil)
	require.NoError(t, err, "packages without a default export bundle via the wildcard-only retry")

	if _, err := os.Stat(outfile); err != nil {
		t.Fatalf("no artifact written: %v", err)
	}
}

func TestBundleSpecifierReportsCompileErrors(t *testing.T) {
	projectDir := t.TempDir()

	b := New(framework.RuntimeFor(framework.React), nil)
	err := b.bundleSpecifier(projectDir, "does-not-exist", filepath.Join(t.TempDir(), "index.js"), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does-not-exist")
}

func TestResolveStylesheetFallbackChain(t *testing.T) {
	projectDir := t.TempDir()
	writePackage(t, projectDir, "widget", map[string]string{
		"package.json":   `{"name":"widget","version":"1.0.0"}`,
		"dist/style.css": ".widget { color: red; }",
	})

	b := New(framework.RuntimeFor(framework.React), nil)

	// The specifier names no existing file, so the fallback chain finds
	// dist/style.css.
	css, err := b.resolveStylesheet(projectDir, "widget", "widget/theme.css")
	require.NoError(t, err)
	require.Contains(t, css, "color: red")

	_, err = b.resolveStylesheet(projectDir, "absent", "absent/style.css")
	require.True(t, errors.Is(err, ErrStylesheetNotFound))
}

func TestWrapStylesheet(t *testing.T) {
	wrapper := WrapStylesheet(".a { color: \"red\"; }\n")

	if !strings.Contains(wrapper, `typeof document !== "undefined"`) {
		t.Error("wrapper must no-op outside a document context")
	}
	if !strings.Contains(wrapper, "export default css") {
		t.Error("wrapper must export the raw CSS text")
	}
	snaps.MatchSnapshot(t, wrapper)
}

func TestStylesheetArtifactStem(t *testing.T) {
	tests := []struct {
		pkg  string
		spec string
		want string
	}{
		{"carousel", "carousel/styles", "styles"},
		{"carousel", "carousel/styles.css", "styles"},
		{"widget", "widget/dist/theme.css", "dist-theme"},
	}
	for _, tt := range tests {
		if got := StylesheetArtifactStem(tt.pkg, tt.spec); got != tt.want {
			t.Errorf("StylesheetArtifactStem(%q, %q) = %q, want %q", tt.pkg, tt.spec, got, tt.want)
		}
	}
}

func TestJSStringEscapesLineSeparators(t *testing.T) {
	got := jsString("a\u2028b\u2029c")
	if strings.ContainsRune(got, '\u2028') || strings.ContainsRune(got, '\u2029') {
		t.Errorf("raw line separators survive in %q", got)
	}
	if !strings.Contains(got, `\u2028`) || !strings.Contains(got, `\u2029`) {
		t.Errorf("separators not escaped in %q", got)
	}
}

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}
