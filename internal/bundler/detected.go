package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/manifest"
)

// ErrStylesheetNotFound marks a stylesheet import whose file could not be
// located under the package root.
var ErrStylesheetNotFound = errors.New("stylesheet not found")

// stylesheetFallbacks is the deterministic resolution order tried, relative
// to the package root, when a stylesheet specifier does not name an existing
// file directly. First existing candidate wins.
var stylesheetFallbacks = []string{
	"dist/style.css",
	"dist/index.css",
	"style.css",
	"index.css",
}

// BundleDetectedDependencies bundles each detected dependency's main export,
// each of its sub-exports, and a script-module wrapper per stylesheet
// import. Artifacts land under <outDir>/<name>@<version>/, matching the
// URLs the import map embeds.
func (b *Bundler) BundleDetectedDependencies(ctx context.Context, deps []manifest.DetectedDependency, projectDir, outDir string) ([]manifest.BundledDependency, error) {
	var bundled []manifest.BundledDependency

	for _, d := range deps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(outDir, d.Name+"@"+manifest.NormalizeVersion(d.Version))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}

		dep := manifest.BundledDependency{
			Name:       d.Name,
			Version:    manifest.NormalizeVersion(d.Version),
			SubExports: map[string]string{},
		}

		// The framework runtime stays external so a dependency that imports
		// it resolves to the shared instance through the import map.
		external := b.rt.ExternalSpecifiers()

		mainPath := filepath.Join(dir, "index.js")
		if err := b.bundleSpecifier(projectDir, d.Name, mainPath, external); err != nil {
			return nil, fmt.Errorf("failed to bundle %s: %w", d.Name, err)
		}
		dep.Main = readText(mainPath)

		for _, sub := range d.SubExports {
			spec := d.Name + "/" + sub
			subPath := filepath.Join(dir, manifest.SanitizeSubExport(sub)+".js")
			subExternal := append(append([]string{}, external...), d.Name)
			if err := b.bundleSpecifier(projectDir, spec, subPath, subExternal); err != nil {
				return nil, fmt.Errorf("failed to bundle %s: %w", spec, err)
			}
			dep.SubExports[sub] = readText(subPath)
		}

		for _, cssSpec := range d.CSSImports {
			text, err := b.resolveStylesheet(projectDir, d.Name, cssSpec)
			if err != nil {
				return nil, err
			}
			wrapper := WrapStylesheet(text)
			name := StylesheetArtifactStem(d.Name, cssSpec) + ".js"
			if err := os.WriteFile(filepath.Join(dir, name), []byte(wrapper), 0o644); err != nil {
				return nil, err
			}
			dep.SubExports[strings.TrimSuffix(name, ".js")] = wrapper
			b.log.Debug("wrapped stylesheet", zap.String("specifier", cssSpec), zap.String("artifact", name))
		}

		bundled = append(bundled, dep)
	}

	return bundled, nil
}

// resolveStylesheet locates the CSS file behind a stylesheet import
// specifier. The specifier path under the package root is tried first, with
// and without a .css extension, then the documented fallback chain.
func (b *Bundler) resolveStylesheet(projectDir, pkg, spec string) (string, error) {
	pkgRoot := filepath.Join(projectDir, "node_modules", filepath.FromSlash(pkg))
	sub := strings.TrimPrefix(spec, pkg+"/")

	candidates := []string{sub}
	if !strings.HasSuffix(sub, ".css") {
		candidates = append(candidates, sub+".css")
	}
	candidates = append(candidates, stylesheetFallbacks...)

	for _, c := range candidates {
		path := filepath.Join(pkgRoot, filepath.FromSlash(c))
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("%w: %q (package %s)", ErrStylesheetNotFound, spec, pkg)
}

// WrapStylesheet produces a script module whose side effect is injecting a
// <style> element when executed in a document context and a no-op
// otherwise. The raw CSS text is embedded as a string literal.
func WrapStylesheet(css string) string {
	return fmt.Sprintf(`const css = %s;
if (typeof document !== "undefined") {
  const style = document.createElement("style");
  style.textContent = css;
  document.head.appendChild(style);
}
export default css;
`, jsString(css))
}

// StylesheetArtifactStem derives the artifact file stem for a stylesheet
// specifier: ("carousel", "carousel/styles") -> "styles". The import map
// generator uses the same stem so specifier URLs match emitted files.
func StylesheetArtifactStem(pkg, spec string) string {
	sub := strings.TrimPrefix(spec, pkg+"/")
	sub = strings.TrimSuffix(sub, ".css")
	return manifest.SanitizeSubExport(sub)
}

// jsString renders s as a double-quoted JavaScript string literal. JSON
// string escaping is valid JS string escaping here: encoding/json already
// emits \u2028 and \u2029 escapes for the two separators that are not
// valid pre-ES2019 JS source.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
