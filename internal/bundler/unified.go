package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/manifest"
)

// bundleUnified handles runtimes whose entry points must share module-level
// singleton state. One unified artifact is produced containing every export
// of every sub-export path, with the singleton initialization performed
// eagerly at module-evaluation time. Each logical sub-export then becomes a
// thin façade that re-exports exclusively from the unified artifact, never
// re-implementing logic.
func (b *Bundler) bundleUnified(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) (*manifest.BundledDependency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg := b.rt.Packages[0]
	version, ok := meta.Dependencies[pkg.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingMetadata, pkg.Name)
	}

	dir := filepath.Join(outDir, pkg.Name+"@"+manifest.NormalizeVersion(version))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	mainPath := filepath.Join(dir, "index.js")
	entry := b.unifiedEntry(pkg.Name, pkg.SubExports)

	res := b.runStdin(projectDir, entry, mainPath, nil, true)
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("failed to bundle %s: %w", pkg.Name, compileError(res.Errors))
	}

	declared := declaredExports(res.Metafile, mainPath)

	dep := &manifest.BundledDependency{
		Name:       pkg.Name,
		Version:    manifest.NormalizeVersion(version),
		Main:       readText(mainPath),
		SubExports: map[string]string{},
	}

	for _, sub := range pkg.SubExports {
		names := b.facadeExports(sub, declared)
		if len(names) == 0 {
			return nil, fmt.Errorf("no exports known for %s/%s", pkg.Name, sub)
		}
		facade := fmt.Sprintf("export { %s } from \"./index.js\";\n", strings.Join(names, ", "))
		facadePath := filepath.Join(dir, manifest.SanitizeSubExport(sub)+".js")
		if err := os.WriteFile(facadePath, []byte(facade), 0o644); err != nil {
			return nil, err
		}
		dep.SubExports[sub] = facade
		b.log.Debug("wrote façade", zap.String("sub", sub), zap.Int("exports", len(names)))
	}

	return dep, nil
}

// unifiedEntry synthesizes the single source feeding the unified bundle.
// Side-effect imports come first so lazily-initialized internal handles are
// constructed exactly once, when this module is evaluated; re-exports use
// explicit named-symbol lists so no wildcard collision between sub-export
// paths can occur.
func (b *Bundler) unifiedEntry(pkgName string, subExports []string) string {
	var sb strings.Builder
	for _, init := range b.rt.EagerInitImports {
		fmt.Fprintf(&sb, "import %q;\n", init)
	}

	if names := b.rt.UnifiedExports[""]; len(names) > 0 {
		fmt.Fprintf(&sb, "export { %s } from %q;\n", strings.Join(names, ", "), pkgName)
	}
	for _, sub := range subExports {
		names := b.rt.UnifiedExports[sub]
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "export { %s } from %q;\n", strings.Join(names, ", "), pkgName+"/"+sub)
	}
	return sb.String()
}

// facadeExports is the named-symbol list a façade re-exports: the fixed
// per-sub-export table, narrowed to the symbols the compiled unified
// artifact actually declares when the toolchain reported them. The fixed
// table alone is the fallback when introspection yields nothing.
func (b *Bundler) facadeExports(sub string, declared map[string]bool) []string {
	fixed := b.rt.UnifiedExports[sub]
	if len(declared) == 0 {
		return fixed
	}
	var names []string
	for _, n := range fixed {
		if declared[n] {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return fixed
	}
	sort.Strings(names)
	return names
}

type metafileOutputs struct {
	Outputs map[string]struct {
		Exports []string `json:"exports"`
	} `json:"outputs"`
}

// declaredExports reads the output's declared export names from the build
// metafile. Returns an empty map when the metafile is absent or does not
// cover the artifact.
func declaredExports(metafile, outPath string) map[string]bool {
	declared := make(map[string]bool)
	if metafile == "" {
		return declared
	}
	var m metafileOutputs
	if err := json.Unmarshal([]byte(metafile), &m); err != nil {
		return declared
	}
	base := filepath.Base(outPath)
	for key, out := range m.Outputs {
		if filepath.Base(key) != base {
			continue
		}
		for _, name := range out.Exports {
			declared[name] = true
		}
	}
	return declared
}
