// Package bundler produces the standalone dependency artifacts referenced by
// the import map: one artifact per framework-runtime sub-export plus one per
// detected third-party dependency and its sub-exports and stylesheets.
//
// Runtimes that share module-level singleton state across their entry points
// are bundled as a single unified artifact with thin façades per sub-export;
// everything else is bundled as independent artifacts with the runtime
// excluded as an external reference.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

// ErrMissingMetadata marks a runtime package absent from the merged
// dependency map, so no version can be resolved for its storage path.
var ErrMissingMetadata = errors.New("package missing from metadata")

type Bundler struct {
	rt  framework.Runtime
	log *zap.Logger
}

func New(rt framework.Runtime, log *zap.Logger) *Bundler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bundler{rt: rt, log: log}
}

// BundleDependencies produces the framework runtime artifacts under
// <outDir>/<name>@<version>/. For unified runtimes a single artifact plus
// façades is emitted instead of independent sub-export bundles.
func (b *Bundler) BundleDependencies(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) ([]manifest.BundledDependency, error) {
	if b.rt.Unified {
		dep, err := b.bundleUnified(ctx, meta, projectDir, outDir)
		if err != nil {
			return nil, err
		}
		return []manifest.BundledDependency{*dep}, nil
	}

	var bundled []manifest.BundledDependency
	for _, pkg := range b.rt.Packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		version, ok := meta.Dependencies[pkg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingMetadata, pkg.Name)
		}

		dir := filepath.Join(outDir, pkg.Name+"@"+manifest.NormalizeVersion(version))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}

		dep := manifest.BundledDependency{
			Name:       pkg.Name,
			Version:    manifest.NormalizeVersion(version),
			SubExports: map[string]string{},
		}

		// Sibling runtime packages stay external so every artifact shares
		// one runtime instance through the import map.
		siblings := b.runtimeRoots(pkg.Name)

		mainPath := filepath.Join(dir, "index.js")
		if err := b.bundleSpecifier(projectDir, pkg.Name, mainPath, siblings); err != nil {
			return nil, fmt.Errorf("failed to bundle %s: %w", pkg.Name, err)
		}
		dep.Main = readText(mainPath)

		for _, sub := range pkg.SubExports {
			spec := pkg.Name + "/" + sub
			subPath := filepath.Join(dir, manifest.SanitizeSubExport(sub)+".js")
			if err := b.bundleSpecifier(projectDir, spec, subPath, b.runtimeRoots("")); err != nil {
				return nil, fmt.Errorf("failed to bundle %s: %w", spec, err)
			}
			dep.SubExports[sub] = readText(subPath)
			b.log.Debug("bundled sub-export", zap.String("specifier", spec))
		}

		bundled = append(bundled, dep)
	}

	return bundled, nil
}

// runtimeRoots returns the runtime package names, excluding one. Passing ""
// excludes nothing, which externalizes every runtime root including the
// sub-export's own package.
func (b *Bundler) runtimeRoots(exclude string) []string {
	var roots []string
	for _, p := range b.rt.Packages {
		if p.Name != exclude {
			roots = append(roots, p.Name)
		}
	}
	return roots
}

// bundleSpecifier compiles a bare package specifier into a standalone ESM
// artifact. The synthesized entry re-exports everything including the
// default export; when the target neither has nor lacks a clean default
// export the build is retried with the wildcard-only form.
func (b *Bundler) bundleSpecifier(projectDir, spec, outfile string, external []string) error {
	entry := fmt.Sprintf("export * from %q;\nexport { default } from %q;\n", spec, spec)
	res := b.runStdin(projectDir, entry, outfile, external, false)
	if defaultExportAmbiguity(res.Errors) {
		res = b.runStdin(projectDir, fmt.Sprintf("export * from %q;\n", spec), outfile, external, false)
	}
	if len(res.Errors) > 0 {
		return compileError(res.Errors)
	}
	return nil
}

func (b *Bundler) runStdin(projectDir, contents, outfile string, external []string, metafile bool) api.BuildResult {
	opts := api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   contents,
			ResolveDir: projectDir,
			Sourcefile: "packforge-entry.js",
			Loader:     api.LoaderJS,
		},
		Outfile:           outfile,
		Bundle:            true,
		Write:             true,
		Metafile:          metafile,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		External:          external,
		Sourcemap:         api.SourceMapNone,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Define:            map[string]string{"process.env.NODE_ENV": `"production"`},
		Loader:            map[string]api.Loader{".css": api.LoaderCSS},
	}
	return api.Build(opts)
}

func defaultExportAmbiguity(msgs []api.Message) bool {
	for _, m := range msgs {
		if strings.Contains(m.Text, `"default"`) && strings.Contains(m.Text, "export") {
			return true
		}
	}
	return false
}

func compileError(msgs []api.Message) error {
	m := msgs[0]
	if m.Location != nil {
		return fmt.Errorf("%s (%s:%d:%d)", m.Text, m.Location.File, m.Location.Line, m.Location.Column)
	}
	return errors.New(m.Text)
}

func readText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
