package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/packforge/packforge/internal/manifest"
)

// BundleServerDependencies lays out a Node-loadable copy of the framework
// runtime and its server-rendering entry point under outDir: one directory
// per runtime package with a minimal package descriptor, so outDir can act
// as a module resolution root. Variants without a server entry report zero
// artifacts rather than fail.
func (b *Bundler) BundleServerDependencies(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) ([]string, error) {
	if b.rt.ServerEntry == "" {
		return nil, nil
	}

	var artifacts []string
	for _, pkg := range b.rt.Packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		version, ok := meta.Dependencies[pkg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingMetadata, pkg.Name)
		}

		dir := filepath.Join(outDir, filepath.FromSlash(pkg.Name))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}

		exports := map[string]string{".": "./index.js"}

		mainPath := filepath.Join(dir, "index.js")
		if err := b.bundleServerSpecifier(projectDir, pkg.Name, mainPath, b.runtimeRoots(pkg.Name)); err != nil {
			return nil, fmt.Errorf("failed to bundle %s for node: %w", pkg.Name, err)
		}
		artifacts = append(artifacts, mainPath)

		if sub, ok := strings.CutPrefix(b.rt.ServerEntry, pkg.Name+"/"); ok {
			subFile := manifest.SanitizeSubExport(sub) + ".js"
			subPath := filepath.Join(dir, subFile)
			if err := b.bundleServerSpecifier(projectDir, b.rt.ServerEntry, subPath, b.runtimeRoots("")); err != nil {
				return nil, fmt.Errorf("failed to bundle %s for node: %w", b.rt.ServerEntry, err)
			}
			exports["./"+sub] = "./" + subFile
			artifacts = append(artifacts, subPath)
		}

		descriptor, err := packageDescriptor(pkg.Name, manifest.NormalizeVersion(version), exports)
		if err != nil {
			return nil, err
		}
		descriptorPath := filepath.Join(dir, "package.json")
		if err := os.WriteFile(descriptorPath, descriptor, 0o644); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, descriptorPath)
	}

	return artifacts, nil
}

func (b *Bundler) bundleServerSpecifier(projectDir, spec, outfile string, external []string) error {
	entry := fmt.Sprintf("export * from %q;\nexport { default } from %q;\n", spec, spec)
	res := b.runServerStdin(projectDir, entry, outfile, external)
	if defaultExportAmbiguity(res.Errors) {
		res = b.runServerStdin(projectDir, fmt.Sprintf("export * from %q;\n", spec), outfile, external)
	}
	if len(res.Errors) > 0 {
		return compileError(res.Errors)
	}
	return nil
}

func (b *Bundler) runServerStdin(projectDir, contents, outfile string, external []string) api.BuildResult {
	return api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   contents,
			ResolveDir: projectDir,
			Sourcefile: "packforge-server-entry.js",
			Loader:     api.LoaderJS,
		},
		Outfile:          outfile,
		Bundle:           true,
		Write:            true,
		Format:           api.FormatESModule,
		Platform:         api.PlatformNode,
		Target:           api.ES2020,
		External:         external,
		Sourcemap:        api.SourceMapNone,
		LogLevel:         api.LogLevelSilent,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		Define:           map[string]string{"process.env.NODE_ENV": `"production"`},
	})
}

// packageDescriptor renders the minimal package.json Node needs to resolve
// the bundled runtime directory as a package.
func packageDescriptor(name, version string, exports map[string]string) ([]byte, error) {
	return json.MarshalIndent(map[string]any{
		"name":    name,
		"version": version,
		"type":    "module",
		"main":    "./index.js",
		"exports": exports,
	}, "", "  ")
}
