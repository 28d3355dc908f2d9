// Package analyzer statically scans component sources for non-relative
// imports that are neither the declared framework runtime nor its sub-paths,
// to decide what else must be externalized and bundled.
//
// The scan is an esbuild metafile pass: the entry point is bundled with
// every bare package marked external and nothing written to disk, and the
// resulting metafile lists each module's static imports. Only static import
// statements are considered; dynamic imports are ignored.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

// ErrUnresolvableImport marks a package import that cannot be matched to any
// metadata entry, so its version is unknown. It aborts analysis for the one
// component that contains it; remaining components are still analyzed.
var ErrUnresolvableImport = errors.New("unresolvable import")

var stylesheetExtensions = []string{".css", ".scss", ".sass", ".less"}

// ComponentError records an analysis failure scoped to a single component.
type ComponentError struct {
	Component string
	Err       error
}

func (e ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

// Result aggregates detected dependencies across all analyzed components,
// deduplicated by package name, plus any per-component failures.
type Result struct {
	Deps   []manifest.DetectedDependency
	Errors []ComponentError
}

type Analyzer struct {
	rt framework.Runtime
}

func New(rt framework.Runtime) *Analyzer {
	return &Analyzer{rt: rt}
}

// Analyze scans every component's entry point. A component whose imports
// cannot all be resolved contributes nothing to the result; its failure is
// recorded and the remaining components are still analyzed.
func (a *Analyzer) Analyze(ctx context.Context, comps []manifest.ComponentDescriptor, meta manifest.PackageMetadata, projectDir string) *Result {
	merged := make(map[string]*manifest.DetectedDependency)
	result := &Result{}

	for _, comp := range comps {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, ComponentError{Component: comp.Name, Err: err})
			break
		}

		deps, err := a.analyzeComponent(comp, meta, projectDir)
		if err != nil {
			result.Errors = append(result.Errors, ComponentError{Component: comp.Name, Err: err})
			continue
		}

		for _, d := range deps {
			existing, ok := merged[d.Name]
			if !ok {
				copied := d
				merged[d.Name] = &copied
				continue
			}
			existing.SubExports = mergeSorted(existing.SubExports, d.SubExports)
			existing.CSSImports = mergeSorted(existing.CSSImports, d.CSSImports)
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result.Deps = append(result.Deps, *merged[name])
	}
	return result
}

func (a *Analyzer) analyzeComponent(comp manifest.ComponentDescriptor, meta manifest.PackageMetadata, projectDir string) ([]manifest.DetectedDependency, error) {
	opts := api.BuildOptions{
		EntryPoints:   []string{comp.EntryPoint},
		AbsWorkingDir: projectDir,
		Bundle:        true,
		Write:         false,
		Metafile:      true,
		Packages:      api.PackagesExternal,
		Platform:      api.PlatformBrowser,
		Format:        api.FormatESModule,
		LogLevel:      api.LogLevelSilent,
	}
	if a.rt.JSXImportSource != "" {
		opts.JSX = api.JSXAutomatic
		opts.JSXImportSource = a.rt.JSXImportSource
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("scan failed: %s", res.Errors[0].Text)
	}

	meta2, err := parseMetafile(res.Metafile)
	if err != nil {
		return nil, fmt.Errorf("parse metafile: %w", err)
	}

	byName := make(map[string]*manifest.DetectedDependency)
	for _, input := range meta2.Inputs {
		for _, imp := range input.Imports {
			if !imp.External || !staticImportKinds[imp.Kind] {
				continue
			}
			spec := imp.Path
			if imp.Original != "" {
				spec = imp.Original
			}
			if isRelative(spec) || a.rt.IsRuntimeSpecifier(spec) {
				continue
			}

			root, sub := splitSpecifier(spec)
			version, ok := meta.Dependencies[root]
			if !ok {
				return nil, fmt.Errorf("%w: %q has no entry in package metadata", ErrUnresolvableImport, spec)
			}

			dep, ok := byName[root]
			if !ok {
				dep = &manifest.DetectedDependency{Name: root, Version: version}
				byName[root] = dep
			}
			switch {
			case isStylesheet(spec):
				dep.CSSImports = mergeSorted(dep.CSSImports, []string{spec})
			case sub != "":
				dep.SubExports = mergeSorted(dep.SubExports, []string{sub})
			}
		}
	}

	deps := make([]manifest.DetectedDependency, 0, len(byName))
	for _, dep := range byName {
		deps = append(deps, *dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

func isStylesheet(spec string) bool {
	for _, ext := range stylesheetExtensions {
		if strings.HasSuffix(spec, ext) {
			return true
		}
	}
	return false
}

// splitSpecifier separates a bare import specifier into its package root and
// sub-path: "@scope/pkg/sub/a" -> ("@scope/pkg", "sub/a").
func splitSpecifier(spec string) (root, sub string) {
	parts := strings.Split(spec, "/")
	n := 1
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		n = 2
	}
	root = strings.Join(parts[:n], "/")
	if len(parts) > n {
		sub = strings.Join(parts[n:], "/")
	}
	return root, sub
}

func mergeSorted(dst, src []string) []string {
	seen := make(map[string]bool, len(dst)+len(src))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	sort.Strings(dst)
	return dst
}
