// Package importmap builds the specifier -> URL resolution table a browser's
// native module loader consumes to wire independently built modules
// together, plus the parallel stylesheet table page rendering reads.
package importmap

import (
	"errors"
	"sort"
	"strings"

	"github.com/packforge/packforge/internal/bundler"
	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

// ErrNoStorageBase is returned when no storage base URL was configured.
var ErrNoStorageBase = errors.New("storage base URL is required")

type Generator struct {
	rt framework.Runtime
}

func New(rt framework.Runtime) *Generator {
	return &Generator{rt: rt}
}

// Generate emits one entry per runtime dependency kept after build-tool
// filtering, pointing at the dependency's published main artifact, plus one
// entry per known sub-export and per stylesheet wrapper. Every URL embeds
// the normalized version, matching exactly the storage layout the bundler
// produced.
func (g *Generator) Generate(meta manifest.PackageMetadata, opts framework.ImportMapOptions) (*manifest.ImportMap, error) {
	if opts.StorageBaseURL == "" {
		return nil, ErrNoStorageBase
	}

	base := storageBase(opts)
	kept := bundler.FilterRuntimeDependencies(meta.Dependencies)
	imports := make(map[string]string)

	for name, version := range kept {
		depBase := base + "/" + manifest.DepStoragePath(name, version)
		imports[name] = depBase + "/index.js"

		for _, pkg := range g.rt.Packages {
			if pkg.Name != name {
				continue
			}
			for _, sub := range pkg.SubExports {
				imports[name+"/"+sub] = depBase + "/" + manifest.SanitizeSubExport(sub) + ".js"
			}
		}
	}

	for _, dep := range opts.DetectedDeps {
		version, ok := kept[dep.Name]
		if !ok {
			// Absent from metadata or filtered as a build tool; the import
			// map never references such packages.
			continue
		}
		depBase := base + "/" + manifest.DepStoragePath(dep.Name, version)
		for _, sub := range dep.SubExports {
			imports[dep.Name+"/"+sub] = depBase + "/" + manifest.SanitizeSubExport(sub) + ".js"
		}
		for _, cssSpec := range dep.CSSImports {
			imports[cssSpec] = depBase + "/" + bundler.StylesheetArtifactStem(dep.Name, cssSpec) + ".js"
		}
	}

	return &manifest.ImportMap{Imports: imports}, nil
}

// GenerateWithStylesheets additionally returns the stylesheet table. It
// contains the fixed theme entry only when a CSS-framework dependency is
// present in package metadata; otherwise the table is empty, not nil.
func (g *Generator) GenerateWithStylesheets(meta manifest.PackageMetadata, opts framework.ImportMapOptions) (*manifest.ImportMap, map[string]string, error) {
	im, err := g.Generate(meta, opts)
	if err != nil {
		return nil, nil, err
	}

	stylesheets := make(map[string]string)
	if bundler.HasCSSFramework(meta) {
		stylesheets["theme"] = storageBase(opts) + "/theme.css"
	}
	return im, stylesheets, nil
}

// Specifiers returns the map's keys in sorted order, for deterministic
// logging and reporting.
func Specifiers(im *manifest.ImportMap) []string {
	keys := make([]string, 0, len(im.Imports))
	for k := range im.Imports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func storageBase(opts framework.ImportMapOptions) string {
	base := strings.TrimSuffix(opts.StorageBaseURL, "/")
	path := strings.Trim(opts.StorageBasePath, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}
