package framework

import (
	"context"
	"errors"
	"fmt"

	"github.com/packforge/packforge/internal/manifest"
)

// Capability names one of the per-framework build capabilities.
type Capability string

const (
	CapabilityBuilder    Capability = "builder"
	CapabilityBundler    Capability = "bundler"
	CapabilityImportMaps Capability = "import-map-generator"
)

// ErrUnknownCapability is returned when a framework variant has no
// implementation for a requested capability. There is no silent fallback.
var ErrUnknownCapability = errors.New("unknown framework capability")

// Builder compiles components into client and server modules.
type Builder interface {
	// BuildComponents compiles each descriptor's entry point into a
	// standalone client module with the framework runtime and detected
	// dependencies externalized. The first compile failure aborts the
	// remaining components; already-written sibling outputs stay on disk.
	BuildComponents(ctx context.Context, comps []manifest.ComponentDescriptor, projectDir, outDir string, deps []manifest.DetectedDependency) *manifest.BuildReport

	// BuildServerComponents compiles a synthesized server-rendering wrapper
	// per component, with the framework runtime embedded rather than
	// externalized.
	BuildServerComponents(ctx context.Context, comps []manifest.ComponentDescriptor, projectDir, outDir string) *manifest.BuildReport
}

// Bundler produces the standalone dependency artifacts the import map
// points at.
type Bundler interface {
	BundleDependencies(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) ([]manifest.BundledDependency, error)

	// BundleServerDependencies lays out a Node-loadable copy of the runtime
	// and its server-render entry. A variant may report zero artifacts.
	BundleServerDependencies(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) ([]string, error)

	BundleDetectedDependencies(ctx context.Context, deps []manifest.DetectedDependency, projectDir, outDir string) ([]manifest.BundledDependency, error)
}

// ImportMapOptions parameterize import map generation.
type ImportMapOptions struct {
	StorageBaseURL  string
	StorageBasePath string
	DetectedDeps    []manifest.DetectedDependency
}

// ImportMapGenerator builds the specifier -> URL resolution table.
type ImportMapGenerator interface {
	Generate(meta manifest.PackageMetadata, opts ImportMapOptions) (*manifest.ImportMap, error)

	// GenerateWithStylesheets additionally returns the parallel stylesheet
	// table. The table is empty, not nil, when no CSS-framework dependency
	// is present.
	GenerateWithStylesheets(meta manifest.PackageMetadata, opts ImportMapOptions) (*manifest.ImportMap, map[string]string, error)
}

// Registry holds the capability implementations for one framework variant.
// A nil capability means the variant does not support it; the accessor then
// fails naming both the framework and the missing capability.
type Registry struct {
	fw         Framework
	builder    Builder
	bundler    Bundler
	importMaps ImportMapGenerator
}

func NewRegistry(fw Framework, b Builder, d Bundler, g ImportMapGenerator) *Registry {
	return &Registry{fw: fw, builder: b, bundler: d, importMaps: g}
}

func (r *Registry) Framework() Framework {
	return r.fw
}

func (r *Registry) Builder() (Builder, error) {
	if r.builder == nil {
		return nil, r.missing(CapabilityBuilder)
	}
	return r.builder, nil
}

func (r *Registry) Bundler() (Bundler, error) {
	if r.bundler == nil {
		return nil, r.missing(CapabilityBundler)
	}
	return r.bundler, nil
}

func (r *Registry) ImportMaps() (ImportMapGenerator, error) {
	if r.importMaps == nil {
		return nil, r.missing(CapabilityImportMaps)
	}
	return r.importMaps, nil
}

func (r *Registry) missing(c Capability) error {
	return fmt.Errorf("%w: framework %q has no %s", ErrUnknownCapability, r.fw, c)
}
