// Package manifest defines the data model shared by every stage of a pack
// publish: component descriptors, resolved package metadata, detected
// dependencies, build outputs, and the pack manifest itself.
package manifest

import "time"

// ComponentDescriptor identifies a single publishable component. Descriptors
// are produced by the external validator and are immutable for the run.
type ComponentDescriptor struct {
	// Name is unique within the pack and doubles as the output directory name.
	Name        string
	DisplayName string
	// EntryPoint is the absolute path to the component's source entry file.
	EntryPoint string
	// SourceDir is the absolute path to the component's source directory.
	SourceDir string
	// SchemaPath optionally points at the component's schema file.
	SchemaPath string
}

// PackageMetadata is the already-resolved package description for the
// project being published. Dependencies maps package name to the version
// range recorded in the project metadata; a single pinned version per
// dependency is assumed.
type PackageMetadata struct {
	Name         string
	Version      string
	Dependencies map[string]string
}

// DetectedDependency is a third-party package found by static analysis of
// component sources. Deduplicated by Name across all components.
type DetectedDependency struct {
	Name    string
	Version string
	// SubExports lists deeper sub-path imports ("carousel/thumbs" -> "thumbs").
	SubExports []string
	// CSSImports lists stylesheet import specifiers ("carousel/styles").
	CSSImports []string
}

// BuildOutput records the artifacts produced for one component.
type BuildOutput struct {
	Name           string
	DisplayName    string
	ModulePath     string
	StylesheetPath string
	SchemaPath     string
	// Size is the client module size in bytes; 0 when an expected artifact
	// was not produced (a soft failure, not an error).
	Size int64
}

// BuildReport is the aggregate result of a component build pass. On failure
// Outputs holds the components built before the failing one; nothing is
// rolled back.
type BuildReport struct {
	Outputs         []BuildOutput
	Success         bool
	FailedComponent string
	Message         string
}

// BundledDependency captures the generated module sources for one bundled
// dependency: exactly one main module and zero or more named sub-exports.
type BundledDependency struct {
	Name       string
	Version    string
	Main       string
	SubExports map[string]string
}

// ImportMap is the specifier -> URL resolution table consumed by a browser's
// native module loader.
type ImportMap struct {
	Imports map[string]string `json:"imports"`
}

// ManifestDep describes one bundled dependency as recorded in the manifest.
type ManifestDep struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	StoragePath string   `json:"storagePath"`
	SubExports  []string `json:"subExports,omitempty"`
	CSSImports  []string `json:"cssImports,omitempty"`
}

// Manifest is the pack-level description written after all other artifacts
// have been produced.
type Manifest struct {
	Framework        string        `json:"framework"`
	FrameworkVersion string        `json:"frameworkVersion"`
	Components       []string      `json:"components"`
	Deps             []ManifestDep `json:"deps"`
	CreatedAt        time.Time     `json:"createdAt"`
}
