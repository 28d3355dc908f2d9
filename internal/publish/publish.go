// Package publish sequences a full pack publish: analyze, build client and
// server modules, bundle framework and detected dependencies, generate the
// manifest and import map, and upload. Strictly sequential; each stage is
// gated on the previous stage's success and the first failure freezes the
// pipeline at that stage with no cleanup of partial output.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/analyzer"
	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
	"github.com/packforge/packforge/internal/toolchain"
)

// Stage identifies a step of the publish state machine.
type Stage string

const (
	StageAnalyzing             Stage = "analyzing"
	StageBuildingClient        Stage = "building-client"
	StageBuildingServer        Stage = "building-server"
	StageBundlingFrameworkDeps Stage = "bundling-framework-deps"
	StageBundlingDetectedDeps  Stage = "bundling-detected-deps"
	StageBundlingServerDeps    Stage = "bundling-server-deps"
	StageGeneratingManifest    Stage = "generating-manifest"
	StageGeneratingImportMap   Stage = "generating-import-map"
	StageUploading             Stage = "uploading"
	StageDone                  Stage = "done"
	StageFailed                Stage = "failed"
)

// ErrorKind classifies a stage failure at the pipeline boundary. Messages
// stay plain strings; the kind is for callers that dispatch on failure
// class.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindValidation      ErrorKind = "validation-failure"
	KindCompile         ErrorKind = "compile-failure"
	KindMissingArtifact ErrorKind = "missing-artifact"
	KindTool            ErrorKind = "tool-unavailable"
	KindTransfer        ErrorKind = "transfer-failure"
)

// Progress is delivered through the progress callback at stage boundaries;
// Detail optionally carries finer per-component or per-dependency context
// for interactive use.
type Progress struct {
	Stage  Stage
	Detail string
}

type ProgressFunc func(Progress)

// TransferFunc uploads a local artifact directory and returns the published
// pack identifier. Supplied by the caller; the orchestrator never talks to
// the network itself.
type TransferFunc func(ctx context.Context, localDir string, man *manifest.Manifest) (string, error)

type Options struct {
	ProjectDir string
	// OutDir is exclusively owned by this run for its whole duration; it is
	// cleared and recreated at the start. Concurrent runs against the same
	// directory are outside the contract.
	OutDir          string
	Components      []manifest.ComponentDescriptor
	Metadata        manifest.PackageMetadata
	StorageBaseURL  string
	StorageBasePath string
	Transfer        TransferFunc
	Progress        ProgressFunc
	Logger          *zap.Logger
}

// Result reports the run outcome. On failure Stage and Message carry the
// failing stage and its error verbatim; artifacts written before the
// failure stay on disk.
type Result struct {
	Success     bool
	Stage       Stage
	Kind        ErrorKind
	Message     string
	PackID      string
	Outputs     []manifest.BuildOutput
	Detected    []manifest.DetectedDependency
	Manifest    *manifest.Manifest
	ImportMap   *manifest.ImportMap
	Stylesheets map[string]string
}

// themeBuilder is the optional bundler capability that produces the
// pack-level theme stylesheet.
type themeBuilder interface {
	BuildThemeStylesheet(ctx context.Context, meta manifest.PackageMetadata, projectDir, outDir string) (string, error)
}

// Run executes the pipeline. Every external compile is an awaited blocking
// step; nothing runs concurrently with anything else.
func Run(ctx context.Context, reg *framework.Registry, opts Options) *Result {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	res := &Result{}
	report := func(stage Stage, detail string) {
		if opts.Progress != nil {
			opts.Progress(Progress{Stage: stage, Detail: detail})
		}
		log.Info("stage", zap.String("stage", string(stage)), zap.String("detail", detail))
	}
	fail := func(stage Stage, kind ErrorKind, msg string) *Result {
		res.Success = false
		res.Stage = stage
		res.Kind = kind
		res.Message = msg
		log.Error("publish failed", zap.String("stage", string(stage)), zap.String("error", msg))
		report(StageFailed, msg)
		return res
	}

	if opts.OutDir == "" || opts.ProjectDir == "" {
		return fail(StageAnalyzing, KindValidation, "project and output directories are required")
	}
	if err := resetDir(opts.OutDir); err != nil {
		return fail(StageAnalyzing, KindValidation, err.Error())
	}

	rt := framework.RuntimeFor(reg.Framework())

	// Analyzing
	report(StageAnalyzing, fmt.Sprintf("%d components", len(opts.Components)))
	ares := analyzer.New(rt).Analyze(ctx, opts.Components, opts.Metadata, opts.ProjectDir)
	if len(ares.Errors) > 0 {
		msgs := make([]string, 0, len(ares.Errors))
		for _, e := range ares.Errors {
			msgs = append(msgs, e.Error())
		}
		return fail(StageAnalyzing, KindValidation, strings.Join(msgs, "; "))
	}
	res.Detected = ares.Deps

	// BuildingClient
	report(StageBuildingClient, fmt.Sprintf("%d components", len(opts.Components)))
	b, err := reg.Builder()
	if err != nil {
		return fail(StageBuildingClient, KindValidation, err.Error())
	}
	clientReport := b.BuildComponents(ctx, opts.Components, opts.ProjectDir, filepath.Join(opts.OutDir, "components"), ares.Deps)
	res.Outputs = clientReport.Outputs
	if !clientReport.Success {
		return fail(StageBuildingClient, KindCompile, clientReport.Message)
	}

	// BuildingServer
	report(StageBuildingServer, fmt.Sprintf("%d components", len(opts.Components)))
	serverReport := b.BuildServerComponents(ctx, opts.Components, opts.ProjectDir, filepath.Join(opts.OutDir, "server"))
	if !serverReport.Success {
		return fail(StageBuildingServer, KindCompile, serverReport.Message)
	}

	// BundlingFrameworkDeps
	report(StageBundlingFrameworkDeps, reg.Framework().String())
	d, err := reg.Bundler()
	if err != nil {
		return fail(StageBundlingFrameworkDeps, KindValidation, err.Error())
	}
	depsDir := filepath.Join(opts.OutDir, "deps")
	fwDeps, err := d.BundleDependencies(ctx, opts.Metadata, opts.ProjectDir, depsDir)
	if err != nil {
		return fail(StageBundlingFrameworkDeps, KindCompile, err.Error())
	}

	// BundlingDetectedDeps
	report(StageBundlingDetectedDeps, fmt.Sprintf("%d dependencies", len(ares.Deps)))
	if _, err := d.BundleDetectedDependencies(ctx, ares.Deps, opts.ProjectDir, depsDir); err != nil {
		return fail(StageBundlingDetectedDeps, KindCompile, err.Error())
	}
	if tb, ok := d.(themeBuilder); ok {
		if _, err := tb.BuildThemeStylesheet(ctx, opts.Metadata, opts.ProjectDir, opts.OutDir); err != nil {
			kind := KindCompile
			if errors.Is(err, toolchain.ErrToolUnavailable) {
				kind = KindTool
			}
			return fail(StageBundlingDetectedDeps, kind, err.Error())
		}
	}

	// BundlingServerDeps
	report(StageBundlingServerDeps, reg.Framework().String())
	if _, err := d.BundleServerDependencies(ctx, opts.Metadata, opts.ProjectDir, filepath.Join(opts.OutDir, "server-deps")); err != nil {
		return fail(StageBundlingServerDeps, KindCompile, err.Error())
	}

	// GeneratingManifest
	report(StageGeneratingManifest, "")
	man := buildManifest(rt, opts.Metadata, clientReport.Outputs, fwDeps, ares.Deps)
	if err := man.Write(filepath.Join(opts.OutDir, "manifest.json")); err != nil {
		return fail(StageGeneratingManifest, KindValidation, err.Error())
	}
	res.Manifest = man

	// GeneratingImportMap
	report(StageGeneratingImportMap, "")
	gen, err := reg.ImportMaps()
	if err != nil {
		return fail(StageGeneratingImportMap, KindValidation, err.Error())
	}
	im, stylesheets, err := gen.GenerateWithStylesheets(opts.Metadata, framework.ImportMapOptions{
		StorageBaseURL:  opts.StorageBaseURL,
		StorageBasePath: opts.StorageBasePath,
		DetectedDeps:    ares.Deps,
	})
	if err != nil {
		return fail(StageGeneratingImportMap, KindValidation, err.Error())
	}
	if err := im.Write(filepath.Join(opts.OutDir, "import-map.json")); err != nil {
		return fail(StageGeneratingImportMap, KindValidation, err.Error())
	}
	res.ImportMap = im
	res.Stylesheets = stylesheets

	// Uploading
	if opts.Transfer != nil {
		report(StageUploading, opts.OutDir)
		packID, err := opts.Transfer(ctx, opts.OutDir, man)
		if err != nil {
			return fail(StageUploading, KindTransfer, err.Error())
		}
		res.PackID = packID
	} else {
		report(StageUploading, "skipped (no transfer function)")
	}

	res.Success = true
	res.Stage = StageDone
	report(StageDone, "")
	return res
}

func buildManifest(rt framework.Runtime, meta manifest.PackageMetadata, outputs []manifest.BuildOutput, fwDeps []manifest.BundledDependency, detected []manifest.DetectedDependency) *manifest.Manifest {
	man := &manifest.Manifest{
		Framework: rt.Framework.String(),
		CreatedAt: time.Now().UTC(),
	}
	if primary := rt.Primary(); primary != "" {
		man.FrameworkVersion = manifest.NormalizeVersion(meta.Dependencies[primary])
	}

	for _, out := range outputs {
		man.Components = append(man.Components, out.Name)
	}

	for _, dep := range fwDeps {
		man.Deps = append(man.Deps, manifest.ManifestDep{
			Name:        dep.Name,
			Version:     dep.Version,
			StoragePath: manifest.DepStoragePath(dep.Name, dep.Version),
			SubExports:  sortedKeys(dep.SubExports),
		})
	}
	for _, dep := range detected {
		man.Deps = append(man.Deps, manifest.ManifestDep{
			Name:        dep.Name,
			Version:     manifest.NormalizeVersion(dep.Version),
			StoragePath: manifest.DepStoragePath(dep.Name, dep.Version),
			SubExports:  dep.SubExports,
			CSSImports:  dep.CSSImports,
		})
	}
	return man
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
