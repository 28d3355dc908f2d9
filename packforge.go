// Package packforge packages UI components into independently loadable
// browser modules that share one framework runtime instance at load time,
// and produces the import map a browser needs to wire them together.
package packforge

import (
	"context"

	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/builder"
	"github.com/packforge/packforge/internal/bundler"
	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/importmap"
	"github.com/packforge/packforge/internal/manifest"
	"github.com/packforge/packforge/internal/publish"
)

type (
	ComponentDescriptor = manifest.ComponentDescriptor
	PackageMetadata     = manifest.PackageMetadata
	DetectedDependency  = manifest.DetectedDependency
	BuildOutput         = manifest.BuildOutput
	Manifest            = manifest.Manifest
	ImportMap           = manifest.ImportMap

	Options      = publish.Options
	Result       = publish.Result
	Progress     = publish.Progress
	ProgressFunc = publish.ProgressFunc
	TransferFunc = publish.TransferFunc

	Framework = framework.Framework
)

// Detect returns the UI framework declared by the merged dependency map,
// defaulting to React.
func Detect(meta PackageMetadata) Framework {
	return framework.Detect(meta)
}

// NewRegistry wires the capability implementations for one framework
// variant. Vanilla carries no runtime, so it has no dependency bundler; the
// registry reports the missing capability instead of falling back.
func NewRegistry(fw Framework, log *zap.Logger) *framework.Registry {
	rt := framework.RuntimeFor(fw)
	b := builder.New(rt, log)
	gen := importmap.New(rt)
	if fw == framework.Vanilla {
		return framework.NewRegistry(fw, b, nil, gen)
	}
	return framework.NewRegistry(fw, b, bundler.New(rt, log), gen)
}

// Publish runs the full pipeline against the detected framework.
func Publish(ctx context.Context, opts Options) *Result {
	fw := Detect(opts.Metadata)
	return publish.Run(ctx, NewRegistry(fw, opts.Logger), opts)
}
