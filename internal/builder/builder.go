// Package builder compiles components into standalone client modules and
// self-contained server-rendering modules.
//
// Client builds externalize the framework runtime and every detected
// dependency: the compiled module keeps bare import statements for those
// specifiers and relies on the import map to resolve them at load time.
// Server builds do the opposite and embed the runtime, so server rendering
// always uses one fixed, self-consistent runtime copy.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

const (
	clientModuleName = "index.js"
	stylesheetName   = "style.css"
	schemaName       = "schema.json"
	serverModuleName = "server.js"
)

type Builder struct {
	rt  framework.Runtime
	log *zap.Logger
}

func New(rt framework.Runtime, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{rt: rt, log: log}
}

// BuildComponents compiles each component, in input order, into
// <outDir>/<name>/index.js plus optional style.css and a verbatim copy of
// the schema file. The output directory is cleared first; stale artifacts
// from a previous run never survive. The first compile failure stops the
// remaining components and is reported through the BuildReport; outputs
// already written for earlier components are not rolled back.
func (b *Builder) BuildComponents(ctx context.Context, comps []manifest.ComponentDescriptor, projectDir, outDir string, deps []manifest.DetectedDependency) *manifest.BuildReport {
	report := &manifest.BuildReport{Success: true}

	if err := resetDir(outDir); err != nil {
		report.Success = false
		report.Message = err.Error()
		return report
	}

	externals := b.rt.ExternalSpecifiers()
	for _, d := range deps {
		externals = append(externals, d.Name, d.Name+"/*")
	}

	for _, comp := range comps {
		if err := ctx.Err(); err != nil {
			return fail(report, comp.Name, err)
		}

		out, err := b.buildClient(comp, projectDir, filepath.Join(outDir, comp.Name), externals)
		if err != nil {
			b.log.Warn("component build failed", zap.String("component", comp.Name), zap.Error(err))
			return fail(report, comp.Name, err)
		}
		b.log.Debug("component built",
			zap.String("component", comp.Name),
			zap.Int64("bytes", out.Size))
		report.Outputs = append(report.Outputs, out)
	}

	return report
}

func (b *Builder) buildClient(comp manifest.ComponentDescriptor, projectDir, dir string, externals []string) (manifest.BuildOutput, error) {
	out := manifest.BuildOutput{Name: comp.Name, DisplayName: comp.DisplayName}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, err
	}

	opts := api.BuildOptions{
		EntryPoints:   []string{comp.EntryPoint},
		AbsWorkingDir: projectDir,
		Outdir:        dir,
		EntryNames:    "index",
		Bundle:        true,
		Write:         true,
		Format:        api.FormatESModule,
		Platform:      api.PlatformBrowser,
		Target:        api.ES2020,
		External:      externals,
		Sourcemap:     api.SourceMapNone,
		LogLevel:      api.LogLevelSilent,
	}
	applyBuildMode(&opts)
	if b.rt.JSXImportSource != "" {
		opts.JSX = api.JSXAutomatic
		opts.JSXImportSource = b.rt.JSXImportSource
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return out, compileError(res.Errors)
	}

	modulePath := filepath.Join(dir, clientModuleName)
	out.ModulePath = modulePath
	out.Size = fileSize(modulePath)

	// esbuild emits extracted CSS as index.css next to the entry output.
	if emitted := filepath.Join(dir, "index.css"); fileSize(emitted) > 0 {
		stylePath := filepath.Join(dir, stylesheetName)
		if err := os.Rename(emitted, stylePath); err != nil {
			return out, err
		}
		out.StylesheetPath = stylePath
	}

	if comp.SchemaPath != "" {
		schemaDst := filepath.Join(dir, schemaName)
		if err := copyFile(comp.SchemaPath, schemaDst); err != nil {
			return out, fmt.Errorf("failed to copy schema for %s: %w", comp.Name, err)
		}
		out.SchemaPath = schemaDst
	}

	return out, nil
}

// applyBuildMode sets the fixed, deterministic optimization level for every
// compile: minified output, production define, no source maps. The mode is
// passed per invocation; no ambient process state is mutated.
func applyBuildMode(opts *api.BuildOptions) {
	opts.MinifyWhitespace = true
	opts.MinifyIdentifiers = true
	opts.MinifySyntax = true
	if opts.Define == nil {
		opts.Define = map[string]string{}
	}
	opts.Define["process.env.NODE_ENV"] = `"production"`
}

func fail(report *manifest.BuildReport, component string, err error) *manifest.BuildReport {
	report.Success = false
	report.FailedComponent = component
	report.Message = fmt.Sprintf("failed to build %s: %v", component, err)
	return report
}

func compileError(msgs []api.Message) error {
	m := msgs[0]
	if m.Location != nil {
		return fmt.Errorf("%s (%s:%d:%d)", m.Text, m.Location.File, m.Location.Line, m.Location.Column)
	}
	return errors.New(m.Text)
}

// fileSize returns the size of path in bytes, 0 when the file is absent. A
// missing artifact is a soft failure recorded as zero size.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
