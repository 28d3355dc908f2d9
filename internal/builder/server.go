package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/manifest"
)

// BuildServerComponents compiles one self-contained server-rendering module
// per component into <outDir>/<name>/server.js. For each component a wrapper
// source is synthesized next to the component's entry point; it imports the
// component and the framework's server-render entry and exports both the
// component and a render(props) function returning markup. The wrapper is a
// scoped temporary file, removed on every exit path.
//
// Unlike client builds, nothing is externalized here. The server module
// carries its own runtime copy so server rendering stays consistent no
// matter what the client later resolves through the import map.
func (b *Builder) BuildServerComponents(ctx context.Context, comps []manifest.ComponentDescriptor, projectDir, outDir string) *manifest.BuildReport {
	report := &manifest.BuildReport{Success: true}

	// Vanilla components have no server-render entry; nothing to build.
	if b.rt.ServerWrapper == "" {
		return report
	}

	if err := resetDir(outDir); err != nil {
		report.Success = false
		report.Message = err.Error()
		return report
	}

	tmpl, err := template.New("server-wrapper").Parse(b.rt.ServerWrapper)
	if err != nil {
		report.Success = false
		report.Message = err.Error()
		return report
	}

	for _, comp := range comps {
		if err := ctx.Err(); err != nil {
			return fail(report, comp.Name, err)
		}

		out, err := b.buildServer(tmpl, comp, projectDir, filepath.Join(outDir, comp.Name))
		if err != nil {
			b.log.Warn("server build failed", zap.String("component", comp.Name), zap.Error(err))
			return fail(report, comp.Name, err)
		}
		report.Outputs = append(report.Outputs, out)
	}

	return report
}

func (b *Builder) buildServer(tmpl *template.Template, comp manifest.ComponentDescriptor, projectDir, dir string) (manifest.BuildOutput, error) {
	out := manifest.BuildOutput{Name: comp.Name, DisplayName: comp.DisplayName}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Import": "./" + filepath.Base(comp.EntryPoint),
		"Name":   comp.Name,
	}); err != nil {
		return out, err
	}

	wrapperPath := filepath.Join(comp.SourceDir, fmt.Sprintf(".packforge-server-%s.js", comp.Name))
	if err := os.WriteFile(wrapperPath, buf.Bytes(), 0o644); err != nil {
		return out, err
	}
	defer os.Remove(wrapperPath)

	opts := api.BuildOptions{
		EntryPoints:   []string{wrapperPath},
		AbsWorkingDir: projectDir,
		Outfile:       filepath.Join(dir, serverModuleName),
		Bundle:        true,
		Write:         true,
		Format:        api.FormatESModule,
		Platform:      api.PlatformNode,
		Target:        api.ES2020,
		Sourcemap:     api.SourceMapNone,
		LogLevel:      api.LogLevelSilent,
	}
	applyBuildMode(&opts)
	// Keep identifiers readable in server stack traces.
	opts.MinifyIdentifiers = false
	if b.rt.JSXImportSource != "" {
		opts.JSX = api.JSXAutomatic
		opts.JSXImportSource = b.rt.JSXImportSource
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return out, compileError(res.Errors)
	}

	out.ModulePath = opts.Outfile
	out.Size = fileSize(opts.Outfile)
	return out, nil
}
