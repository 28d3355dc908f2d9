package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/framework"
	"github.com/packforge/packforge/internal/manifest"
)

func writeComponent(t *testing.T, dir, name, source string) manifest.ComponentDescriptor {
	t.Helper()
	path := filepath.Join(dir, name+".js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return manifest.ComponentDescriptor{
		Name:        name,
		DisplayName: name,
		EntryPoint:  path,
		SourceDir:   dir,
	}
}

func TestBuildComponents(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	schemaPath := filepath.Join(projectDir, "hero.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"title":"Hero"}`), 0o644))

	hero := writeComponent(t, projectDir, "Hero", `
import { carousel } from "carousel";
export function Hero() { return carousel("hero"); }
export default Hero;
`)
	hero.SchemaPath = schemaPath
	card := writeComponent(t, projectDir, "Card", `
export function Card() { return "card"; }
export default Card;
`)

	b := New(framework.RuntimeFor(framework.React), zap.NewNop())
	deps := []manifest.DetectedDependency{{Name: "carousel", Version: "2.1.0"}}
	report := b.BuildComponents(context.Background(), []manifest.ComponentDescriptor{hero, card}, projectDir, outDir, deps)

	require.True(t, report.Success, report.Message)
	require.Len(t, report.Outputs, 2)

	out := report.Outputs[0]
	require.Equal(t, "Hero", out.Name)
	require.Greater(t, out.Size, int64(0))
	require.Equal(t, filepath.Join(outDir, "Hero", "schema.json"), out.SchemaPath)

	// Detected dependencies stay external: the compiled module still carries
	// the bare specifier for the import map to resolve.
	module, err := os.ReadFile(out.ModulePath)
	require.NoError(t, err)
	require.Contains(t, string(module), `"carousel"`)
}

func TestBuildComponentsClearsStaleOutputs(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	stale := filepath.Join(outDir, "Removed", "index.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	comp := writeComponent(t, projectDir, "Hero", "export default function Hero() { return null; }\n")

	b := New(framework.RuntimeFor(framework.React), nil)
	report := b.BuildComponents(context.Background(), []manifest.ComponentDescriptor{comp}, projectDir, outDir, nil)

	require.True(t, report.Success, report.Message)
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale output from a previous run survived")
	}
}

func TestBuildComponentsStopsAtFirstFailure(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	good := writeComponent(t, projectDir, "Good", "export default function Good() { return null; }\n")
	broken := writeComponent(t, projectDir, "Broken", "export default function Broken( { return null; }\n")
	never := writeComponent(t, projectDir, "Never", "export default function Never() { return null; }\n")

	b := New(framework.RuntimeFor(framework.React), nil)
	report := b.BuildComponents(context.Background(), []manifest.ComponentDescriptor{good, broken, never}, projectDir, outDir, nil)

	require.False(t, report.Success)
	require.Equal(t, "Broken", report.FailedComponent)
	require.True(t, strings.HasPrefix(report.Message, "failed to build Broken:"), report.Message)

	// The first component's output is not rolled back; the third was never
	// attempted.
	require.Len(t, report.Outputs, 1)
	if _, err := os.Stat(filepath.Join(outDir, "Good", "index.js")); err != nil {
		t.Errorf("earlier output rolled back: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Never")); !os.IsNotExist(err) {
		t.Error("component after the failure was built")
	}
}

func TestBuildComponentsExtractsStylesheet(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "hero.css"), []byte(".hero { color: blue; }"), 0o644))
	comp := writeComponent(t, projectDir, "Hero", `
import "./hero.css";
export default function Hero() { return null; }
`)

	b := New(framework.RuntimeFor(framework.React), nil)
	report := b.BuildComponents(context.Background(), []manifest.ComponentDescriptor{comp}, projectDir, outDir, nil)

	require.True(t, report.Success, report.Message)
	out := report.Outputs[0]
	require.Equal(t, filepath.Join(outDir, "Hero", "style.css"), out.StylesheetPath)

	css, err := os.ReadFile(out.StylesheetPath)
	require.NoError(t, err)
	require.Contains(t, string(css), "color:")
}

// dependency-free wrapper so server builds run without an installed runtime.
const testServerWrapper = `import * as Mod from "{{.Import}}";
const Component = Mod.default || Mod["{{.Name}}"];
export { Component as default };
export function render(props) { return String(Component(props || {})); }
`

func TestBuildServerComponents(t *testing.T) {
	projectDir := t.TempDir()
	outDir := t.TempDir()

	comp := writeComponent(t, projectDir, "Hero", "export default function Hero(props) { return \"hero\"; }\n")

	rt := framework.Runtime{Framework: framework.React, ServerWrapper: testServerWrapper}
	b := New(rt, nil)
	report := b.BuildServerComponents(context.Background(), []manifest.ComponentDescriptor{comp}, projectDir, outDir)

	require.True(t, report.Success, report.Message)
	require.Len(t, report.Outputs, 1)

	module, err := os.ReadFile(filepath.Join(outDir, "Hero", "server.js"))
	require.NoError(t, err)
	require.Contains(t, string(module), "render")

	// The synthesized wrapper is temporary and must not survive the build.
	entries, err := os.ReadDir(projectDir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".packforge-server-") {
			t.Errorf("wrapper %s left behind", e.Name())
		}
	}
}

func TestBuildServerComponentsSkipsWrapperlessRuntime(t *testing.T) {
	b := New(framework.RuntimeFor(framework.Vanilla), nil)
	report := b.BuildServerComponents(context.Background(), nil, t.TempDir(), t.TempDir())
	require.True(t, report.Success)
	require.Empty(t, report.Outputs)
}

func TestFileSizeMissingArtifact(t *testing.T) {
	if got := fileSize(filepath.Join(t.TempDir(), "absent.js")); got != 0 {
		t.Errorf("fileSize of missing file = %d, want 0", got)
	}
}
