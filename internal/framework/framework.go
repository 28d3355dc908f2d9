// Package framework describes the supported UI-framework runtimes and
// dispatches the per-framework build capabilities. The set of variants is a
// closed enum; adding a runtime means adding a constant and a row in the
// runtime table, and the compiler flags every switch that misses it.
package framework

import (
	"strings"

	"github.com/packforge/packforge/internal/manifest"
)

// Framework is one of the supported UI-framework runtimes.
type Framework int

const (
	// React is the baseline variant used when detection finds no match.
	React Framework = iota
	Vue
	Svelte
	// Vanilla components carry no framework runtime at all.
	Vanilla
)

func (f Framework) String() string {
	switch f {
	case React:
		return "react"
	case Vue:
		return "vue"
	case Svelte:
		return "svelte"
	case Vanilla:
		return "vanilla"
	}
	return "unknown"
}

// detectOrder is the priority-ordered list of runtime package names checked
// against the merged dependency map. First match wins.
var detectOrder = []struct {
	pkg string
	fw  Framework
}{
	{"svelte", Svelte},
	{"vue", Vue},
	{"react", React},
}

// Detect inspects the merged dependency map and returns the first matching
// runtime, defaulting to React when none match.
func Detect(meta manifest.PackageMetadata) Framework {
	for _, d := range detectOrder {
		if _, ok := meta.Dependencies[d.pkg]; ok {
			return d.fw
		}
	}
	return React
}

// RuntimePackage is one npm package belonging to a framework runtime,
// together with its known sub-exports.
type RuntimePackage struct {
	Name       string
	SubExports []string
}

// Runtime describes how a framework's packages are externalized, bundled and
// server-rendered.
type Runtime struct {
	Framework Framework

	// Packages are the runtime packages that must be externalized from
	// component builds and bundled as standalone artifacts.
	Packages []RuntimePackage

	// ServerEntry is the specifier exposing the server-side render function.
	ServerEntry string

	// JSXImportSource configures the compiler's automatic JSX transform;
	// empty disables JSX handling.
	JSXImportSource string

	// Unified marks runtimes whose entry points share module-level singleton
	// state and therefore must be bundled as a single unified artifact with
	// thin façades per sub-export.
	Unified bool

	// UnifiedExports maps a sub-export name to the named symbols its façade
	// re-exports from the unified artifact. This table tracks the runtime's
	// public surface and must be revisited on framework major versions; it
	// is the fallback when export introspection of the compiled artifact is
	// unavailable.
	UnifiedExports map[string][]string

	// EagerInitImports are side-effect imports placed at the top of the
	// unified artifact so singleton initialization happens exactly once, at
	// module-evaluation time.
	EagerInitImports []string

	// ServerWrapper is the text/template source of the synthesized
	// server-rendering entry. Fields: Import, Name.
	ServerWrapper string
}

var runtimes = map[Framework]Runtime{
	React: {
		Framework: React,
		Packages: []RuntimePackage{
			{Name: "react", SubExports: []string{"jsx-runtime", "jsx-dev-runtime"}},
			{Name: "react-dom", SubExports: []string{"client", "server"}},
		},
		ServerEntry:     "react-dom/server",
		JSXImportSource: "react",
		ServerWrapper:   reactServerWrapper,
	},
	Vue: {
		Framework: Vue,
		Packages: []RuntimePackage{
			{Name: "vue", SubExports: []string{"server-renderer"}},
		},
		ServerEntry:   "vue/server-renderer",
		ServerWrapper: vueServerWrapper,
	},
	Svelte: {
		Framework: Svelte,
		Packages: []RuntimePackage{
			{Name: "svelte", SubExports: []string{"store", "motion", "transition", "easing"}},
		},
		ServerEntry: "svelte/server",
		Unified:     true,
		UnifiedExports: map[string][]string{
			"": {
				"mount", "unmount", "hydrate", "tick", "flushSync", "untrack",
				"getContext", "setContext", "hasContext", "getAllContexts",
				"createEventDispatcher", "onMount", "onDestroy",
			},
			"store":      {"writable", "readable", "derived", "readonly", "get", "toStore", "fromStore"},
			"motion":     {"spring", "tweened", "prefersReducedMotion"},
			"transition": {"fade", "blur", "fly", "slide", "scale", "draw", "crossfade"},
			"easing":     {"linear", "cubicIn", "cubicOut", "cubicInOut", "quadIn", "quadOut", "quadInOut"},
		},
		EagerInitImports: []string{"svelte/internal/client"},
		ServerWrapper:    svelteServerWrapper,
	},
	Vanilla: {
		Framework: Vanilla,
	},
}

// RuntimeFor returns the runtime description for a framework.
func RuntimeFor(f Framework) Runtime {
	return runtimes[f]
}

// PackageNames lists the runtime's package names in declaration order.
func (r Runtime) PackageNames() []string {
	names := make([]string, 0, len(r.Packages))
	for _, p := range r.Packages {
		names = append(names, p.Name)
	}
	return names
}

// Primary is the runtime's main package name, empty for Vanilla.
func (r Runtime) Primary() string {
	if len(r.Packages) == 0 {
		return ""
	}
	return r.Packages[0].Name
}

// IsRuntimeSpecifier reports whether an import specifier belongs to the
// runtime: either a runtime package root or any sub-path under one.
func (r Runtime) IsRuntimeSpecifier(spec string) bool {
	for _, p := range r.Packages {
		if spec == p.Name || strings.HasPrefix(spec, p.Name+"/") {
			return true
		}
	}
	return false
}

// ExternalSpecifiers returns the wildcard patterns that exclude the runtime
// from a component build.
func (r Runtime) ExternalSpecifiers() []string {
	var out []string
	for _, p := range r.Packages {
		out = append(out, p.Name, p.Name+"/*")
	}
	return out
}

const reactServerWrapper = `import * as React from "react";
import { renderToString } from "react-dom/server";
import * as Mod from "{{.Import}}";

const Component =
  Mod.default ||
  Mod["{{.Name}}"] ||
  Object.values(Mod).find((x) => typeof x === "function");

export { Component as default };

export function render(props) {
  if (!Component) {
    throw new Error("no component export found in {{.Import}}");
  }
  return renderToString(React.createElement(Component, props || {}));
}
`

const vueServerWrapper = `import { createSSRApp } from "vue";
import { renderToString } from "vue/server-renderer";
import * as Mod from "{{.Import}}";

const Component = Mod.default || Mod["{{.Name}}"];

export { Component as default };

export function render(props) {
  if (!Component) {
    throw new Error("no component export found in {{.Import}}");
  }
  return renderToString(createSSRApp(Component, props || {}));
}
`

const svelteServerWrapper = `import { render as renderComponent } from "svelte/server";
import * as Mod from "{{.Import}}";

const Component = Mod.default || Mod["{{.Name}}"];

export { Component as default };

export function render(props) {
  if (!Component) {
    throw new Error("no component export found in {{.Import}}");
  }
  const { body } = renderComponent(Component, { props: props || {} });
  return body;
}
`
