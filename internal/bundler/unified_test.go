package bundler

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/packforge/packforge/internal/framework"
)

func TestUnifiedEntry(t *testing.T) {
	rt := framework.RuntimeFor(framework.Svelte)
	b := New(rt, nil)

	entry := b.unifiedEntry(rt.Packages[0].Name, rt.Packages[0].SubExports)

	// Eager singleton initialization must run before any re-export.
	idx := strings.Index(entry, `import "svelte/internal/client";`)
	if idx != 0 {
		t.Errorf("eager init import is not first, entry starts with %q", entry[:40])
	}
	if strings.Contains(entry, "export *") {
		t.Error("unified entry must use explicit named re-exports, not wildcards")
	}
	snaps.MatchSnapshot(t, entry)
}

func TestFacadeExports(t *testing.T) {
	rt := framework.RuntimeFor(framework.Svelte)
	b := New(rt, nil)

	t.Run("no introspection falls back to fixed table", func(t *testing.T) {
		got := b.facadeExports("store", nil)
		if len(got) != len(rt.UnifiedExports["store"]) {
			t.Errorf("facadeExports = %v", got)
		}
	})

	t.Run("narrowed to declared symbols", func(t *testing.T) {
		declared := map[string]bool{"writable": true, "readable": true, "mount": true}
		got := b.facadeExports("store", declared)
		want := []string{"readable", "writable"}
		if len(got) != len(want) {
			t.Fatalf("facadeExports = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("facadeExports[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("empty intersection falls back to fixed table", func(t *testing.T) {
		declared := map[string]bool{"unrelated": true}
		got := b.facadeExports("easing", declared)
		if len(got) != len(rt.UnifiedExports["easing"]) {
			t.Errorf("facadeExports = %v", got)
		}
	})
}

func TestDeclaredExports(t *testing.T) {
	metafile := `{
	  "outputs": {
	    "deps/svelte@5.0.0/index.js": {
	      "exports": ["mount", "unmount", "writable"]
	    }
	  }
	}`

	declared := declaredExports(metafile, "/tmp/out/deps/svelte@5.0.0/index.js")
	for _, name := range []string{"mount", "unmount", "writable"} {
		if !declared[name] {
			t.Errorf("declared missing %q", name)
		}
	}

	if got := declaredExports("", "/tmp/index.js"); len(got) != 0 {
		t.Errorf("empty metafile produced %v", got)
	}
	if got := declaredExports("{not json", "/tmp/index.js"); len(got) != 0 {
		t.Errorf("bad metafile produced %v", got)
	}
}
