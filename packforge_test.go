package packforge

import (
	"errors"
	"testing"

	"github.com/packforge/packforge/internal/framework"
)

func TestNewRegistryWiresAllCapabilities(t *testing.T) {
	for _, fw := range []Framework{framework.React, framework.Vue, framework.Svelte} {
		reg := NewRegistry(fw, nil)
		if _, err := reg.Builder(); err != nil {
			t.Errorf("%s: Builder: %v", fw, err)
		}
		if _, err := reg.Bundler(); err != nil {
			t.Errorf("%s: Bundler: %v", fw, err)
		}
		if _, err := reg.ImportMaps(); err != nil {
			t.Errorf("%s: ImportMaps: %v", fw, err)
		}
	}
}

func TestNewRegistryVanillaHasNoBundler(t *testing.T) {
	reg := NewRegistry(framework.Vanilla, nil)

	if _, err := reg.Builder(); err != nil {
		t.Errorf("Builder: %v", err)
	}
	_, err := reg.Bundler()
	if !errors.Is(err, framework.ErrUnknownCapability) {
		t.Errorf("Bundler error = %v, want ErrUnknownCapability", err)
	}
}

func TestDetect(t *testing.T) {
	meta := PackageMetadata{Dependencies: map[string]string{"svelte": "^5.0.0"}}
	if got := Detect(meta); got != framework.Svelte {
		t.Errorf("Detect = %v, want Svelte", got)
	}
}
