package topology

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/launchgraph/pkg/errors"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		factory string
		want    Kind
		known   bool
	}{
		{"pipeline", KindContainer, true},
		{"bin", KindContainer, true},
		{"capsfilter", KindFilter, true},
		{"tee", KindLeaf, true},
		{"videotestsrc", KindLeaf, false},
	}
	for _, tt := range tests {
		k, ok := r.Classify(tt.factory)
		if ok != tt.known || (ok && k != tt.want) {
			t.Errorf("Classify(%q) = %v, %v; want %v, %v", tt.factory, k, ok, tt.want, tt.known)
		}
	}
	if got := r.Factories(KindContainer); !slices.Equal(got, []string{"bin", "pipeline"}) {
		t.Errorf("Factories(container) = %v", got)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("video", "videoconvert", KindLeaf)
	r.Register("video", "videoscale", KindLeaf)
	r.Register("audio", "audioconvert", KindLeaf)
	r.Register("moved", "videoscale", KindFilter)

	if got := r.Plugins(); !slices.Equal(got, []string{"audio", "moved", "video"}) {
		t.Errorf("Plugins() = %v", got)
	}
	contents := r.Contents()
	if got := contents["video"]; len(got) != 1 || got[0].Factory != "videoconvert" {
		t.Errorf("video features = %v", got)
	}
	if k, _ := r.Classify("videoscale"); k != KindFilter {
		t.Errorf("re-registered kind = %v", k)
	}

	r.Register("audio", "audioconvert", KindContainer)
	r.Register("audio2", "audioconvert", KindLeaf)
	if _, ok := r.Contents()["audio"]; ok {
		t.Error("empty plugin not removed")
	}

	merged := DefaultRegistry()
	merged.Merge(r)
	if _, ok := merged.Classify("videoconvert"); !ok {
		t.Error("Merge lost a factory")
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"reg.yaml": "plugins:\n  camera:\n    - {factory: camerabin, kind: container}\n    - {factory: v4l2src}\n",
		"reg.toml": "[[plugins.camera]]\nfactory = \"camerabin\"\nkind = \"container\"\n\n[[plugins.camera]]\nfactory = \"v4l2src\"\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			r, err := LoadRegistry(path)
			if err != nil {
				t.Fatalf("LoadRegistry: %v", err)
			}
			if k, ok := r.Classify("camerabin"); !ok || k != KindContainer {
				t.Errorf("camerabin = %v, %v", k, ok)
			}
			if k, ok := r.Classify("v4l2src"); !ok || k != KindLeaf {
				t.Errorf("v4l2src = %v, %v", k, ok)
			}
			if _, ok := r.Classify("capsfilter"); !ok {
				t.Error("defaults not kept")
			}
		})
	}

	t.Run("BadKind", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		_ = os.WriteFile(path, []byte("plugins:\n  x:\n    - {factory: y, kind: widget}\n"), 0o644)
		if _, err := LoadRegistry(path); !errors.Is(err, errors.ErrCodeInvalidRegistry) {
			t.Errorf("got %v", err)
		}
	})
	t.Run("Missing", func(t *testing.T) {
		if _, err := LoadRegistry(filepath.Join(dir, "nope.yaml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("got %v", err)
		}
	})
}
