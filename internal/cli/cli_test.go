package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/observability"
)

const chainSnapshot = `
name: pipeline0
factory: pipeline
children:
  - {name: src, factory: videotestsrc, outputs: [src], properties: [{name: pattern, value: 18, default: 0}]}
  - {name: conv, factory: videoconvert, inputs: [sink], outputs: [src]}
  - {name: sink, factory: fakesink, inputs: [sink], properties: [{name: sync, value: false, default: true}]}
links:
  - {from: src.src, to: conv.sink}
  - {from: conv.src, to: sink.sink}
`

const chainLaunch = `videotestsrc \
    pattern=18 \
! videoconvert \
! fakesink \
    sync=false
`

const cycleSnapshot = `
children:
  - {name: a, factory: identity, inputs: [sink], outputs: [src]}
  - {name: b, factory: identity, inputs: [sink], outputs: [src]}
links:
  - {from: a.src, to: b.sink}
  - {from: b.src, to: a.sink}
`

// isolate points the XDG directories at a temp dir so tests never touch
// the real cache or config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv(envRedisAddr, "")
	t.Setenv(envCachePrefix, "")
	t.Setenv(envMongoURI, "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with args and returns what it wrote to its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLaunchCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainSnapshot)

	out, err := run(t, "launch", "--no-command", path)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if out != chainLaunch {
		t.Errorf("output =\n%s\nwant\n%s", out, chainLaunch)
	}

	out, err = run(t, "launch", "--command", "gst-launch-1.0", "--element-indent", "\t", path)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if !strings.HasPrefix(out, "gst-launch-1.0 \\\nvideotestsrc \\\n") {
		t.Errorf("output does not start with the command line:\n%s", out)
	}
}

func TestLaunchCommandOutputFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainSnapshot)
	output := filepath.Join(dir, "chain.sh")

	if _, err := run(t, "launch", "--verify", "-o", output, path); err != nil {
		t.Fatalf("launch: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "gst-launch-1.0 -ev \\\n") || !strings.HasSuffix(string(data), "sync=false\n") {
		t.Errorf("file content =\n%s", data)
	}
}

func TestLaunchCommandDefaultPolicy(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainSnapshot)
	writeFile(t, dir, filepath.Join("config", appName, policyFile), "videotestsrc: [pattern]\n")

	out, err := run(t, "launch", "--no-command", "--no-cache", path)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if strings.Contains(out, "pattern=") {
		t.Errorf("default policy not applied:\n%s", out)
	}

	explicit := writeFile(t, dir, "keep.toml", "fakesink = [\"*\"]\n")
	out, err = run(t, "launch", "--no-command", "--no-cache", "--discard-config", explicit, path)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if !strings.Contains(out, "pattern=18") || strings.Contains(out, "sync=") {
		t.Errorf("explicit policy not applied:\n%s", out)
	}
}

func TestLaunchCommandErrors(t *testing.T) {
	dir := isolate(t)
	chain := writeFile(t, dir, "chain.yaml", chainSnapshot)
	cycle := writeFile(t, dir, "cycle.yaml", cycleSnapshot)
	text := writeFile(t, dir, "chain.txt", chainSnapshot)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"MissingFile", []string{"launch", filepath.Join(dir, "missing.yaml")}, errors.ErrCodeFileNotFound},
		{"UnknownExtension", []string{"launch", text}, errors.ErrCodeInvalidFormat},
		{"BadIndent", []string{"launch", "--element-indent", "x", chain}, errors.ErrCodeInvalidIndent},
		{"NegativeLevel", []string{"launch", "--level", "-1", chain}, errors.ErrCodeInvalidInput},
		{"Cycle", []string{"launch", "--no-cache", cycle}, errors.ErrCodeCyclicTopology},
		{"MissingRegistry", []string{"launch", "--registry", filepath.Join(dir, "nope.yaml"), chain}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLaunchCommandRedis(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainSnapshot)
	mr := miniredis.RunT(t)

	for i := 0; i < 2; i++ {
		out, err := run(t, "launch", "--no-command", "--redis-addr", mr.Addr(), path)
		if err != nil {
			t.Fatalf("launch #%d: %v", i, err)
		}
		if out != chainLaunch {
			t.Errorf("launch #%d output =\n%s", i, out)
		}
	}
	if len(mr.Keys()) == 0 {
		t.Error("nothing was cached in redis")
	}

	mr.FlushAll()
	if _, err := run(t, "launch", "--no-command", "--redis-addr", mr.Addr(), "--cache-prefix", "staging:", path); err != nil {
		t.Fatalf("launch with prefix: %v", err)
	}
	keys := mr.Keys()
	if len(keys) == 0 {
		t.Fatal("nothing was cached in redis")
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "staging:") {
			t.Errorf("key %q lacks the prefix", k)
		}
	}
}

func TestGraphCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainSnapshot)

	out, err := run(t, "graph", "--clusters", "--detailed", path)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	for _, want := range []string{"digraph G {", `"pipeline0/src" -> "pipeline0/conv";`, `subgraph "cluster_pipeline0"`} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "graph", "--json", path)
	if err != nil {
		t.Fatalf("graph --json: %v", err)
	}
	var doc graph.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Errorf("document has %d nodes and %d edges, want 3 and 2", len(doc.Nodes), len(doc.Edges))
	}

	output := filepath.Join(dir, "chain.dot")
	if _, err := run(t, "graph", "-o", output, path); err != nil {
		t.Fatalf("graph -o: %v", err)
	}
	if data, _ := os.ReadFile(output); !bytes.HasPrefix(data, []byte("digraph G {")) {
		t.Errorf("file content = %q", data)
	}

	if _, err := run(t, "graph", "--format", "gif", path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("--format gif: %v", err)
	}
}

func TestRegistryCommand(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "registry")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	for _, want := range []string{"coreelements", "capsfilter", "pipeline", "container"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "registry", "--kind", "filter")
	if err != nil {
		t.Fatalf("registry --kind: %v", err)
	}
	if !strings.Contains(out, "capsfilter") || strings.Contains(out, "fakesink") {
		t.Errorf("kind filter not applied:\n%s", out)
	}

	file := writeFile(t, dir, "camera.yaml", "plugins:\n  camera:\n    - {factory: camerabin, kind: container}\n")
	out, err = run(t, "registry", "--registry", file)
	if err != nil {
		t.Fatalf("registry --registry: %v", err)
	}
	if !strings.Contains(out, "camerabin") || !strings.Contains(out, "camera") {
		t.Errorf("registry file not loaded:\n%s", out)
	}

	if _, err := run(t, "registry", "--kind", "widget"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("--kind widget: %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s does not mention %s", shell, appName)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestSetLogLevelRegistersHooks(t *testing.T) {
	defer observability.Reset()

	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogInfo)
	if _, ok := observability.Pipeline().(*observability.LogHooks); ok {
		t.Error("hooks registered at info level")
	}
	c.SetLogLevel(LogDebug)
	if _, ok := observability.Pipeline().(*observability.LogHooks); !ok {
		t.Errorf("Pipeline() = %T, want *LogHooks", observability.Pipeline())
	}
	if _, ok := observability.HTTP().(*observability.LogHooks); !ok {
		t.Errorf("HTTP() = %T, want *LogHooks", observability.HTTP())
	}
}

func TestExamples(t *testing.T) {
	isolate(t)
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no examples found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			out, err := run(t, "launch", "--verify", "--no-cache", path)
			if err != nil {
				t.Fatalf("launch: %v", err)
			}
			if !strings.HasPrefix(out, "gst-launch-1.0 -ev \\\n") {
				t.Errorf("output =\n%s", out)
			}
		})
	}
}
