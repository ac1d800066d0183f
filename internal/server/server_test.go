package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/launchgraph/pkg/observability"
	"github.com/matzehuels/launchgraph/pkg/store"
)

const jsonSnapshot = `{
  "name": "pipeline0",
  "factory": "pipeline",
  "children": [
    {"name": "src", "factory": "videotestsrc", "outputs": ["src"], "properties": [{"name": "pattern", "value": 18, "default": 0}]},
    {"name": "sink", "factory": "fakesink", "inputs": ["sink"]}
  ],
  "links": [{"from": "src.src", "to": "sink.sink"}]
}`

const yamlCycle = `
children:
  - {name: a, factory: identity, inputs: [sink], outputs: [src]}
  - {name: b, factory: identity, inputs: [sink], outputs: [src]}
links:
  - {from: a.src, to: b.sink}
  - {from: b.src, to: a.sink}
`

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := New(Config{Store: st, Logger: log.New(io.Discard)})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func post(t *testing.T, url, contentType, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := post(t, ts.URL+"/v1/launch?command=&verify=true", "application/json", jsonSnapshot)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}
	created := decodeBody[launchResponse](t, resp)
	want := "videotestsrc \\\n    pattern=18 \\\n! fakesink"
	if created.Launch != want || created.Nodes != 2 || created.Edges != 1 || created.ID == "" {
		t.Errorf("created = %+v", created)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/launch/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	get, err := http.Get(ts.URL + "/v1/launch/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	rec := decodeBody[store.Record](t, get)
	if rec.Launch != want || len(rec.Graph.Nodes) != 2 || rec.Format != "json" {
		t.Errorf("record = %+v", rec)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/launch/"+created.ID, nil)
	req.Header.Set("Accept", "text/plain")
	text, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer text.Body.Close()
	if body, _ := io.ReadAll(text.Body); string(body) != want+"\n" {
		t.Errorf("text body = %q", body)
	}
}

func TestCreateFormats(t *testing.T) {
	ts, _ := newTestServer(t)
	yamlBody := "children:\n  - {name: a, factory: fakesrc, outputs: [src]}\n  - {name: b, factory: fakesink, inputs: [sink]}\nlinks:\n  - {from: a.src, to: b.sink}\n"

	tests := []struct {
		name, query, contentType, body string
		status                         int
	}{
		{"YAMLContentType", "", "application/yaml", yamlBody, http.StatusCreated},
		{"YAMLQuery", "?format=yaml", "text/plain", yamlBody, http.StatusCreated},
		{"TOML", "", "application/toml", "name = \"a\"\nfactory = \"fakesrc\"\n", http.StatusCreated},
		{"UnknownContentType", "", "application/xml", "<a/>", http.StatusBadRequest},
		{"UnknownFormat", "?format=xml", "", "{}", http.StatusBadRequest},
		{"Empty", "", "application/json", "", http.StatusBadRequest},
		{"Malformed", "", "application/json", "{", http.StatusBadRequest},
		{"Cycle", "?format=yaml", "", yamlCycle, http.StatusUnprocessableEntity},
		{"BadIndent", "?element_indent=xx", "application/json", jsonSnapshot, http.StatusBadRequest},
		{"BadBool", "?verify=maybe", "application/json", jsonSnapshot, http.StatusBadRequest},
		{"BadDiscard", "?discard=nocolon", "application/json", jsonSnapshot, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/launch"+tt.query, tt.contentType, tt.body)
			if resp.StatusCode != tt.status {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestCreateDiscardAndText(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := post(t, ts.URL+"/v1/launch?command=&discard=videotestsrc:pattern", "application/json", jsonSnapshot, "Accept", "text/plain")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "videotestsrc \\\n! fakesink\n" {
		t.Errorf("body = %q", body)
	}
}

func TestGetErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/v1/launch/not-a-uuid", http.StatusBadRequest, "INVALID_INPUT"},
		{"/v1/launch/" + store.NewRecord(0).ID, http.StatusNotFound, "SNAPSHOT_NOT_FOUND"},
		{"/v1/launch?limit=0", http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		e := decodeBody[errorResponse](t, resp)
		resp.Body.Close()
		if resp.StatusCode != tt.status || e.Code != tt.code {
			t.Errorf("GET %s = %d %+v, want %d %s", tt.path, resp.StatusCode, e, tt.status, tt.code)
		}
	}
}

func TestList(t *testing.T) {
	ts, _ := newTestServer(t)
	for range 3 {
		post(t, ts.URL+"/v1/launch", "application/json", jsonSnapshot)
	}
	resp, err := http.Get(ts.URL + "/v1/launch?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body := decodeBody[struct {
		Records []store.Record `json:"records"`
	}](t, resp)
	if len(body.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(body.Records))
	}
	if body.Records[0].Snapshot != nil {
		t.Error("list should not include snapshot bodies")
	}
}

func TestGraph(t *testing.T) {
	ts, _ := newTestServer(t)
	created := decodeBody[launchResponse](t, post(t, ts.URL+"/v1/launch", "application/json", jsonSnapshot))

	resp, err := http.Get(ts.URL + "/v1/launch/" + created.ID + "/graph")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"pipeline0/src" -> "pipeline0/sink";`) {
		t.Errorf("graph = %d %s", resp.StatusCode, body)
	}

	bad, err := http.Get(ts.URL + "/v1/launch/" + created.ID + "/graph?format=gif")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("gif status = %d", bad.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body := decodeBody[map[string]any](t, resp)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, body)
	}
}

type routeRecorder struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *routeRecorder) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestObserveUsesRoutePattern(t *testing.T) {
	h := &routeRecorder{}
	observability.SetHTTPHooks(h)
	defer observability.Reset()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/launch/" + store.NewRecord(0).ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) != 1 || h.routes[0] != "GET /v1/launch/{id}" {
		t.Errorf("routes = %v", h.routes)
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(Config{Logger: log.New(io.Discard)})

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
