package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/launchgraph/pkg/buildinfo"
	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/pipeline"
	"github.com/matzehuels/launchgraph/pkg/render/dot"
	"github.com/matzehuels/launchgraph/pkg/store"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

// launchResponse is the body answered to POST /v1/launch.
type launchResponse struct {
	ID           string `json:"id"`
	Launch       string `json:"launch"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	Cached       bool   `json:"cached"`
	SnapshotHash string `json:"snapshot_hash"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Current()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "empty snapshot"))
		return
	}

	in := pipeline.Input{Data: body, Format: format, Source: "request " + middleware.GetReqID(r.Context())}
	res, err := s.cfg.Runner.Execute(r.Context(), in, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.cfg.Runner.Document(r.Context(), in, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := store.NewRecord(s.cfg.RecordTTL)
	rec.SnapshotHash = res.SnapshotHash
	rec.Format = string(format)
	rec.Snapshot = body
	rec.Launch = res.Launch
	rec.Graph = doc
	if err := s.cfg.Store.Put(r.Context(), rec); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store snapshot"))
		return
	}

	if acceptsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Location", "/v1/launch/"+rec.ID)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, res.Launch+"\n")
		return
	}
	w.Header().Set("Location", "/v1/launch/"+rec.ID)
	writeJSON(w, http.StatusCreated, launchResponse{
		ID:           rec.ID,
		Launch:       res.Launch,
		Nodes:        res.Stats.Nodes,
		Edges:        res.Stats.Edges,
		Cached:       res.CacheInfo.LaunchHit,
		SnapshotHash: res.SnapshotHash,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "list snapshots"))
		return
	}
	for _, rec := range recs {
		rec.Snapshot = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	if acceptsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, rec.Launch+"\n")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	opts := s.cfg.Defaults
	opts.Logger = s.cfg.Logger
	g, err := s.cfg.Runner.Build(r.Context(), pipeline.Input{Data: rec.Snapshot, Format: topology.Format(rec.Format), Source: rec.ID}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	src := dot.ToDOT(g, dot.Options{Clusters: true, Detailed: r.URL.Query().Get("detailed") == "true"})

	switch r.URL.Query().Get("format") {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		io.WriteString(w, src)
	case "svg":
		svg, err := dot.RenderSVG(r.Context(), src)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(svg)
	case "png":
		png, err := dot.RenderPNG(r.Context(), src)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render png"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q (want dot, svg or png)", r.URL.Query().Get("format")))
	}
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rec, true
}

// requestOptions applies query overrides to the configured defaults.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Logger = s.cfg.Logger
	q := r.URL.Query()

	if q.Has("command") {
		opts.Command = q.Get("command")
		opts.NoCommand = opts.Command == ""
	}
	if v := q.Get("element_indent"); v != "" {
		opts.ElementIndent = v
	}
	if v := q.Get("property_indent"); v != "" {
		opts.PropertyIndent = v
	}
	for name, dst := range map[string]*bool{"verify": &opts.Verify, "refresh": &opts.Refresh} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean", name)
			}
			*dst = b
		}
	}
	if v := q.Get("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "level must be an integer")
		}
		opts.Level = n
	}
	for _, entry := range q["discard"] {
		typ, key, ok := strings.Cut(entry, ":")
		if !ok || typ == "" || key == "" {
			return opts, errors.New(errors.ErrCodeInvalidInput, "discard must look like type:key, got %q", entry)
		}
		opts.Policy = opts.Policy.Merge(map[string][]string{typ: {key}})
	}
	return opts, nil
}

// requestFormat picks the snapshot format from the format query parameter
// or the Content-Type header. JSON is the default.
func requestFormat(r *http.Request) (topology.Format, error) {
	if v := r.URL.Query().Get("format"); v != "" {
		switch f := topology.Format(strings.ToLower(v)); f {
		case topology.FormatJSON, topology.FormatYAML, topology.FormatTOML:
			return f, nil
		}
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot format %q", v)
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return topology.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "bad content type")
	}
	switch mt {
	case "application/json":
		return topology.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return topology.FormatYAML, nil
	case "application/toml":
		return topology.FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported content type %q", mt)
}

func acceptsText(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Accept"), "text/plain")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		s.cfg.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.cfg.Logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: errors.UserMessage(err)})
}
