package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/httputil"
	"github.com/matzehuels/erdflow/pkg/pipeline"
	"github.com/matzehuels/erdflow/pkg/schema"
	"github.com/matzehuels/erdflow/pkg/session"
)

// =============================================================================
// Request and Response Bodies
// =============================================================================

// CreateResponse is the answer to POST /sessions.
type CreateResponse struct {
	ID      string          `json:"id"`
	Diagram diagram.Diagram `json:"diagram"`
}

// SizeEntry is one measurement of POST /sessions/{id}/sizes.
type SizeEntry struct {
	NodeID string  `json:"nodeId"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SizeBatch accepts a single SizeEntry object or a list of them.
type SizeBatch []SizeEntry

// UnmarshalJSON implements json.Unmarshaler.
func (b *SizeBatch) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []SizeEntry
		if err := dec.Decode(&entries); err != nil {
			return err
		}
		*b = entries
		return nil
	}
	var e SizeEntry
	if err := dec.Decode(&e); err != nil {
		return err
	}
	*b = SizeBatch{e}
	return nil
}

// HighlightRequest selects edges by id or by an attached field.
type HighlightRequest struct {
	Edges []diagram.EdgeID `json:"edges,omitempty"`
	Field string           `json:"field,omitempty"`
}

// HighlightResponse lists the edges a request highlighted.
type HighlightResponse struct {
	Highlighted []diagram.EdgeID `json:"highlighted"`
	Diagram     diagram.Diagram  `json:"diagram"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	db, err := s.readSchema(r, true)
	if err != nil {
		s.fail(w, err)
		return
	}
	sess, err := session.New(s.runner, s.cfg.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	_ = s.store.Set(r.Context(), sess)
	sess.SetSchema(db)

	d, err := sess.Flush(r.Context())
	if err != nil {
		s.logger.Warn("initial layout failed", "session", sess.ID, "err", err)
	}
	s.logger.Info("session created", "session", sess.ID, "tables", db.TableCount())
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{ID: sess.ID, Diagram: d})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_ = s.store.Delete(r.Context(), sess.ID)
	if s.cfg.Snapshots != nil {
		if err := s.cfg.Snapshots.Delete(r.Context(), sess.ID); err != nil {
			s.logger.Warn("remove session snapshot", "session", sess.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	d, err := sess.Flush(r.Context())
	if err != nil {
		s.logger.Debug("serving previous layout", "session", sess.ID, "err", err)
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == pipeline.FormatJSON {
		httputil.WriteJSON(w, http.StatusOK, d)
		return
	}
	artifacts, err := pipeline.Render(r.Context(), d, []string{format}, pipeline.RenderOptions{
		Detailed: r.URL.Query().Get("detailed") == "true",
		Fallback: s.cfg.Options.FallbackSize(),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	db, err := s.readSchema(r, false)
	if err != nil {
		s.fail(w, err)
		return
	}
	sess.SetSchema(db)
	s.respondDiagram(w, r, sess)
}

func (s *Server) handleSizes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var batch SizeBatch
	if err := httputil.DecodeJSON(r, &batch, 0); err != nil {
		s.fail(w, err)
		return
	}
	sizes := make(map[string]diagram.Size, len(batch))
	for _, e := range batch {
		sizes[e.NodeID] = diagram.Size{Width: e.Width, Height: e.Height}
	}
	if err := sess.MeasureAll(sizes); err != nil {
		s.fail(w, err)
		return
	}
	s.respondDiagram(w, r, sess)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req HighlightRequest
	if err := httputil.DecodeJSON(r, &req, 0); err != nil {
		s.fail(w, err)
		return
	}
	if len(req.Edges) == 0 && req.Field == "" {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "highlight needs edges or a field"))
		return
	}

	d, _ := sess.Flush(r.Context())
	ids := make([]diagram.EdgeID, 0, len(req.Edges))
	for _, id := range req.Edges {
		if _, ok := d.Edge(id); !ok {
			s.fail(w, errors.New(errors.ErrCodeNotFound, "edge %s not found", id))
			return
		}
		ids = append(ids, id)
	}
	sess.Orchestrator.Highlight(ids...)
	if req.Field != "" {
		ids = append(ids, sess.Orchestrator.HighlightField(req.Field)...)
	}
	httputil.WriteJSON(w, http.StatusOK, HighlightResponse{Highlighted: ids, Diagram: sess.Diagram()})
}

func (s *Server) handleUnhighlight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req HighlightRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req, 0); err != nil {
			s.fail(w, err)
			return
		}
	}
	sess.Orchestrator.Unhighlight(req.Edges...)
	httputil.WriteJSON(w, http.StatusOK, sess.Diagram())
}

// =============================================================================
// Helpers
// =============================================================================

// session looks up the session of the {id} URL parameter and writes a 404
// when it does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sess, true
}

// respondDiagram flushes the session and writes its diagram. A failed
// build still answers 200 with the previous layout; the failure is one of
// its diagnostics.
func (s *Server) respondDiagram(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	d, err := sess.Flush(r.Context())
	if err != nil {
		s.logger.Warn("relayout failed", "session", sess.ID, "err", err)
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// readSchema decodes a JSON or YAML schema body. When optional is set an
// empty body yields a nil schema.
func (s *Server) readSchema(r *http.Request, optional bool) (*schema.Database, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, httputil.DefaultBodyLimit+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) > httputil.DefaultBodyLimit {
		return nil, errors.New(errors.ErrCodeInvalidInput, "schema exceeds %d bytes", httputil.DefaultBodyLimit)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if optional {
			return nil, nil
		}
		return nil, errors.New(errors.ErrCodeInvalidSchema, "request body holds no schema")
	}
	return schema.Parse(data, schemaFormat(r.Header.Get("Content-Type"), data))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	httputil.WriteError(w, s.logger, err)
}

// schemaFormat picks the decoder from the content type. Without one, a
// body that does not start with '{' is taken as YAML.
func schemaFormat(contentType string, body []byte) schema.Format {
	if contentType == "" {
		if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
			return schema.FormatJSON
		}
		return schema.FormatYAML
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	if strings.Contains(mt, "yaml") {
		return schema.FormatYAML
	}
	return schema.FormatJSON
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}
