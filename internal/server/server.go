package server

import (
	"bytes"
	"crypto/sha1"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/HighlightReel/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Server serves the highlights API and the render browser.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "render.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /api/highlights/{poiId}", s.handleHighlight)
	s.mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	s.mux.HandleFunc("POST /api/telemetry", s.handleTelemetry)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /renders/{id}", s.handleRender)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	poiID := r.PathValue("poiId")
	locale := r.URL.Query().Get("locale")

	rec, err := s.db.GetLatestRenderForPOI(poiID)
	if err != nil {
		log.Printf("highlight.fetch.failure poi=%s: %v", poiID, err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{"HIGHLIGHT_SERVICE_FAILURE", "Unable to load highlight narrative at this time."})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, apiError{"POI_NOT_FOUND", "No highlight narrative for " + poiID})
		return
	}

	body := []byte(rec.Manifest)
	if locale != "" {
		body, err = withLocale(body, locale)
		if err != nil {
			log.Printf("highlight.fetch.failure poi=%s: %v", poiID, err)
			writeJSON(w, http.StatusServiceUnavailable, apiError{"HIGHLIGHT_SERVICE_FAILURE", "Unable to load highlight narrative at this time."})
			return
		}
	}

	etag := computeETag(body)
	w.Header().Set("Cache-Control", "public, max-age=120")
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if locale == "" {
		locale = "default"
	}
	log.Printf("highlight.fetch.success request=%s poi=%s locale=%s", uuid.NewString(), poiID, locale)
	w.Write(body)
}

// withLocale rewrites the manifest's poi.locale.
func withLocale(manifest []byte, locale string) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(manifest, &doc); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if poi, ok := doc["poi"].(map[string]any); ok {
		poi["locale"] = locale
	}
	return json.Marshal(doc)
}

func computeETag(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HighlightID any `json:"highlightId"`
		WasHelpful  any `json:"wasHelpful"`
		Context     any `json:"context"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	highlightID, okID := req.HighlightID.(string)
	wasHelpful, okHelpful := req.WasHelpful.(bool)
	if !okID || !okHelpful {
		writeJSON(w, http.StatusBadRequest, apiError{"INVALID_FEEDBACK", "highlightId (string) and wasHelpful (boolean) are required."})
		return
	}
	var context *string
	if c, ok := req.Context.(string); ok {
		context = &c
	}

	id, err := s.db.InsertFeedback(highlightID, wasHelpful, context)
	if err != nil {
		log.Printf("feedback.write.failure: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{"FEEDBACK_WRITE_FAILURE", "Could not persist feedback at this time."})
		return
	}

	log.Printf("feedback.received highlight=%s helpful=%t id=%s", highlightID, wasHelpful, id)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event   any             `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	event, _ := req.Event.(string)
	payload := string(req.Payload)
	if payload == "null" {
		payload = ""
	}

	id, err := s.db.InsertTelemetry(event, payload)
	if err != nil {
		log.Printf("telemetry.write.failure: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{"TELEMETRY_WRITE_FAILURE", "Unable to log telemetry event."})
		return
	}

	if event == "" {
		event = "unknown"
	}
	log.Printf("telemetry.received id=%s type=%s", id, event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renders, err := s.db.GetAllRenders()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	stats, err := s.db.GetStats()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Renders": renders,
		"Stats":   stats,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.db.GetRender(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var report string
	var helpful, unhelpful int
	if rec != nil {
		report, err = Report([]byte(rec.Manifest))
		if err != nil {
			log.Printf("Error building report for %s: %v", id, err)
		}
		helpful, unhelpful, err = s.db.GetFeedbackCounts(rec.POIID)
		if err != nil {
			log.Printf("Error counting feedback for %s: %v", rec.POIID, err)
		}
	}

	s.render(w, "render.html", map[string]any{
		"Render":    rec,
		"RenderID":  id,
		"Report":    report,
		"Helpful":   helpful,
		"Unhelpful": unhelpful,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
