package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"airbnblite/config"
	"airbnblite/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler holds the page dependencies and the visitor registry.
type Handler struct {
	API      view.API
	Tmpl     *template.Template
	Log      *zap.SugaredLogger
	Session  config.SessionConfig
	visitors *registry
}

// PageData - data passed to base.html
type PageData struct {
	Title string
	view.Page
}

// NewHandler parses the embedded templates and sets up an empty visitor registry.
func NewHandler(api view.API, cfg config.SessionConfig, log *zap.SugaredLogger) (*Handler, error) {
	funcMap := template.FuncMap{
		"formatPrice": func(p float64) string {
			return strconv.FormatFloat(p, 'f', -1, 64)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	log.Debugw("templates loaded", "count", len(tmpl.Templates()))

	return &Handler{
		API:      api,
		Tmpl:     tmpl,
		Log:      log,
		Session:  cfg,
		visitors: newRegistry(),
	}, nil
}

// Routes wires every page and action.
func (h *Handler) Routes() http.Handler {
	static, _ := fs.Sub(staticFS, "static")

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.HandleFunc("/", h.withVisitor(h.HomeHandler)).Methods(http.MethodGet)
	r.HandleFunc("/listings/refresh", h.withVisitor(h.RefreshHandler)).Methods(http.MethodPost)
	r.HandleFunc("/listings/{id:[0-9]+}", h.withVisitor(h.ListingDetailHandler)).Methods(http.MethodGet)
	r.HandleFunc("/listings/{id:[0-9]+}/book", h.withVisitor(h.BookHandler)).Methods(http.MethodPost)
	r.HandleFunc("/auth/mode", h.withVisitor(h.AuthModeHandler)).Methods(http.MethodPost)
	r.HandleFunc("/auth/submit", h.withVisitor(h.AuthSubmitHandler)).Methods(http.MethodPost)
	r.HandleFunc("/host/listings", h.withVisitor(h.CreateListingHandler)).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.withVisitor(h.LogoutHandler)).Methods(http.MethodPost)

	r.Use(h.logRequests)
	return r
}

// setEncoding marks the response as UTF-8 HTML.
func (h *Handler) setEncoding(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// HomeHandler - the single page. ?q= sets the search text.
func (h *Handler) HomeHandler(w http.ResponseWriter, r *http.Request, v *visitor) {
	if q, ok := r.URL.Query()["q"]; ok && len(q) > 0 {
		v.ctrl.Browser().SetQuery(q[0])
	}
	h.render(w, v, http.StatusOK)
}

// HealthHandler - liveness probe
func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) render(w http.ResponseWriter, v *visitor, status int) {
	data := PageData{Title: "Airbnb Lite", Page: v.ctrl.Snapshot()}

	var buf bytes.Buffer
	if err := h.Tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		h.Log.Errorw("template execution failed", "error", err)
		http.Error(w, "Error de plantilla", http.StatusInternalServerError)
		return
	}

	v.store.Flush(w)
	h.setEncoding(w)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectHome finishes an action with post/redirect/get.
func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request, v *visitor) {
	v.store.Flush(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
