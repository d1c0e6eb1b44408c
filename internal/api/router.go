package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/mergington/internal/observability"
)

// RouterConfig holds the peripheral settings of the HTTP surface.
type RouterConfig struct {
	// StaticDir is served under /static/. Empty disables static files.
	StaticDir string
	// AllowedOrigin is echoed in CORS responses. Empty disables CORS headers.
	AllowedOrigin string
	Logger        *zap.Logger
}

// NewRouter assembles middleware, API routes, /metrics and static assets.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigin))

	h.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		r.Handle("/static/*", staticFiles(cfg.StaticDir))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})
	return r
}

// accessLog logs one line per request and feeds the HTTP metrics.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			observability.ObserveRequest(route, r.Method, status, elapsed)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// cors is a minimal CORS middleware for the local frontend.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// staticFiles serves dir under /static/. The index page is served directly
// because http.FileServer redirects any path ending in /index.html.
func staticFiles(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.StripPrefix("/static/", http.FileServer(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != IndexPath {
			files.ServeHTTP(w, r)
			return
		}
		f, err := root.Open("/index.html")
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "Not Found")
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
			return
		}
		http.ServeContent(w, r, "index.html", info.ModTime(), f)
	})
}
