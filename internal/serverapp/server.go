package serverapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"villagenird/internal/config"
	"villagenird/internal/game"
	"villagenird/internal/httpmw"
	"villagenird/internal/progress"
	"villagenird/internal/realtime"
	"villagenird/internal/telemetry"
	staticfiles "villagenird/static"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Config        *config.Config
	Logger        logrus.FieldLogger
	UseDiskStatic bool
	StaticDir     string

	// Progress defaults to a file repository under Config.Server.DataDir.
	Progress progress.Repository
	Events   telemetry.Repository
	Now      func() time.Time
}

// App is the assembled HTTP surface plus the service behind it.
type App struct {
	Handler http.Handler
	Service *game.Service
}

func NewHandler(opts Options) (http.Handler, error) {
	app, err := New(opts)
	if err != nil {
		return nil, err
	}
	return app.Handler, nil
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if strings.TrimSpace(opts.StaticDir) == "" {
		opts.StaticDir = "static"
	}
	if opts.Progress == nil {
		repo, err := progress.NewFileRepo(cfg.Server.DataDir)
		if err != nil {
			return nil, err
		}
		opts.Progress = repo
	}

	table, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	svc, err := game.NewService(game.Deps{
		Options:    cfg.SessionOptions(table),
		Difficulty: cfg.Simulation.Difficulty,
		Progress:   opts.Progress,
		Events:     opts.Events,
		Hub:        hub,
		Now:        opts.Now,
		Logger:     opts.Logger.WithField("component", "game"),
	})
	if err != nil {
		return nil, err
	}
	ws := realtime.NewServer(hub, opts.Logger.WithField("component", "realtime"), cfg.Server.AllowedOrigins)
	gameHandler := game.NewHandler(svc, ws)

	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(opts.StaticDir))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "villagenird",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := opts.Progress.List(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "session storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "villagenird",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/catalogue", gameHandler.Catalogue)
	mux.HandleFunc("/api/stats", gameHandler.Stats)
	mux.HandleFunc("/api/sessions", gameHandler.SessionsRoot)
	mux.HandleFunc("/api/sessions/", gameHandler.SessionsSub)

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.Handle("/", statusPageHandler(svc))

	return &App{
		Handler: httpmw.Chain(
			mux,
			httpmw.WithRequestID,
			httpmw.WithAccessLog(opts.Logger),
			httpmw.WithRecover(opts.Logger),
			httpmw.WithCORS(cfg.Server.AllowedOrigins),
		),
		Service: svc,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// UseDiskStaticByEnv serves /static from disk when NIRD_DEV_STATIC is set,
// so asset edits show up without a rebuild.
func UseDiskStaticByEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("NIRD_DEV_STATIC"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
