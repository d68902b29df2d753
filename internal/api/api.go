package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/sharetabbot/internal/db"
	"github.com/susu3304/sharetabbot/internal/logging"
)

// SplitLister reads the split history ledger.
type SplitLister interface {
	ListSplits(ctx context.Context, channelID string, limit int) ([]db.SplitRecord, error)
}

type API struct {
	router    *mux.Router
	splits    SplitLister
	jwtSecret []byte
	bind      string
	log       *logging.Logger
	server    *http.Server
}

func New(bind, jwtSecret string, splits SplitLister, log *logging.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	api := &API{
		router:    mux.NewRouter(),
		splits:    splits,
		jwtSecret: []byte(jwtSecret),
		bind:      bind,
		log:       log,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/channels/{channel_id}/splits", a.handleListSplits).Methods("GET")
}

// Handler is the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// Wildcard origin, so credentials stay off.
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info().Str("bind", a.bind).Msg("api server listening")
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
