package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"zinc/pkg/config"
)

// Server exposes Zinc compilation and execution over a small HTTP API,
// mirroring the router/routes split of cmd/explorer and walletserver.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	cfg        *config.Config
}

// NewServer constructs the router and HTTP server for the given config.
func NewServer(cfg *config.Config) *Server {
	s := &Server{router: mux.NewRouter(), cfg: cfg}
	s.routes()
	s.httpServer = &http.Server{Addr: cfg.Server.ListenAddr, Handler: s.router}
	return s
}

func (s *Server) routes() {
	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/api/check", s.handleCheck).Methods("POST")
	s.router.HandleFunc("/api/run", s.handleRun).Methods("POST")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
