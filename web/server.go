package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/unrolled/render"
	"github.com/youcodecowboy/fantasy-hockey-analysis/config"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
)

type Server struct {
	server *http.Server
}

func NewServer(cfg config.ServerConfig, ctrl controller.C) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("a session secret is required")
	}

	render := newRender()
	router := getRouter(ctrl, render, routerOptions{
		sessionSecret:  []byte(cfg.SessionSecret),
		allowedOrigins: cfg.CORSAllowOrigins,
		requestTimeout: cfg.RequestTimeout,
	})

	s := &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	return s, nil
}

func (s *Server) ListenAndServe(shutdown chan bool, wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()

		// Wait for the shutdown signal and safely close the server.
		<-shutdown

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			log.Fatal().Err(err).Msg("fatal error shutting down server")
		}
	}()

	log.Info().Str("addr", s.server.Addr).Msg("web server is listening")
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("fatal error with server")
	}
}

func newRender() *render.Render {
	return render.New(render.Options{
		IndentJSON: true,
	})
}
