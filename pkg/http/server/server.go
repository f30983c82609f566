// Package httpserver runs an http.Server in the background with graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 35 * time.Second
	defaultAddr            = ":80"
	defaultShutdownTimeout = 3 * time.Second
)

type Server struct {
	server          *http.Server
	errCh           chan error
	shutdownTimeout time.Duration
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// New starts serving handler on opt.Addr. Zero options fall back to defaults.
func New(handler http.Handler, opt Options) *Server {
	httpServer := &http.Server{
		Handler:           handler,
		Addr:              or(opt.Addr, defaultAddr),
		ReadHeaderTimeout: or(opt.ReadTimeout, defaultReadTimeout),
		ReadTimeout:       or(opt.ReadTimeout, defaultReadTimeout),
		WriteTimeout:      or(opt.WriteTimeout, defaultWriteTimeout),
	}

	srv := &Server{
		server:          httpServer,
		errCh:           make(chan error, 1),
		shutdownTimeout: or(opt.ShutdownTimeout, defaultShutdownTimeout),
	}

	go srv.start()

	return srv
}

// NewListener is New on an already bound listener.
func NewListener(handler http.Handler, ln net.Listener, opt Options) *Server {
	opt.Addr = ln.Addr().String()

	srv := &Server{
		server: &http.Server{
			Handler:           handler,
			Addr:              opt.Addr,
			ReadHeaderTimeout: or(opt.ReadTimeout, defaultReadTimeout),
			ReadTimeout:       or(opt.ReadTimeout, defaultReadTimeout),
			WriteTimeout:      or(opt.WriteTimeout, defaultWriteTimeout),
		},
		errCh:           make(chan error, 1),
		shutdownTimeout: or(opt.ShutdownTimeout, defaultShutdownTimeout),
	}

	go func() {
		srv.errCh <- srv.server.Serve(ln)
		close(srv.errCh)
	}()

	return srv
}

func (s *Server) start() {
	s.errCh <- s.server.ListenAndServe()
	close(s.errCh)
}

// Notify delivers the error that stopped the server. A graceful Shutdown delivers nil.
func (s *Server) Notify() <-chan error {
	out := make(chan error, 1)

	go func() {
		err := <-s.errCh
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		out <- err
	}()

	return out
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func or[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}

	return v
}
