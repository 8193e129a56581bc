// Package server runs the HTTP and gRPC listeners until the context is
// cancelled, then drains both.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kleptokart/kleptokart/pkg/grpc"
	"github.com/kleptokart/kleptokart/pkg/logger"
)

// Options configures Run.
type Options struct {
	Handler         http.Handler
	HTTPListener    net.Listener
	GRPC            *grpc.Server // optional
	GRPCListener    net.Listener // required when GRPC is set
	ShutdownTimeout time.Duration
}

// Run serves until ctx is done or a listener fails, then shuts down
// gracefully within ShutdownTimeout. The first serve error is returned.
func Run(ctx context.Context, opts Options) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	srv := &http.Server{
		Handler:           opts.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("HTTP server starting", "addr", opts.HTTPListener.Addr().String())
		if err := srv.Serve(opts.HTTPListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: serve: %w", err)
		}
	}()

	if opts.GRPC != nil {
		go func() {
			if err := opts.GRPC.Serve(ctx, opts.GRPCListener); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	if opts.GRPC != nil {
		stopped := make(chan struct{})
		go func() {
			opts.GRPC.Stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logger.Warn("gRPC drain timed out")
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("http: shutdown: %w", err)
		}
	}

	logger.Info("servers stopped")
	return runErr
}
