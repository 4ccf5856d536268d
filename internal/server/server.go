// Package server runs an http.Server until its context ends.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 10 * time.Second

// Serve listens on srv.Addr until ctx is cancelled, then drains in-flight
// requests. A listen failure is returned as soon as it happens.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger, attrs ...any) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", append([]any{"addr", srv.Addr}, attrs...)...)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "addr", srv.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
