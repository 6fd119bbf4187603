package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"billboard-vision/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// Run serves handler on addr until ctx is canceled, then shuts down
// gracefully, letting in-flight requests finish.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	log := logger.WithComponent("server")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
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

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
