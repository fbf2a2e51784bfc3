package platform

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownGrace is how long in-flight requests get after a signal.
const DefaultShutdownGrace = 30 * time.Second

// NewShutdownContext is canceled on Ctrl+C, and on SIGTERM outside Windows.
func NewShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}

// Serve runs server until ctx is canceled, then shuts it down within grace.
// Returns nil after a clean shutdown.
func Serve(ctx context.Context, server *http.Server, logger logrus.FieldLogger, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	group, groupContext := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupContext.Done()
		logger.Info("shutting down HTTP server")

		shutdownContext, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return server.Shutdown(shutdownContext)
	})

	return group.Wait()
}
