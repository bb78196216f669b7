package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"salesstats/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var snapshotEvery time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statistics API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context(), snapshotEvery)
		},
	}
	cmd.Flags().DurationVar(&snapshotEvery, "snapshot-every", 0, "Snapshot the date ledger at this interval (0 disables)")
	return cmd
}

func (a *app) serve(parent context.Context, snapshotEvery time.Duration) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := a.cfg.Server
	srv := &http.Server{
		Addr:         sc.Addr,
		Handler:      httpapi.NewServer(a.stats, a.metrics, a.log, sc.RateLimit).Router(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The fetch outlives shutdown signals; its failure is served as 503, not
	// returned.
	g.Go(func() error {
		_ = a.stats.Load(context.WithoutCancel(gctx))
		return nil
	})

	g.Go(func() error {
		a.log.WithField("addr", sc.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if snapshotEvery > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(snapshotEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					_, err := a.takeSnapshot()
					return err
				case <-ticker.C:
					if _, err := a.takeSnapshot(); err != nil {
						a.log.WithError(err).Error("periodic snapshot failed")
					}
				}
			}
		})
	}

	return g.Wait()
}
