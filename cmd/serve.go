package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bug table over HTTP",
		Long: `Serve the bug table as an HTML page at / and as JSON at /api/view.

The page accepts the query parameters open (0 or 1), sort (a column key) and
dir (asc or desc). Column headers link to the next sort state.

Example:
  bugtable serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := cmd.Flags().GetString("addr")
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Serve.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			srv := web.New(a.table)
			server := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Registered after a.Close, so the load is joined before the cache closes
			loaded := startLoad(ctx, a.loader, srv)
			defer func() {
				stop()
				<-loaded
			}()

			errCh := make(chan error, 1)
			go func() {
				logging.Info("serving bug table", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			logging.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	serveCmd.Flags().String("addr", "", "listen address (default serve.addr)")
	return serveCmd
}

// bugLoader is the part of loader.Loader that serve drives.
type bugLoader interface {
	Load(ctx context.Context, show func(loader.Snapshot)) error
}

// startLoad runs l in the background, publishing every snapshot to srv. The
// returned channel is closed once Load has returned.
func startLoad(ctx context.Context, l bugLoader, srv *web.Server) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := l.Load(ctx, srv.Show); err != nil {
			logging.Error("failed to load bugs", "error", err)
			srv.Fail(err)
		}
	}()
	return done
}
