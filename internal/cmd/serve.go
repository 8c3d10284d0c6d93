package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/attune/internal/api"
	"github.com/harrison/attune/internal/logger"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *rootOptions) *cobra.Command {
	var (
		listen    string
		accessLog bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assessment HTTP API",
		Long: `Run the assessment HTTP API under /api.

The server listens on server.listen_addr (default :5000, or :$PORT) and shuts
down gracefully on SIGINT or SIGTERM, letting in-flight requests finish
within server.shutdown_timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				a.cfg.MergeWithFlags(&listen, nil, nil, nil, nil)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, accessLog)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (overrides server.listen_addr)")
	cmd.Flags().BoolVar(&accessLog, "access-log", true, "log every request to stderr")

	return cmd
}

func runServe(ctx context.Context, a *app, accessLog bool) error {
	var log logger.Logger = a.log
	if a.cfg.LogToFile {
		fileLog, err := logger.NewFileLogger(a.cfg.LogDir, a.cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		log = logger.Multi(a.log, fileLog)
		a.log.LogInfo("Writing run log to " + fileLog.Path())
	}

	a.warnUnusedSettings(a.out, a.q)

	svc, closeStore, err := a.openService(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()

	server := api.NewServer(svc, api.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Version:        Version,
		Logger:         log,
		AccessLog:      accessLog,
		PDFFont:        a.cfg.PDFFont,
	})

	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.ListenAddr, err)
	}
	log.LogInfo(fmt.Sprintf("Serving questionnaire %q on %s (store: %s)", a.q.Name(), ln.Addr(), a.cfg.Database.Driver))

	srv := &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	if err := serveUntilDone(ctx, srv, ln, a.cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	log.LogInfo("Server stopped")
	return nil
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts srv down
// waiting at most shutdownTimeout for open requests. Zero waits without limit.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.Background(), context.CancelFunc(func() {})
	if shutdownTimeout > 0 {
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
	}
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	<-errCh
	return nil
}
