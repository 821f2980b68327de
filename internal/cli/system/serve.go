package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/rollcall/internal/api"
	"github.com/julianstephens/rollcall/internal/cli"
	"github.com/julianstephens/rollcall/internal/logger"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on." default:"${listen_addr}" env:"ROLLCALL_LISTEN_ADDR"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           api.NewRouter(ctx.Service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", c.Addr, "online", ctx.Service.Online())
		errCh <- srv.ListenAndServe()
	}()
	ctx.Printf("Serving attendance on http://%s (Ctrl+C to stop)\n", c.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
