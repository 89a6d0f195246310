package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.alis.build/alog"
	"golang.org/x/net/netutil"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/collab"
	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/server"
)

var (
	addr      string
	maxConns  int
	hubBuffer int
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and collaboration websocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().IntVar(&maxConns, "max-conns", 0, "Maximum concurrent connections (0: unlimited)")
	cmd.Flags().IntVar(&hubBuffer, "hub-buffer", 100, "Frames buffered per websocket subscriber")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := collab.NewHub(collab.WithBuffer(hubBuffer))
	svc.SetNotifier(hub)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}

	srv := &http.Server{
		Handler:           server.New(svc, hub).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	alog.Infof(ctx, "gridsheet listening on %s (store %s)", ln.Addr(), storeSpec)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	alog.Infof(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
