// Command todo-server serves the todo API over a JSON file.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

func main() {
	fs := flag.NewFlagSet("todo-server", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}

	logger := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Prefix: "todo-server"})

	store := jsonstore.Open(cfg.DataFile)
	srv := &http.Server{
		Handler:           server.NewHandler(store, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		logger.Fatal("Failed to listen", "addr", cfg.ServerAddr, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Listening", "addr", ln.Addr().String(), "data", store.Path())
	if err := server.Serve(ctx, srv, ln); err != nil {
		logger.Error("Server stopped", "err", err)
		stop()
		os.Exit(1)
	}
	logger.Info("Bye")
}
