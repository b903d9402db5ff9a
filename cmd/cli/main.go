package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/afterlog/internal/client/app"
	"github.com/dmitrijs2005/afterlog/internal/client/cli"
	"github.com/dmitrijs2005/afterlog/internal/client/config"
	"github.com/dmitrijs2005/afterlog/internal/client/localstore"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/client/view"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/logging"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The REPL may sit in a blocking read; a second interrupt kills it.
	go func() {
		<-ctx.Done()
		stop()
	}()

	cfg := config.LoadConfig()

	logger, closer := logging.NewFileLogger(cfg.LogFile, slog.LevelInfo)
	defer closer.Close()

	opts, err := app.OptionsFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store, err := localstore.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		log.Fatalf("local store: %v", err)
	}
	defer store.Close()

	clock := clockx.Real{}
	var svc remote.Service
	if cfg.Demo {
		svc = remote.NewMemory(clock)
	} else {
		c, err := remote.NewGRPCClient(cfg.ServerEndpointAddr, clock)
		if err != nil {
			log.Fatalf("connect %s: %v", cfg.ServerEndpointAddr, err)
		}
		defer c.Close()
		svc = c
	}

	width := view.DefaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	ctrl := app.New(svc, store, clock, opts)
	logger.Info(ctx, "client started", "endpoint", cfg.ServerEndpointAddr, "demo", cfg.Demo)
	cli.NewApp(ctrl, os.Stdin, width, cfg.OnlineCheckInterval).Run(ctx)
}
