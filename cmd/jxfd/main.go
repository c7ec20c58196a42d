// Command jxfd serves JXF validation and evaluation over HTTP.
//
// Configuration is read from the environment; see server.Load.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gogpu/jxf"
	"github.com/gogpu/jxf/blobstore"
	"github.com/gogpu/jxf/internal/server"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	jxf.SetLogger(log.With("component", "jxf"))

	cfg, err := server.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	store, err := blobstore.Open(cfg.DBPath)
	if err != nil {
		log.Error("open buffer store", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(cfg, store, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Addr) }()

	select {
	case err := <-errc:
		if err != nil {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}
}
