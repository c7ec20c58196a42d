// Package server exposes the jxf codec over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/gogpu/jxf"
	"github.com/gogpu/jxf/blobstore"
)

// Server serves validation, evaluation and buffer storage.
type Server struct {
	app      *fiber.App
	cfg      Config
	codec    *jxf.Codec
	store    *blobstore.Store
	resolver *jxf.CachingResolver
	log      *slog.Logger
}

// New builds the service around store. Buffers are resolved from data
// uris first, then from store; compressed buffers are inflated and the
// result is cached per uri.
func New(cfg Config, store *blobstore.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	resolver := jxf.NewCachingResolver(
		jxf.DecompressResolver{Next: jxf.DataURIResolver{Fallback: store}},
		cfg.CacheBudget,
	)

	s := &Server{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		log:      log,
		codec: jxf.New(
			jxf.WithSampling(cfg.Sampling),
			jxf.WithWorkers(cfg.Workers),
			jxf.WithResolver(resolver),
		),
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.BodyLimit,
		AppName:      "jxf",
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestID())
	s.app.Use(accessLog(s.log))

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	s.app.Get("/health/ready", s.ready)

	v1 := s.app.Group("/v1")
	v1.Post("/validate", s.validate)
	v1.Post("/evaluate", s.evaluate)

	v1.Get("/buffers", s.listBuffers)
	v1.Get("/buffers/+", s.getBuffer)
	v1.Put("/buffers/+", s.putBuffer)
	v1.Delete("/buffers/+", s.deleteBuffer)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("jxf: listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) ready(c fiber.Ctx) error {
	if _, err := s.store.List(c.Context()); err != nil {
		return fail(c, fiber.StatusServiceUnavailable, err)
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
