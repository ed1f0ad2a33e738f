// Package httpapi exposes the journal service over HTTP (fiber). Every
// /api route requires a bearer token; the handlers only translate between
// JSON and JournalAPI calls.
package httpapi

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/logging"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// JournalAPI is the journal service as seen by the handlers.
type JournalAPI interface {
	CreateJournal(ctx context.Context, p models.Principal, studentID string, sessionDate time.Time, content string) (*models.JournalMeta, error)
	GetJournal(ctx context.Context, p models.Principal, journalID string) (*models.Journal, error)
	UpdateJournal(ctx context.Context, p models.Principal, journalID string, newContent string) (*models.JournalMeta, error)
	DeleteJournal(ctx context.Context, p models.Principal, journalID string) error
	ListJournalsForCounselor(ctx context.Context, p models.Principal, filter models.JournalFilter) ([]models.JournalMeta, error)
}

type HTTPServer struct {
	address         string
	journals        JournalAPI
	logger          logging.Logger
	jwtSecret       []byte
	validate        *validator.Validate
	shutdownTimeout time.Duration
	app             *fiber.App
}

func NewHTTPServer(a string, l logging.Logger, js JournalAPI, secretKey string,
	readTimeout, shutdownTimeout time.Duration) *HTTPServer {

	s := &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		journals:        js,
		jwtSecret:       []byte(secretKey),
		validate:        validator.New(),
		shutdownTimeout: shutdownTimeout,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "bkjournal",
		ReadTimeout:           readTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()

	return s
}

func (s *HTTPServer) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api", s.accessTokenMiddleware)
	api.Post("/journals", s.createJournal)
	api.Get("/journals", s.listJournals)
	api.Get("/journals/:id", s.getJournal)
	api.Put("/journals/:id", s.updateJournal)
	api.Delete("/journals/:id", s.deleteJournal)
}

// App returns the underlying fiber app; tests drive it through app.Test.
func (s *HTTPServer) App() *fiber.App { return s.app }

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(s.shutdownTimeout); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	return s.app.Listener(listen)
}
