// Package server wires configuration, storage, the journal service and the
// HTTP transport into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/logging"
	"github.com/dmitrijs2005/bkjournal/internal/server/config"
	"github.com/dmitrijs2005/bkjournal/internal/server/httpapi"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bkjournal/internal/server/services"
)

var (
	openDB         = repomanager.OpenPostgres
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	journalService *services.JournalService
}

// NewApp resolves the encryption key, opens the database and applies
// migrations. The key is read once here and lives only inside the codec.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	key, err := c.ResolveKey()
	if err != nil {
		return nil, fmt.Errorf("encryption key error: %w", err)
	}
	codec, err := cryptox.NewCodec(key)
	common.WipeByteArray(key)
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	js := services.NewJournalService(db, rm, codec, logger.With("module", "journal_service"), c.MinContentLength)

	return &App{config: c, logger: logger, db: db, journalService: js}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.journalService,
		app.config.SecretKey, app.config.ReadTimeout, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
