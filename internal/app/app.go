package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/concentration/internal/config"
	"github.com/vancomm/concentration/internal/database"
	"github.com/vancomm/concentration/internal/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	log     *logrus.Logger
	cfg     *config.Config
	router  *http.ServeMux
	db      *pgxpool.Pool
	cookies *config.Cookies
}

func New(log *logrus.Logger, cfg *config.Config) *App {
	return &App{
		log:    log,
		cfg:    cfg,
		router: http.NewServeMux(),
	}
}

func (a *App) handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Auth(a.log, a.cookies),
		middleware.Cors(),
		middleware.Logging(a.log),
	)
}

// Start migrates and connects to the database, then serves until ctx is
// done.
func (a *App) Start(ctx context.Context) error {
	db, migrator, err := database.ConnectAndMigrate(ctx, a.cfg.Postgres)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer db.Close()
	if version, dirty, err := migrator.Version(); err == nil {
		a.log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("database schema ready")
	}
	a.db = db

	jwt, err := config.NewJWT(a.cfg.Jwt)
	if err != nil {
		return err
	}
	a.cookies = config.NewCookies(*a.cfg, jwt)

	a.loadRoutes()

	server := &http.Server{
		Addr:        a.cfg.Addr,
		Handler:     a.handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", a.cfg.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sCtx)
	})
	return g.Wait()
}
