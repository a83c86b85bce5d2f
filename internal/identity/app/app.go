package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
	"github.com/agentdeskhq/agentdesk/internal/identity/federation/google"
	httpapi "github.com/agentdeskhq/agentdesk/internal/identity/http"
	"github.com/agentdeskhq/agentdesk/internal/identity/mail"
	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/internal/identity/store/drivers/sqlite"
	"github.com/agentdeskhq/agentdesk/pkg/cryptox"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer jwtx.Signer
	keys   *jwtx.KeySet

	bootstrapService    *service.BootstrapService
	tokenService        *service.TokenService
	authService         *service.AuthService
	userService         *service.UserService
	inviteService       *service.InviteService
	federatedService    *service.FederatedService
	presenceService     *service.PresenceService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, err := initSigningKey(app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer
	app.keys = keys

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the server, the housekeeper, and the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	app.tokenService = &service.TokenService{
		Signer:          app.signer,
		AccessVerifier:  jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, jwtx.TokenUseAccess),
		RefreshVerifier: jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, jwtx.TokenUseRefresh),
		Issuer:          app.cfg.Issuer,
		AccessTTL:       app.cfg.AccessTokenTTL,
		RefreshTTL:      app.cfg.RefreshTokenTTL,
	}

	app.bootstrapService = &service.BootstrapService{Store: app.db, Token: app.cfg.BootstrapToken}
	if app.bootstrapService.Enabled() {
		app.logger.Info("bootstrap endpoint enabled")
	}

	app.authService = &service.AuthService{Store: app.db, Tokens: app.tokenService}
	app.userService = &service.UserService{Store: app.db}
	app.presenceService = &service.PresenceService{Store: app.db}
	app.inviteService = &service.InviteService{Store: app.db, Mailer: app.initMailer()}

	if app.cfg.GoogleClientID != "" {
		stateKey := []byte(app.cfg.OAuthStateKey)
		if len(stateKey) == 0 {
			// Ephemeral key: in-flight logins break on restart, matching
			// the signing key's lifecycle.
			stateKey = make([]byte, 32)
			if _, err := rand.Read(stateKey); err != nil {
				return fmt.Errorf("generate oauth state key: %w", err)
			}
			app.logger.Warn("OAUTH_STATE_KEY not set, using an ephemeral state key")
		}

		app.federatedService = &service.FederatedService{
			Provider: google.New(google.Config{
				ClientID:     app.cfg.GoogleClientID,
				ClientSecret: app.cfg.GoogleClientSecret,
				CallbackURL:  app.cfg.GoogleCallbackURL,
			}),
			States: federation.NewStateCodec(stateKey, federation.DefaultStateTTL),
			Store:  app.db,
			Tokens: app.tokenService,
		}
		app.logger.Info("google federated login enabled")
	} else {
		app.logger.Info("google federated login disabled, GOOGLE_CLIENT_ID not set")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

func (app *Application) initMailer() mail.Mailer {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, invitation links will be logged instead of emailed")
		return mail.NewLogMailer(app.cfg.FrontendURL)
	}

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.FrontendURL,
	})
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, BuildVersion, app.db, app.logger)

	router.CookieSecure = app.cfg.IsProd()
	router.FrontendURL = app.cfg.FrontendURL
	router.BootstrapService = app.bootstrapService
	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.UserService = app.userService
	router.InviteService = app.inviteService
	router.FederatedService = app.federatedService // nil when Google is not configured
	router.PresenceService = app.presenceService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
