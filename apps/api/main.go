package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/healthymentoring/backend/apps/api/echo"
	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/session"
	"github.com/healthymentoring/backend/core/timezone"
	"github.com/healthymentoring/backend/core/user"
	emailsvc "github.com/healthymentoring/backend/services/email"
	logsvc "github.com/healthymentoring/backend/services/logger"
	notifsvc "github.com/healthymentoring/backend/services/notification"
	"github.com/healthymentoring/backend/storage/database"
	sqlxrepos "github.com/healthymentoring/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	usrRepo := sqlxrepos.NewUserRepository(sdb)
	sessRepo := sqlxrepos.NewSessionRepository(sdb)
	tzRepo := sqlxrepos.NewTimezoneRepository(sdb)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	notifier := core.Notifier(notifsvc.NewEmailNotifier(mailSvc, logger))
	if conf.Nats.Enabled {
		natsNotifier, err := notifsvc.NewNatsNotifier(conf.Nats.URL, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to NATS: %v", err), err)
		}
		notifier = notifsvc.Multi(notifier, natsNotifier)
	}

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	sessSvc := session.NewService(sessRepo, usrRepo, notifier, conf, logger)
	tzSvc := timezone.NewService(
		tzRepo,
		notifier,
		func(ctx context.Context, profileID uuid.UUID) ([]timezone.UpcomingSession, error) {
			sessions, err := sessSvc.QueryUpcomingByParty(ctx, profileID)
			if err != nil {
				return nil, err
			}
			upcoming := make([]timezone.UpcomingSession, 0, len(sessions))
			for _, sess := range sessions {
				upcoming = append(upcoming, timezone.UpcomingSession{Title: sess.Title, StartAt: sess.StartAt})
			}
			return upcoming, nil
		},
		func(ctx context.Context, profileID uuid.UUID) (core.Recipient, error) {
			usr, err := usrSvc.GetByID(ctx, profileID)
			if err != nil {
				return core.Recipient{}, err
			}
			return core.Recipient{ID: usr.ID, Name: usr.Name, Email: usr.Email}, nil
		},
		conf,
		logger,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			UserSvc:     usrSvc,
			TimezoneSvc: tzSvc,
			SessionSvc:  sessSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
