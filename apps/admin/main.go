package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/session"
	emailsvc "github.com/healthymentoring/backend/services/email"
	logsvc "github.com/healthymentoring/backend/services/logger"
	notifsvc "github.com/healthymentoring/backend/services/notification"
	"github.com/healthymentoring/backend/storage/database"
	sqlxrepos "github.com/healthymentoring/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	svcLogger := logsvc.NewRollbarLogger(logger, conf)
	svcLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	usrRepo := sqlxrepos.NewUserRepository(sdb)
	sessRepo := sqlxrepos.NewSessionRepository(sdb)
	notifier := notifsvc.NewEmailNotifier(emailsvc.NewConsoleService(), svcLogger)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: usrRepo,
		sessSvc: session.NewService(sessRepo, usrRepo, notifier, conf, svcLogger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
