package main

import (
	"log"
	"os"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/alert"
	"github.com/tmbastos/escolar/core/calendar"
	emailsvc "github.com/tmbastos/escolar/services/email"
	logsvc "github.com/tmbastos/escolar/services/logger"
	"github.com/tmbastos/escolar/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logsvc.NewStdLogger(logger), conf)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		calSvc:  calendar.NewService(database.NewCalendarRepository(db)),
		scanner: alert.NewScanner(database.NewEvaluationRepository(db), mailSvc, logsvc.NewStdLogger(logger), conf),
		out:     os.Stdout,
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
