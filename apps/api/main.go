package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/tmbastos/escolar/apps/api/echo"
	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/alert"
	"github.com/tmbastos/escolar/core/calendar"
	"github.com/tmbastos/escolar/core/evaluation"
	"github.com/tmbastos/escolar/core/report"
	emailsvc "github.com/tmbastos/escolar/services/email"
	logsvc "github.com/tmbastos/escolar/services/logger"
	"github.com/tmbastos/escolar/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	evalRepo := database.NewEvaluationRepository(db)
	calSvc := calendar.NewService(database.NewCalendarRepository(db))
	evalSvc := evaluation.NewService(evalRepo)
	assembler := report.NewAssembler(evalRepo, logger)
	directory := database.NewDirectoryRepository(db)
	scanner := alert.NewScanner(evalRepo, mailSvc, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	evaluation.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		CalendarSvc:   calSvc,
		EvaluationSvc: evalSvc,
		Assembler:     assembler,
		Directory:     directory,
		AlertScanner:  scanner,
		Validate:      validate,
		Translator:    translator,
		DBStatusCheck: func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
	})
	server.Start()

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

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "migrations"); err != nil {
		return nil, err
	}
	return db, nil
}
