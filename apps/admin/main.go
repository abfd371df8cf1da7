package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/skillfolio/core"
	"github.com/trezcool/skillfolio/core/course"
	"github.com/trezcool/skillfolio/core/gamification"
	"github.com/trezcool/skillfolio/core/goal"
	"github.com/trezcool/skillfolio/services/events"
	logsvc "github.com/trezcool/skillfolio/services/logger"
	"github.com/trezcool/skillfolio/storage/database"
	sqlxrepos "github.com/trezcool/skillfolio/storage/database/sqlx"
)

func main() {
	conf := core.Conf
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stderr, conf, "admin"))

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services; nothing listens to the events emitted from the CLI
	bus := events.NewSyncBus(logger)
	validate, _ := core.NewValidator(course.InitValidators, gamification.InitValidators)
	cli := commandLine{
		db:              db.DB,
		logger:          logger,
		validate:        validate,
		usrRepo:         sqlxrepos.NewUserRepository(db),
		courseSvc:       course.NewService(sqlxrepos.NewCourseRepository(db), bus, logger),
		gamificationSvc: gamification.NewService(sqlxrepos.NewGamificationRepository(db), bus, logger),
		goalSvc:         goal.NewService(sqlxrepos.NewGoalRepository(db), bus, logger),
	}

	err = cli.run(context.Background(), os.Args[1:])
	_ = db.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}
